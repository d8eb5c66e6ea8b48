package tplpatch_test

import (
	"testing"

	"github.com/threetierhq/ttapp/cmd/internal/tplpatch"
)

func TestSanitize_StripsBookkeeping(t *testing.T) {
	t.Parallel()
	template := map[string]any{
		"Resources": map[string]any{
			"Vpc":         map[string]any{"Type": "AWS::EC2::VPC"},
			"CDKMetadata": map[string]any{"Type": "AWS::CDK::Metadata"},
		},
		"Parameters": map[string]any{
			"BootstrapVersion": map[string]any{"Type": "AWS::SSM::Parameter::Value<String>"},
			"KeyName":          map[string]any{"Type": "AWS::EC2::KeyPair::KeyName"},
		},
		"Rules": map[string]any{
			"CheckBootstrapVersion": map[string]any{},
		},
		"Conditions": map[string]any{
			"CDKMetadataAvailable": map[string]any{},
		},
	}

	got, err := tplpatch.Sanitize(template)
	if err != nil {
		t.Fatal(err)
	}

	resources := got["Resources"].(map[string]any)
	if _, ok := resources["CDKMetadata"]; ok {
		t.Error("CDKMetadata resource should be removed")
	}
	if _, ok := resources["Vpc"]; !ok {
		t.Error("real resources must survive")
	}

	params := got["Parameters"].(map[string]any)
	if _, ok := params["BootstrapVersion"]; ok {
		t.Error("BootstrapVersion parameter should be removed")
	}
	if _, ok := params["KeyName"]; !ok {
		t.Error("real parameters must survive")
	}

	if _, ok := got["Rules"]; ok {
		t.Error("emptied Rules section should be dropped")
	}
	if _, ok := got["Conditions"]; ok {
		t.Error("emptied Conditions section should be dropped")
	}
}

func TestSanitize_KeepsNonEmptySections(t *testing.T) {
	t.Parallel()
	template := map[string]any{
		"Resources": map[string]any{"Vpc": map[string]any{"Type": "AWS::EC2::VPC"}},
		"Rules": map[string]any{
			"CheckBootstrapVersion": map[string]any{},
			"CustomRule":            map[string]any{},
		},
	}

	got, err := tplpatch.Sanitize(template)
	if err != nil {
		t.Fatal(err)
	}
	rules, ok := got["Rules"].(map[string]any)
	if !ok {
		t.Fatal("Rules section with remaining rules must survive")
	}
	if _, ok := rules["CustomRule"]; !ok {
		t.Error("custom rule must survive")
	}
}

func TestSanitize_NoResources(t *testing.T) {
	t.Parallel()
	_, err := tplpatch.Sanitize(map[string]any{
		"Resources": map[string]any{"CDKMetadata": map[string]any{"Type": "AWS::CDK::Metadata"}},
	})
	if err == nil {
		t.Fatal("expected error for template without real resources")
	}
}

func TestSanitize_Nil(t *testing.T) {
	t.Parallel()
	if _, err := tplpatch.Sanitize(nil); err == nil {
		t.Fatal("expected error")
	}
}
