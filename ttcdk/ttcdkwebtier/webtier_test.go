package ttcdkwebtier_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkwebtier"
)

func synthTemplate(t *testing.T, app awscdk.App) map[string]any {
	t.Helper()

	template := app.Synth(nil).GetStackByName(jsii.String("TestStack")).Template()

	raw, err := json.Marshal(template)
	if err != nil {
		t.Fatalf("failed to marshal template: %v", err)
	}
	var tmpl map[string]any
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		t.Fatalf("failed to unmarshal template: %v", err)
	}
	return tmpl
}

func newWebTierTemplate(t *testing.T) map[string]any {
	t.Helper()

	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("TestStack"), nil)

	tier := ttcdkwebtier.New(stack, ttcdkwebtier.Props{
		InstanceType: "t3.micro",
		MinSize:      2,
		MaxSize:      4,
		Qualifier:    "testqual",
	})
	if tier.Asg() == nil {
		t.Fatal("Asg() should not be nil")
	}

	return synthTemplate(t, app)
}

func TestNew_DeclaresParametersAndOutputs(t *testing.T) {
	defer jsii.Close()

	tmpl := newWebTierTemplate(t)

	params, ok := tmpl["Parameters"].(map[string]any)
	if !ok {
		t.Fatal("template should have Parameters")
	}
	for _, name := range []string{
		"PublicSubnet1Id", "PublicSubnet2Id", "WebSecurityGroupId",
		"ExternalTargetGroupArn", "KeyName", "InternalAlbDnsName", "LatestAmiId",
	} {
		if _, ok := params[name]; !ok {
			t.Errorf("missing parameter %q", name)
		}
	}

	outputs, ok := tmpl["Outputs"].(map[string]any)
	if !ok {
		t.Fatal("template should have Outputs")
	}
	if _, ok := outputs["WebAsgName"]; !ok {
		t.Error("missing output WebAsgName")
	}
}

func TestNew_UserDataProxiesToInternalAlb(t *testing.T) {
	defer jsii.Close()

	tmpl := newWebTierTemplate(t)

	resources := tmpl["Resources"].(map[string]any)
	lt, ok := resources["WebAsgLaunchTemplate"].(map[string]any)
	if !ok {
		t.Fatal("WebAsgLaunchTemplate resource missing")
	}

	raw, err := json.Marshal(lt)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "proxy_pass") {
		t.Error("web tier user data should configure an nginx reverse proxy")
	}
	if !strings.Contains(string(raw), "InternalAlbDnsName") {
		t.Error("proxy target should reference the InternalAlbDnsName parameter")
	}
}

func TestNew_UserDataReplacesStockNginxConfig(t *testing.T) {
	defer jsii.Close()

	tmpl := newWebTierTemplate(t)

	resources := tmpl["Resources"].(map[string]any)
	raw, err := json.Marshal(resources["WebAsgLaunchTemplate"])
	if err != nil {
		t.Fatal(err)
	}

	// The packaged nginx.conf already declares a default_server on port 80.
	// Writing a second one under conf.d is a fatal duplicate; the script must
	// replace the main config file instead.
	if !strings.Contains(string(raw), "/etc/nginx/nginx.conf") {
		t.Error("user data should overwrite /etc/nginx/nginx.conf")
	}
	if strings.Contains(string(raw), "conf.d") {
		t.Error("user data should not layer config under conf.d next to the stock default server")
	}
	if got := strings.Count(string(raw), "default_server"); got != 1 {
		t.Errorf("user data should declare exactly one default_server, got %d", got)
	}
}
