package ttcdkdatabase_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkdatabase"
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

func newDatabaseTemplate(t *testing.T) map[string]any {
	t.Helper()

	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("TestStack"), nil)

	db := ttcdkdatabase.New(stack, ttcdkdatabase.Props{
		DbInstanceClass: "db.t3.micro",
		Qualifier:       "testqual",
	})
	if db.Instance() == nil {
		t.Fatal("Instance() should not be nil")
	}

	return synthTemplate(t, app)
}

func TestNew_DeclaresParametersAndOutputs(t *testing.T) {
	defer jsii.Close()

	tmpl := newDatabaseTemplate(t)

	params, ok := tmpl["Parameters"].(map[string]any)
	if !ok {
		t.Fatal("template should have Parameters")
	}
	for _, name := range []string{
		"DbSubnet1Id", "DbSubnet2Id", "DbSecurityGroupId",
		"DbName", "DbUser", "DbPassword", "DbAllocatedStorage",
	} {
		if _, ok := params[name]; !ok {
			t.Errorf("missing parameter %q", name)
		}
	}

	outputs, ok := tmpl["Outputs"].(map[string]any)
	if !ok {
		t.Fatal("template should have Outputs")
	}
	for _, name := range []string{"DbEndpointAddress", "DbEndpointPort"} {
		if _, ok := outputs[name]; !ok {
			t.Errorf("missing output %q", name)
		}
	}
}

func TestNew_PasswordIsNoEcho(t *testing.T) {
	defer jsii.Close()

	tmpl := newDatabaseTemplate(t)

	params := tmpl["Parameters"].(map[string]any)
	pw, ok := params["DbPassword"].(map[string]any)
	if !ok {
		t.Fatal("DbPassword parameter missing")
	}
	if noEcho, _ := pw["NoEcho"].(bool); !noEcho {
		t.Error("DbPassword must be NoEcho")
	}
}

func TestNew_InstanceIsPrivateSingleAz(t *testing.T) {
	defer jsii.Close()

	tmpl := newDatabaseTemplate(t)

	resources := tmpl["Resources"].(map[string]any)
	inst, ok := resources["DbInstance"].(map[string]any)
	if !ok {
		t.Fatal("DbInstance resource missing")
	}

	props := inst["Properties"].(map[string]any)
	if pub, _ := props["PubliclyAccessible"].(bool); pub {
		t.Error("database must not be publicly accessible")
	}
	if multi, _ := props["MultiAZ"].(bool); multi {
		t.Error("demo database should be single-AZ")
	}
	if engine, _ := props["Engine"].(string); engine != "mysql" {
		t.Errorf("Engine = %q, want mysql", engine)
	}
	if pol, _ := inst["DeletionPolicy"].(string); pol != "Delete" {
		t.Errorf("DeletionPolicy = %q, want Delete", pol)
	}
}

func TestNew_AllocatedStorageDefault(t *testing.T) {
	defer jsii.Close()

	tmpl := newDatabaseTemplate(t)

	params := tmpl["Parameters"].(map[string]any)
	storage, ok := params["DbAllocatedStorage"].(map[string]any)
	if !ok {
		t.Fatal("DbAllocatedStorage parameter missing")
	}
	if def, _ := storage["Default"].(string); def != "20" {
		t.Errorf("Default = %v, want 20", storage["Default"])
	}
}
