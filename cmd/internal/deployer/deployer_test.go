package deployer_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/cmd/internal/cfnclient"
	"github.com/threetierhq/ttapp/cmd/internal/deployer"
	"github.com/threetierhq/ttapp/cmd/internal/pipeline"
)

type deployedStack struct {
	body   string
	params map[string]string
}

// fakeClient records stack operations and serves canned outputs per stack.
type fakeClient struct {
	existing map[string]types.StackStatus
	outputs  map[string]map[string]string

	noChanges map[string]bool

	deploys   []string
	deployed  map[string]deployedStack
	deletions []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		existing:  map[string]types.StackStatus{},
		outputs:   map[string]map[string]string{},
		noChanges: map[string]bool{},
		deployed:  map[string]deployedStack{},
	}
}

func (f *fakeClient) Status(_ context.Context, name string) (types.StackStatus, bool, error) {
	status, ok := f.existing[name]
	return status, ok, nil
}

func (f *fakeClient) Deploy(_ context.Context, name, body string, params map[string]string) error {
	f.deploys = append(f.deploys, name)
	f.deployed[name] = deployedStack{body: body, params: params}
	if f.noChanges[name] {
		return errors.Mark(errors.New("no changes"), cfnclient.ErrNoChanges)
	}
	f.existing[name] = types.StackStatusCreateComplete
	return nil
}

func (f *fakeClient) Outputs(_ context.Context, name string) (map[string]string, error) {
	return f.outputs[name], nil
}

func (f *fakeClient) Delete(_ context.Context, name string) error {
	f.deletions = append(f.deletions, name)
	delete(f.existing, name)
	return nil
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	pipe, err := pipeline.New([]pipeline.StackSpec{
		{Tier: "network"},
		{Tier: "database", DependsOn: []string{"network"}, Params: map[string]string{
			"DbSubnet1Id": "{{network.DbSubnet1Id}}",
		}},
		{Tier: "apptier", DependsOn: []string{"network", "database"}, Params: map[string]string{
			"DbEndpointAddress": "{{database.DbEndpointAddress}}",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return pipe
}

func testBodies() map[string]string {
	return map[string]string{
		"network":  `{"Resources":{"Net":{}}}`,
		"database": `{"Resources":{"Db":{}}}`,
		"apptier":  `{"Resources":{"App":{}}}`,
	}
}

func TestDeploy_OrderAndParameterFlow(t *testing.T) {
	t.Parallel()
	client := newFakeClient()
	client.outputs["demo-network"] = map[string]string{"DbSubnet1Id": "subnet-1"}
	client.outputs["demo-database"] = map[string]string{"DbEndpointAddress": "db.example.internal"}

	d := deployer.New(client, testPipeline(t), "demo", nil)
	collected, err := d.Deploy(context.Background(), testBodies())
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"demo-network", "demo-database", "demo-apptier"}
	if !reflect.DeepEqual(client.deploys, wantOrder) {
		t.Errorf("deploy order = %v, want %v", client.deploys, wantOrder)
	}

	if got := client.deployed["demo-database"].params["DbSubnet1Id"]; got != "subnet-1" {
		t.Errorf("database DbSubnet1Id = %q, want output of network stack", got)
	}
	if got := client.deployed["demo-apptier"].params["DbEndpointAddress"]; got != "db.example.internal" {
		t.Errorf("apptier DbEndpointAddress = %q, want output of database stack", got)
	}

	if collected["network.DbSubnet1Id"] != "subnet-1" {
		t.Errorf("collected outputs missing network.DbSubnet1Id: %v", collected)
	}
}

func TestDeploy_NoChangesIsSuccess(t *testing.T) {
	t.Parallel()
	client := newFakeClient()
	client.existing["demo-network"] = types.StackStatusCreateComplete
	client.noChanges["demo-network"] = true
	client.outputs["demo-network"] = map[string]string{"DbSubnet1Id": "subnet-1"}
	client.outputs["demo-database"] = map[string]string{"DbEndpointAddress": "db"}

	d := deployer.New(client, testPipeline(t), "demo", nil)
	if _, err := d.Deploy(context.Background(), testBodies()); err != nil {
		t.Fatalf("no-changes update should not fail the run: %v", err)
	}
	if len(client.deploys) != 3 {
		t.Errorf("expected all 3 stacks attempted, got %v", client.deploys)
	}
}

func TestDeploy_MissingBody(t *testing.T) {
	t.Parallel()
	d := deployer.New(newFakeClient(), testPipeline(t), "demo", nil)
	_, err := d.Deploy(context.Background(), map[string]string{"network": "{}"})
	if err == nil {
		t.Fatal("expected error for missing template body")
	}
}

func TestDestroy_ReverseOrderSkipsMissing(t *testing.T) {
	t.Parallel()
	client := newFakeClient()
	client.existing["demo-network"] = types.StackStatusCreateComplete
	client.existing["demo-apptier"] = types.StackStatusCreateComplete
	// database was never created; teardown must skip it.

	d := deployer.New(client, testPipeline(t), "demo", nil)
	if err := d.Destroy(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"demo-apptier", "demo-network"}
	if !reflect.DeepEqual(client.deletions, want) {
		t.Errorf("deletion order = %v, want %v", client.deletions, want)
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()
	client := newFakeClient()
	client.existing["demo-network"] = types.StackStatusCreateComplete
	client.existing["demo-database"] = types.StackStatusRollbackComplete

	d := deployer.New(client, testPipeline(t), "demo", nil)
	plan, err := d.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	actions := map[string]string{}
	for _, a := range plan {
		actions[a.Tier] = a.Action
	}
	want := map[string]string{"network": "update", "database": "blocked", "apptier": "create"}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("plan actions = %v, want %v", actions, want)
	}
}

func TestOutputs_UnknownTier(t *testing.T) {
	t.Parallel()
	d := deployer.New(newFakeClient(), testPipeline(t), "demo", nil)
	if _, err := d.Outputs(context.Background(), "cache"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
