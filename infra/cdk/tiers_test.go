package cdk_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/infra/cdk"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

func TestBuildTiers_StackNames(t *testing.T) {
	defer jsii.Close()

	app := ttcdkutil.NewTierApp()
	stacks := cdk.BuildTiers(app, ttcdkutil.DefaultConfig("testqual"))

	want := map[string]string{
		cdk.TierNetwork:       "testqual-network",
		cdk.TierDatabase:      "testqual-database",
		cdk.TierLoadBalancers: "testqual-loadbalancers",
		cdk.TierAppTier:       "testqual-apptier",
		cdk.TierWebTier:       "testqual-webtier",
	}
	if len(stacks) != len(want) {
		t.Fatalf("got %d stacks, want %d", len(stacks), len(want))
	}
	for tier, name := range want {
		stack, ok := stacks[tier]
		if !ok {
			t.Errorf("missing tier %q", tier)
			continue
		}
		if got := *stack.StackName(); got != name {
			t.Errorf("tier %q stack name = %q, want %q", tier, got, name)
		}
	}
}

func TestBuildTiers_NoBootstrapDependency(t *testing.T) {
	defer jsii.Close()

	app := ttcdkutil.NewTierApp()
	stacks := cdk.BuildTiers(app, ttcdkutil.DefaultConfig("testqual"))
	asm := app.Synth(nil)

	for tier, stack := range stacks {
		artifact := asm.GetStackByName(stack.StackName())

		raw, err := json.Marshal(artifact.Template())
		if err != nil {
			t.Fatalf("tier %q: %v", tier, err)
		}
		var tpl map[string]any
		if err := json.Unmarshal(raw, &tpl); err != nil {
			t.Fatalf("tier %q: %v", tier, err)
		}
		if params, ok := tpl["Parameters"].(map[string]any); ok {
			if _, found := params["BootstrapVersion"]; found {
				t.Errorf("tier %q template requires the CDK bootstrap stack", tier)
			}
		}
	}
}

func TestTiers_Order(t *testing.T) {
	want := []string{"network", "database", "loadbalancers", "apptier", "webtier"}
	got := cdk.Tiers()
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tiers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
