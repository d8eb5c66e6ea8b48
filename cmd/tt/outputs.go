package main

import (
	"context"
	"sort"
)

type OutputsCmd struct {
	Stack string `arg:"" optional:"" help:"Tier to show (network, database, loadbalancers, apptier, webtier). Default: all."`
}

func (c *OutputsCmd) Run(rt *runtime) error {
	ctx := context.Background()
	d, err := rt.deployer(ctx)
	if err != nil {
		return err
	}

	pipe, err := rt.pipeline()
	if err != nil {
		return err
	}

	tiers := pipe.Tiers()
	if c.Stack != "" {
		tiers = []string{c.Stack}
	}

	rep := cliReporter{}
	for _, tier := range tiers {
		outputs, err := d.Outputs(ctx, tier)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(outputs))
		for k := range outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, outputs[k]})
		}

		rep.Section(rt.stackName(tier))
		rep.Table([]string{"OUTPUT", "VALUE"}, rows)
	}
	return nil
}
