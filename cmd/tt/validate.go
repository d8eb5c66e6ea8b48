package main

import (
	"context"

	"github.com/threetierhq/ttapp/cmd/internal/cfnvalidate"
	"github.com/threetierhq/ttapp/cmd/internal/synth"
)

type ValidateCmd struct {
	Offline bool     `help:"Skip the CloudFormation ValidateTemplate API calls."`
	Files   []string `arg:"" optional:"" help:"Hand-written YAML template files to check instead of the synthesized tiers."`
}

func (c *ValidateCmd) Run(rt *runtime) error {
	rep := cliReporter{}

	if len(c.Files) > 0 {
		for _, path := range c.Files {
			if err := cfnvalidate.TemplateFile(path); err != nil {
				return err
			}
			rep.Line("template OK: %s", path)
		}
		return nil
	}

	templates, err := synth.Templates(rt.cdkConfig())
	if err != nil {
		return err
	}

	pipe, err := rt.pipeline()
	if err != nil {
		return err
	}
	if err := pipe.ValidateWiring(templates); err != nil {
		return err
	}

	rep.Line("wiring OK: every referenced output is produced by an earlier stack")

	if c.Offline {
		return nil
	}

	ctx := context.Background()
	client, err := rt.stackClient(ctx)
	if err != nil {
		return err
	}
	for _, spec := range pipe.Order() {
		body, err := synth.Body(templates, spec.Tier)
		if err != nil {
			return err
		}
		name := rt.stackName(spec.Tier)
		if err := client.Validate(ctx, name, body); err != nil {
			return err
		}
		rep.Line("template OK: %s", name)
	}
	return nil
}
