package main

import (
	"path/filepath"

	"github.com/threetierhq/ttapp/cmd/internal/synth"
	"github.com/threetierhq/ttapp/infra/cdk"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

type SynthCmd struct {
	Out string `help:"Output directory for the synthesized templates." default:"templates"`
}

func (c *SynthCmd) Run(rt *runtime) error {
	templates, err := synth.Templates(rt.cdkConfig())
	if err != nil {
		return err
	}

	dir := filepath.Join(rt.Config.Root, c.Out)
	if err := synth.WriteOut(dir, rt.Settings.Qualifier, templates); err != nil {
		return err
	}

	rep := cliReporter{}
	for _, tier := range cdk.Tiers() {
		rep.Line("wrote %s", filepath.Join(dir, ttcdkutil.StackName(rt.Settings.Qualifier, tier)+".template.json"))
	}
	return nil
}
