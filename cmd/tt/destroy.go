package main

import (
	"context"

	"github.com/cockroachdb/errors"
)

type DestroyCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

func (c *DestroyCmd) Run(rt *runtime) error {
	if !c.Yes && !confirm("Delete ALL tier stacks for qualifier "+rt.Settings.Qualifier+"?") {
		return errors.New("aborted")
	}

	ctx := context.Background()
	d, err := rt.deployer(ctx)
	if err != nil {
		return err
	}

	if err := d.Destroy(ctx); err != nil {
		return err
	}

	cliReporter{}.Line("all tier stacks deleted")
	return nil
}
