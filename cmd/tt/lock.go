package main

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/cmd/internal/deploylock"
)

type LockStatusCmd struct{}

func (c *LockStatusCmd) Run(rt *runtime) error {
	ctx := context.Background()
	store, err := lockStore(ctx, rt)
	if err != nil {
		return err
	}

	info, err := store.Get(ctx, rt.Settings.Qualifier)
	if err != nil {
		return err
	}

	rep := cliReporter{}
	if info == nil {
		rep.Line("deploy lock for %s is free", rt.Settings.Qualifier)
		return nil
	}
	rep.Section("deploy lock")
	rep.Table(
		[]string{"QUALIFIER", "HELD BY", "SINCE"},
		[][]string{{rt.Settings.Qualifier, info.Label, info.AcquiredAt}},
	)
	return nil
}

type LockReleaseCmd struct {
	Force bool `help:"Release even though this process does not hold the lock."`
}

func (c *LockReleaseCmd) Run(rt *runtime) error {
	ctx := context.Background()
	store, err := lockStore(ctx, rt)
	if err != nil {
		return err
	}

	info, err := store.Get(ctx, rt.Settings.Qualifier)
	if err != nil {
		return err
	}
	if info == nil {
		cliReporter{}.Line("deploy lock for %s is already free", rt.Settings.Qualifier)
		return nil
	}

	// The holding process released its token on exit, so from here every
	// release is taking the lock away from someone. Make that explicit.
	if !c.Force {
		return errors.Newf(
			"deploy lock for %s is held by %s since %s; re-run with --force to release it",
			rt.Settings.Qualifier, info.Label, info.AcquiredAt)
	}

	if err := store.ForceRelease(ctx, rt.Settings.Qualifier); err != nil {
		return err
	}
	cliReporter{}.Line("deploy lock for %s released", rt.Settings.Qualifier)
	return nil
}

func lockStore(ctx context.Context, rt *runtime) (*deploylock.Store, error) {
	if rt.Settings.LockTable == "" {
		return nil, errors.New("no lock-table configured in tt.toml")
	}
	awscfg, err := rt.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return deploylock.NewStoreFromConfig(awscfg, rt.Settings.LockTable), nil
}
