package main

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/threetierhq/ttapp/cmd/internal/deploylock"
	"github.com/threetierhq/ttapp/cmd/internal/synth"
)

type DeployCmd struct {
	Yes    bool `help:"Skip the confirmation prompt."`
	NoLock bool `help:"Skip the deploy lock."`
}

func (c *DeployCmd) Run(rt *runtime) error {
	if err := rt.Settings.ValidateForDeploy(); err != nil {
		return err
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

	bodies := make(map[string]string, len(templates))
	for _, spec := range pipe.Order() {
		body, err := synth.Body(templates, spec.Tier)
		if err != nil {
			return err
		}
		bodies[spec.Tier] = body
	}

	if !c.Yes && !confirm("Deploy all tier stacks to "+rt.Settings.Region+"?") {
		return errors.New("aborted")
	}

	ctx := context.Background()

	release, err := c.acquireLock(ctx, rt)
	if err != nil {
		return err
	}
	defer release()

	d, err := rt.deployer(ctx)
	if err != nil {
		return err
	}

	collected, err := d.Deploy(ctx, bodies)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(collected))
	for k := range collected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, collected[k]})
	}

	rep := cliReporter{}
	rep.Section("stack outputs")
	rep.Table([]string{"OUTPUT", "VALUE"}, rows)
	return nil
}

// acquireLock claims the deploy lock and returns its release function. When
// locking is disabled or unconfigured the release function is a no-op.
func (c *DeployCmd) acquireLock(ctx context.Context, rt *runtime) (func(), error) {
	if c.NoLock || rt.Settings.LockTable == "" {
		return func() {}, nil
	}

	awscfg, err := rt.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	store := deploylock.NewStoreFromConfig(awscfg, rt.Settings.LockTable)

	token, err := deploylock.GenerateToken()
	if err != nil {
		return nil, err
	}
	label := deploylock.DefaultLabel(ctx)

	if err := store.Acquire(ctx, rt.Settings.Qualifier, token, label); err != nil {
		return nil, err
	}

	log := rt.logger()
	return func() {
		if err := store.Release(ctx, rt.Settings.Qualifier, token); err != nil {
			log.Warn("releasing deploy lock failed", zap.Error(err))
		}
	}, nil
}
