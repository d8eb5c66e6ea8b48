// Package deployer walks the tier pipeline against live CloudFormation: it
// deploys each stack in dependency order, feeds the outputs of finished
// stacks into the parameters of later ones, and tears everything down in the
// exact reverse order.
package deployer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/threetierhq/ttapp/cmd/internal/cfnclient"
	"github.com/threetierhq/ttapp/cmd/internal/cfnparams"
	"github.com/threetierhq/ttapp/cmd/internal/pipeline"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// StackClient is the slice of cfnclient.Client the deployer needs. Tests
// substitute an in-memory implementation.
type StackClient interface {
	Status(ctx context.Context, stackName string) (types.StackStatus, bool, error)
	Deploy(ctx context.Context, stackName, templateBody string, params map[string]string) error
	Outputs(ctx context.Context, stackName string) (map[string]string, error)
	Delete(ctx context.Context, stackName string) error
}

// Deployer drives the stack pipeline for one qualifier.
type Deployer struct {
	client    StackClient
	pipe      *pipeline.Pipeline
	qualifier string
	log       *zap.Logger
}

func New(client StackClient, pipe *pipeline.Pipeline, qualifier string, log *zap.Logger) *Deployer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deployer{client: client, pipe: pipe, qualifier: qualifier, log: log}
}

// StackName returns the CloudFormation stack name for a tier.
func (d *Deployer) StackName(tier string) string {
	return ttcdkutil.StackName(d.qualifier, tier)
}

// PlannedAction is what a deploy would do to one stack.
type PlannedAction struct {
	Tier      string
	StackName string
	// Action is "create", "update", or "blocked" for a stack stuck in
	// ROLLBACK_COMPLETE.
	Action string
	Status types.StackStatus
}

// Plan reports, in deployment order, whether each tier stack would be
// created or updated. It makes no changes.
func (d *Deployer) Plan(ctx context.Context) ([]PlannedAction, error) {
	var plan []PlannedAction
	for _, spec := range d.pipe.Order() {
		name := d.StackName(spec.Tier)
		status, exists, err := d.client.Status(ctx, name)
		if err != nil {
			return nil, err
		}

		action := "update"
		switch {
		case !exists:
			action = "create"
		case status == types.StackStatusRollbackComplete:
			action = "blocked"
		}
		plan = append(plan, PlannedAction{
			Tier:      spec.Tier,
			StackName: name,
			Action:    action,
			Status:    status,
		})
	}
	return plan, nil
}

// Deploy deploys every tier stack in dependency order, resolving each
// stack's parameter placeholders against the outputs of the stacks deployed
// before it. Bodies are the synthesized templates keyed by tier. Returns the
// collected outputs keyed {{tier.OutputKey}}-style.
func (d *Deployer) Deploy(ctx context.Context, bodies map[string]string) (map[string]string, error) {
	collected := make(map[string]string)

	for _, spec := range d.pipe.Order() {
		body, ok := bodies[spec.Tier]
		if !ok {
			return nil, errors.Newf("no template body for tier %q", spec.Tier)
		}
		name := d.StackName(spec.Tier)

		params, err := cfnparams.Resolve(spec.Params, collected)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving parameters for stack %s", name)
		}

		d.log.Info("deploying stack", zap.String("stack", name), zap.String("tier", spec.Tier))
		if err := d.client.Deploy(ctx, name, body, params); err != nil {
			if !errors.Is(err, cfnclient.ErrNoChanges) {
				return nil, err
			}
			d.log.Info("stack unchanged", zap.String("stack", name))
		}

		outputs, err := d.client.Outputs(ctx, name)
		if err != nil {
			return nil, err
		}
		for key, val := range outputs {
			collected[spec.Tier+"."+key] = val
		}
		d.log.Info("stack ready", zap.String("stack", name), zap.Int("outputs", len(outputs)))
	}
	return collected, nil
}

// Destroy deletes every existing tier stack in reverse deployment order.
// Missing stacks are skipped, so teardown is resumable after a partial run.
func (d *Deployer) Destroy(ctx context.Context) error {
	for _, spec := range d.pipe.ReverseOrder() {
		name := d.StackName(spec.Tier)

		_, exists, err := d.client.Status(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			d.log.Info("stack already absent", zap.String("stack", name))
			continue
		}

		d.log.Info("deleting stack", zap.String("stack", name))
		if err := d.client.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Outputs returns the live outputs of one tier stack.
func (d *Deployer) Outputs(ctx context.Context, tier string) (map[string]string, error) {
	if _, ok := d.pipe.Get(tier); !ok {
		return nil, errors.Newf("unknown tier %q", tier)
	}
	return d.client.Outputs(ctx, d.StackName(tier))
}
