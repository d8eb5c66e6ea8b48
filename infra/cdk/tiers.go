// Package cdk assembles the five tier stacks into one CDK app. The deploy
// engine synthesizes the same assembly in-process; the cdk/ subdirectory
// holds a standalone app entry for plain `cdk synth` use.
package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkapptier"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkdatabase"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkloadbalancer"
	"github.com/threetierhq/ttapp/ttcdk/ttcdknetwork"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkwebtier"
)

// Tier identifiers, also the suffixes of the CloudFormation stack names.
const (
	TierNetwork       = "network"
	TierDatabase      = "database"
	TierLoadBalancers = "loadbalancers"
	TierAppTier       = "apptier"
	TierWebTier       = "webtier"
)

// Tiers returns the tier identifiers in their creation order.
func Tiers() []string {
	return []string{TierNetwork, TierDatabase, TierLoadBalancers, TierAppTier, TierWebTier}
}

// BuildTiers creates the five tier stacks on the app and returns them keyed
// by tier identifier.
func BuildTiers(app awscdk.App, cfg ttcdkutil.Config) map[string]awscdk.Stack {
	stacks := make(map[string]awscdk.Stack, 5)

	networkStack := ttcdkutil.NewTierStack(app, cfg.Qualifier, TierNetwork)
	ttcdknetwork.New(networkStack, ttcdknetwork.Props{
		VpcCidr:   cfg.VpcCidr,
		Qualifier: cfg.Qualifier,
	})
	stacks[TierNetwork] = networkStack

	databaseStack := ttcdkutil.NewTierStack(app, cfg.Qualifier, TierDatabase)
	ttcdkdatabase.New(databaseStack, ttcdkdatabase.Props{
		DbInstanceClass: cfg.DbInstanceClass,
		Qualifier:       cfg.Qualifier,
	})
	stacks[TierDatabase] = databaseStack

	lbStack := ttcdkutil.NewTierStack(app, cfg.Qualifier, TierLoadBalancers)
	ttcdkloadbalancer.New(lbStack, ttcdkloadbalancer.Props{
		Qualifier: cfg.Qualifier,
	})
	stacks[TierLoadBalancers] = lbStack

	appStack := ttcdkutil.NewTierStack(app, cfg.Qualifier, TierAppTier)
	ttcdkapptier.New(appStack, ttcdkapptier.Props{
		InstanceType: cfg.InstanceType,
		MinSize:      cfg.AsgMinSize,
		MaxSize:      cfg.AsgMaxSize,
		Qualifier:    cfg.Qualifier,
	})
	stacks[TierAppTier] = appStack

	webStack := ttcdkutil.NewTierStack(app, cfg.Qualifier, TierWebTier)
	ttcdkwebtier.New(webStack, ttcdkwebtier.Props{
		InstanceType: cfg.InstanceType,
		MinSize:      cfg.AsgMinSize,
		MaxSize:      cfg.AsgMaxSize,
		Qualifier:    cfg.Qualifier,
	})
	stacks[TierWebTier] = webStack

	return stacks
}
