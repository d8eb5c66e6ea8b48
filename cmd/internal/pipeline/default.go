package pipeline

import (
	"github.com/threetierhq/ttapp/infra/cdk"
)

// Inputs are the deploy-time values that come from the operator's
// environment rather than from another stack's outputs.
type Inputs struct {
	KeyPair    string
	DbName     string
	DbUser     string
	DbPassword string
	// Overrides holds extra or replacement template parameters per tier,
	// from the workspace config.
	Overrides map[string]map[string]string
}

// Default returns the fixed three-tier pipeline: network, then database and
// load balancers, then the app tier, then the web tier. Teardown runs the
// exact reverse.
func Default(in Inputs) (*Pipeline, error) {
	specs := []StackSpec{
		{
			Tier: cdk.TierNetwork,
		},
		{
			Tier:      cdk.TierDatabase,
			DependsOn: []string{cdk.TierNetwork},
			Params: map[string]string{
				"DbSubnet1Id":       "{{network.DbSubnet1Id}}",
				"DbSubnet2Id":       "{{network.DbSubnet2Id}}",
				"DbSecurityGroupId": "{{network.DbSecurityGroupId}}",
				"DbName":            in.DbName,
				"DbUser":            in.DbUser,
				"DbPassword":        in.DbPassword,
			},
		},
		{
			Tier:      cdk.TierLoadBalancers,
			DependsOn: []string{cdk.TierNetwork},
			Params: map[string]string{
				"VpcId":                      "{{network.VpcId}}",
				"PublicSubnet1Id":            "{{network.PublicSubnet1Id}}",
				"PublicSubnet2Id":            "{{network.PublicSubnet2Id}}",
				"AppSubnet1Id":               "{{network.AppSubnet1Id}}",
				"AppSubnet2Id":               "{{network.AppSubnet2Id}}",
				"ExternalAlbSecurityGroupId": "{{network.ExternalAlbSecurityGroupId}}",
				"InternalAlbSecurityGroupId": "{{network.InternalAlbSecurityGroupId}}",
			},
		},
		{
			Tier:      cdk.TierAppTier,
			DependsOn: []string{cdk.TierNetwork, cdk.TierDatabase, cdk.TierLoadBalancers},
			Params: map[string]string{
				"AppSubnet1Id":           "{{network.AppSubnet1Id}}",
				"AppSubnet2Id":           "{{network.AppSubnet2Id}}",
				"AppSecurityGroupId":     "{{network.AppSecurityGroupId}}",
				"InternalTargetGroupArn": "{{loadbalancers.InternalTargetGroupArn}}",
				"DbEndpointAddress":      "{{database.DbEndpointAddress}}",
				"KeyName":                in.KeyPair,
			},
		},
		{
			Tier:      cdk.TierWebTier,
			DependsOn: []string{cdk.TierNetwork, cdk.TierLoadBalancers},
			Params: map[string]string{
				"PublicSubnet1Id":        "{{network.PublicSubnet1Id}}",
				"PublicSubnet2Id":        "{{network.PublicSubnet2Id}}",
				"WebSecurityGroupId":     "{{network.WebSecurityGroupId}}",
				"ExternalTargetGroupArn": "{{loadbalancers.ExternalTargetGroupArn}}",
				"InternalAlbDnsName":     "{{loadbalancers.InternalAlbDnsName}}",
				"KeyName":                in.KeyPair,
			},
		},
	}

	for i := range specs {
		over, ok := in.Overrides[specs[i].Tier]
		if !ok {
			continue
		}
		if specs[i].Params == nil {
			specs[i].Params = make(map[string]string, len(over))
		}
		for name, val := range over {
			specs[i].Params[name] = val
		}
	}

	return New(specs)
}
