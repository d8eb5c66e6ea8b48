// Package ttcdkloadbalancer defines the load balancing stack: an
// internet-facing ALB in the public subnets fronting the web tier, and an
// internal ALB in the private app subnets fronting the app tier. Each ALB
// gets an instance target group and a plain HTTP listener.
package ttcdkloadbalancer

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Props configures the load balancer stack.
type Props struct {
	// Qualifier is used for load balancer names, which must be unique per
	// region.
	Qualifier string
}

// LoadBalancers provides access to the two ALBs.
type LoadBalancers interface {
	// External returns the internet-facing ALB.
	External() elbv2.CfnLoadBalancer
	// Internal returns the internal ALB.
	Internal() elbv2.CfnLoadBalancer
}

type loadBalancers struct {
	external elbv2.CfnLoadBalancer
	internal elbv2.CfnLoadBalancer
}

// New builds both ALBs, their target groups, and listeners on the given
// stack.
func New(stack awscdk.Stack, props Props) LoadBalancers {
	con := &loadBalancers{}

	vpcID := ttcdkutil.TypedParameter(stack, "VpcId", "AWS::EC2::VPC::Id", "VPC for both target groups")
	publicSubnet1 := ttcdkutil.TypedParameter(stack, "PublicSubnet1Id", "AWS::EC2::Subnet::Id", "First public subnet")
	publicSubnet2 := ttcdkutil.TypedParameter(stack, "PublicSubnet2Id", "AWS::EC2::Subnet::Id", "Second public subnet")
	appSubnet1 := ttcdkutil.TypedParameter(stack, "AppSubnet1Id", "AWS::EC2::Subnet::Id", "First private app subnet")
	appSubnet2 := ttcdkutil.TypedParameter(stack, "AppSubnet2Id", "AWS::EC2::Subnet::Id", "Second private app subnet")
	extAlbSg := ttcdkutil.TypedParameter(stack, "ExternalAlbSecurityGroupId", "AWS::EC2::SecurityGroup::Id", "Security group for the external ALB")
	intAlbSg := ttcdkutil.TypedParameter(stack, "InternalAlbSecurityGroupId", "AWS::EC2::SecurityGroup::Id", "Security group for the internal ALB")

	con.external = awsLoadBalancer(stack, "ExternalAlb", albSpec{
		name:    ttcdkutil.ResourceName(props.Qualifier, "ext-alb", ttcdkutil.CasingKebab),
		scheme:  "internet-facing",
		subnets: []*string{publicSubnet1.ValueAsString(), publicSubnet2.ValueAsString()},
		sg:      extAlbSg.ValueAsString(),
	})
	con.internal = awsLoadBalancer(stack, "InternalAlb", albSpec{
		name:    ttcdkutil.ResourceName(props.Qualifier, "int-alb", ttcdkutil.CasingKebab),
		scheme:  "internal",
		subnets: []*string{appSubnet1.ValueAsString(), appSubnet2.ValueAsString()},
		sg:      intAlbSg.ValueAsString(),
	})

	externalTg := targetGroup(stack, "ExternalTargetGroup", vpcID.ValueAsString(), "/")
	internalTg := targetGroup(stack, "InternalTargetGroup", vpcID.ValueAsString(), "/")

	listener(stack, "ExternalListener", con.external, externalTg)
	listener(stack, "InternalListener", con.internal, internalTg)

	ttcdkutil.Output(stack, "ExternalAlbDnsName", con.external.AttrDnsName(), "Public DNS name of the external ALB")
	ttcdkutil.Output(stack, "InternalAlbDnsName", con.internal.AttrDnsName(), "DNS name of the internal ALB")
	ttcdkutil.Output(stack, "ExternalTargetGroupArn", externalTg.Ref(), "Target group the web tier registers with")
	ttcdkutil.Output(stack, "InternalTargetGroupArn", internalTg.Ref(), "Target group the app tier registers with")

	return con
}

func (l *loadBalancers) External() elbv2.CfnLoadBalancer {
	return l.external
}

func (l *loadBalancers) Internal() elbv2.CfnLoadBalancer {
	return l.internal
}

func subnetsAsAny(subnets []*string) *[]interface{} {
	out := make([]interface{}, len(subnets))
	for i, s := range subnets {
		out[i] = s
	}
	return &out
}

type albSpec struct {
	name    string
	scheme  string
	subnets []*string
	sg      *string
}

func awsLoadBalancer(stack awscdk.Stack, id string, spec albSpec) elbv2.CfnLoadBalancer {
	return elbv2.NewCfnLoadBalancer(stack, jsii.String(id), &elbv2.CfnLoadBalancerProps{
		Name:           jsii.String(spec.name),
		Type:           jsii.String("application"),
		Scheme:         jsii.String(spec.scheme),
		Subnets:        subnetsAsAny(spec.subnets),
		SecurityGroups: &[]interface{}{spec.sg},
	})
}

func targetGroup(stack awscdk.Stack, id string, vpcID *string, healthPath string) elbv2.CfnTargetGroup {
	return elbv2.NewCfnTargetGroup(stack, jsii.String(id), &elbv2.CfnTargetGroupProps{
		VpcId:      vpcID,
		Port:       jsii.Number(80),
		Protocol:   jsii.String("HTTP"),
		TargetType: jsii.String("instance"),

		HealthCheckPath:            jsii.String(healthPath),
		HealthCheckIntervalSeconds: jsii.Number(30),
		HealthyThresholdCount:      jsii.Number(2),
		UnhealthyThresholdCount:    jsii.Number(3),
	})
}

func listener(stack awscdk.Stack, id string, lb elbv2.CfnLoadBalancer, tg elbv2.CfnTargetGroup) {
	elbv2.NewCfnListener(stack, jsii.String(id), &elbv2.CfnListenerProps{
		LoadBalancerArn: lb.Ref(),
		Port:            jsii.Number(80),
		Protocol:        jsii.String("HTTP"),
		DefaultActions: []any{
			&elbv2.CfnListener_ActionProperty{
				Type:           jsii.String("forward"),
				TargetGroupArn: tg.Ref(),
			},
		},
	})
}
