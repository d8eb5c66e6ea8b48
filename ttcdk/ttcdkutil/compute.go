package ttcdkutil

import (
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsautoscaling"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"
)

// AsgProps configures one compute tier: a launch template plus an auto
// scaling group registered with an ALB target group.
type AsgProps struct {
	// Name tags the instances (propagated at launch).
	Name string
	// Subnets the group spans.
	Subnets []*string
	// SecurityGroupID for the instances.
	SecurityGroupID *string
	// TargetGroupArn the group registers with.
	TargetGroupArn *string
	// KeyName is the EC2 key pair for SSH access.
	KeyName *string
	// ImageID is the AMI, usually an SSM-resolved parameter value.
	ImageID *string
	// InstanceType for all instances.
	InstanceType string
	// UserData is the raw cloud-init script; it is Base64-encoded in the
	// template and may contain deploy-time tokens.
	UserData string
	// MinSize and MaxSize bound the group.
	MinSize, MaxSize int
}

// TierAsg builds the launch template and auto scaling group for a compute
// tier. Health checks run against the ALB target group so instances that
// fail the listener health check get replaced.
func TierAsg(stack awscdk.Stack, id string, props AsgProps) awsautoscaling.CfnAutoScalingGroup {
	lt := awsec2.NewCfnLaunchTemplate(stack, jsii.String(id+"LaunchTemplate"), &awsec2.CfnLaunchTemplateProps{
		LaunchTemplateData: &awsec2.CfnLaunchTemplate_LaunchTemplateDataProperty{
			ImageId:          props.ImageID,
			InstanceType:     jsii.String(props.InstanceType),
			KeyName:          props.KeyName,
			SecurityGroupIds: &[]*string{props.SecurityGroupID},
			UserData:         awscdk.Fn_Base64(jsii.String(props.UserData)),
		},
	})

	subnets := make([]interface{}, len(props.Subnets))
	for i, s := range props.Subnets {
		subnets[i] = s
	}
	return awsautoscaling.NewCfnAutoScalingGroup(stack, jsii.String(id), &awsautoscaling.CfnAutoScalingGroupProps{
		MinSize:           jsii.String(strconv.Itoa(props.MinSize)),
		MaxSize:           jsii.String(strconv.Itoa(props.MaxSize)),
		VpcZoneIdentifier: &subnets,
		TargetGroupArns:   &[]interface{}{props.TargetGroupArn},
		LaunchTemplate: &awsautoscaling.CfnAutoScalingGroup_LaunchTemplateSpecificationProperty{
			LaunchTemplateId: lt.Ref(),
			Version:          lt.AttrLatestVersionNumber(),
		},
		HealthCheckType:        jsii.String("ELB"),
		HealthCheckGracePeriod: jsii.Number(300),
		Tags: &[]*awsautoscaling.CfnAutoScalingGroup_TagPropertyProperty{{
			Key:               jsii.String("Name"),
			Value:             jsii.String(props.Name),
			PropagateAtLaunch: jsii.Bool(true),
		}},
	})
}
