package ttcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// Tier parameters and outputs are always attached directly to the stack
// scope so their logical IDs stay exactly the names the deploy engine wires
// between stacks. Nesting them in a child construct would mangle the IDs.

// StringParameter declares a String template parameter on the stack.
func StringParameter(stack awscdk.Stack, name, description string) awscdk.CfnParameter {
	return awscdk.NewCfnParameter(stack, jsii.String(name), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String(description),
	})
}

// SecretParameter declares a NoEcho String parameter on the stack.
func SecretParameter(stack awscdk.Stack, name, description string) awscdk.CfnParameter {
	return awscdk.NewCfnParameter(stack, jsii.String(name), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String(description),
		NoEcho:      jsii.Bool(true),
	})
}

// TypedParameter declares a parameter with an AWS-specific type such as
// "AWS::EC2::VPC::Id" or "AWS::EC2::KeyPair::KeyName".
func TypedParameter(stack awscdk.Stack, name, paramType, description string) awscdk.CfnParameter {
	return awscdk.NewCfnParameter(stack, jsii.String(name), &awscdk.CfnParameterProps{
		Type:        jsii.String(paramType),
		Description: jsii.String(description),
	})
}

// DefaultedParameter declares a parameter that is optional at deploy time.
func DefaultedParameter(stack awscdk.Stack, name, paramType, defaultValue, description string) awscdk.CfnParameter {
	return awscdk.NewCfnParameter(stack, jsii.String(name), &awscdk.CfnParameterProps{
		Type:        jsii.String(paramType),
		Default:     jsii.String(defaultValue),
		Description: jsii.String(description),
	})
}

// AmiParameter declares the SSM-resolved AMI ID parameter the compute tiers
// share. The default resolves to the latest Amazon Linux 2023 AMI at deploy
// time.
func AmiParameter(stack awscdk.Stack) awscdk.CfnParameter {
	return awscdk.NewCfnParameter(stack, jsii.String("LatestAmiId"), &awscdk.CfnParameterProps{
		Type:        jsii.String("AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>"),
		Default:     jsii.String("/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-x86_64"),
		Description: jsii.String("AMI for tier instances, resolved from SSM at deploy time."),
	})
}

// Output declares a stack output under exactly the given key.
func Output(stack awscdk.Stack, key string, value *string, description string) {
	awscdk.NewCfnOutput(stack, jsii.String(key+"Output"), &awscdk.CfnOutputProps{
		Key:         jsii.String(key),
		Value:       value,
		Description: jsii.String(description),
	})
}
