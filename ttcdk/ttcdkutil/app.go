package ttcdkutil

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// NewTierApp creates the CDK app that holds the tier stacks. Version
// reporting is disabled so synthesized templates carry no CDKMetadata
// resource.
func NewTierApp() awscdk.App {
	return awscdk.NewApp(&awscdk.AppProps{
		AnalyticsReporting: jsii.Bool(false),
	})
}

// NewTierStack creates one tier stack named "{qualifier}-{tier}". The stack
// is environment-agnostic: availability zones are resolved at deploy time
// via Fn::GetAZs, so one synthesized template works in any region.
func NewTierStack(app awscdk.App, qualifier, tier string) awscdk.Stack {
	return awscdk.NewStack(app, jsii.String(StackName(qualifier, tier)), &awscdk.StackProps{
		Description: jsii.String(fmt.Sprintf("Three-tier web architecture: %s stack (%s)", tier, qualifier)),
		Synthesizer: awscdk.NewBootstraplessSynthesizer(&awscdk.BootstraplessSynthesizerProps{}),
	})
}
