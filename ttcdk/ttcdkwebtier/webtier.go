// Package ttcdkwebtier defines the web tier stack: an auto scaling group of
// nginx instances in the public subnets, registered with the external ALB's
// target group and proxying every request to the internal ALB.
package ttcdkwebtier

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsautoscaling"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Props configures the web tier stack.
type Props struct {
	// InstanceType for the web instances.
	InstanceType string
	// MinSize and MaxSize bound the auto scaling group.
	MinSize, MaxSize int
	// Qualifier is used for the instance Name tag.
	Qualifier string
}

// WebTier provides access to the web tier resources.
type WebTier interface {
	// Asg returns the web auto scaling group.
	Asg() awsautoscaling.CfnAutoScalingGroup
}

type webTier struct {
	asg awsautoscaling.CfnAutoScalingGroup
}

// New builds the web tier on the given stack.
func New(stack awscdk.Stack, props Props) WebTier {
	con := &webTier{}

	publicSubnet1 := ttcdkutil.TypedParameter(stack, "PublicSubnet1Id", "AWS::EC2::Subnet::Id", "First public subnet")
	publicSubnet2 := ttcdkutil.TypedParameter(stack, "PublicSubnet2Id", "AWS::EC2::Subnet::Id", "Second public subnet")
	webSg := ttcdkutil.TypedParameter(stack, "WebSecurityGroupId", "AWS::EC2::SecurityGroup::Id", "Security group for web tier instances")
	externalTg := ttcdkutil.StringParameter(stack, "ExternalTargetGroupArn", "Target group of the external ALB")
	keyName := ttcdkutil.TypedParameter(stack, "KeyName", "AWS::EC2::KeyPair::KeyName", "EC2 key pair for SSH access")
	internalDNS := ttcdkutil.StringParameter(stack, "InternalAlbDnsName", "DNS name of the internal ALB")
	ami := ttcdkutil.AmiParameter(stack)

	con.asg = ttcdkutil.TierAsg(stack, "WebAsg", ttcdkutil.AsgProps{
		Name:            ttcdkutil.ResourceName(props.Qualifier, "web", ttcdkutil.CasingKebab),
		Subnets:         []*string{publicSubnet1.ValueAsString(), publicSubnet2.ValueAsString()},
		SecurityGroupID: webSg.ValueAsString(),
		TargetGroupArn:  externalTg.ValueAsString(),
		KeyName:         keyName.ValueAsString(),
		ImageID:         ami.ValueAsString(),
		InstanceType:    props.InstanceType,
		UserData:        proxyUserData(*internalDNS.ValueAsString()),
		MinSize:         props.MinSize,
		MaxSize:         props.MaxSize,
	})

	ttcdkutil.Output(stack, "WebAsgName", con.asg.Ref(), "Auto scaling group of the web tier")

	return con
}

func (w *webTier) Asg() awsautoscaling.CfnAutoScalingGroup {
	return w.asg
}

// proxyUserData installs nginx as a reverse proxy to the internal ALB. The
// packaged nginx.conf already carries a default_server on port 80, and a
// second one is a fatal config error, so the whole file is replaced with a
// minimal proxy configuration.
func proxyUserData(internalDNS string) string {
	return fmt.Sprintf(`#!/bin/bash
set -euo pipefail
dnf -y install nginx
cat > /etc/nginx/nginx.conf <<EOF
user nginx;
worker_processes auto;
error_log /var/log/nginx/error.log notice;
pid /run/nginx.pid;

events {
    worker_connections 1024;
}

http {
    include /etc/nginx/mime.types;
    default_type application/octet-stream;
    access_log /var/log/nginx/access.log;

    server {
        listen 80 default_server;
        location / {
            proxy_pass http://%s;
            proxy_set_header Host \$host;
            proxy_set_header X-Forwarded-For \$proxy_add_x_forwarded_for;
        }
    }
}
EOF
nginx -t
systemctl enable --now nginx
`, internalDNS)
}
