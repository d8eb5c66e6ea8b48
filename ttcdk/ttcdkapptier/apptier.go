// Package ttcdkapptier defines the application tier stack: an auto scaling
// group of backend instances in the private app subnets, registered with the
// internal ALB's target group. The instances run the demo backend, which
// answers on port 80 and reports whether it can reach the database.
package ttcdkapptier

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsautoscaling"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Props configures the app tier stack.
type Props struct {
	// InstanceType for the backend instances.
	InstanceType string
	// MinSize and MaxSize bound the auto scaling group.
	MinSize, MaxSize int
	// Qualifier is used for the instance Name tag.
	Qualifier string
}

// AppTier provides access to the application tier resources.
type AppTier interface {
	// Asg returns the backend auto scaling group.
	Asg() awsautoscaling.CfnAutoScalingGroup
}

type appTier struct {
	asg awsautoscaling.CfnAutoScalingGroup
}

// New builds the app tier on the given stack.
func New(stack awscdk.Stack, props Props) AppTier {
	con := &appTier{}

	appSubnet1 := ttcdkutil.TypedParameter(stack, "AppSubnet1Id", "AWS::EC2::Subnet::Id", "First private app subnet")
	appSubnet2 := ttcdkutil.TypedParameter(stack, "AppSubnet2Id", "AWS::EC2::Subnet::Id", "Second private app subnet")
	appSg := ttcdkutil.TypedParameter(stack, "AppSecurityGroupId", "AWS::EC2::SecurityGroup::Id", "Security group for app tier instances")
	internalTg := ttcdkutil.StringParameter(stack, "InternalTargetGroupArn", "Target group of the internal ALB")
	keyName := ttcdkutil.TypedParameter(stack, "KeyName", "AWS::EC2::KeyPair::KeyName", "EC2 key pair for SSH access")
	dbEndpoint := ttcdkutil.StringParameter(stack, "DbEndpointAddress", "Hostname of the MySQL endpoint")
	ami := ttcdkutil.AmiParameter(stack)

	con.asg = ttcdkutil.TierAsg(stack, "AppAsg", ttcdkutil.AsgProps{
		Name:            ttcdkutil.ResourceName(props.Qualifier, "app", ttcdkutil.CasingKebab),
		Subnets:         []*string{appSubnet1.ValueAsString(), appSubnet2.ValueAsString()},
		SecurityGroupID: appSg.ValueAsString(),
		TargetGroupArn:  internalTg.ValueAsString(),
		KeyName:         keyName.ValueAsString(),
		ImageID:         ami.ValueAsString(),
		InstanceType:    props.InstanceType,
		UserData:        backendUserData(*dbEndpoint.ValueAsString()),
		MinSize:         props.MinSize,
		MaxSize:         props.MaxSize,
	})

	ttcdkutil.Output(stack, "AppAsgName", con.asg.Ref(), "Auto scaling group of the app tier")

	return con
}

func (a *appTier) Asg() awsautoscaling.CfnAutoScalingGroup {
	return a.asg
}

// backendUserData boots the demo backend. The DB endpoint lands in the
// instance environment; the handler reports whether a TCP connection to it
// succeeds so the health check also exercises the database path.
func backendUserData(dbEndpoint string) string {
	return fmt.Sprintf(`#!/bin/bash
set -euo pipefail
dnf -y install python3
cat > /opt/backend.py <<'EOF'
import http.server
import os
import socket


class Handler(http.server.BaseHTTPRequestHandler):
    def do_GET(self):
        body = "Backend is working!"
        host = os.environ.get("RDS_HOST", "")
        if host:
            try:
                socket.create_connection((host, 3306), timeout=2).close()
                body += " Database reachable."
            except OSError as exc:
                body += " Database unreachable: %%s." %% exc
        data = body.encode()
        self.send_response(200)
        self.send_header("Content-Type", "text/plain")
        self.send_header("Content-Length", str(len(data)))
        self.end_headers()
        self.wfile.write(data)


http.server.HTTPServer(("", 80), Handler).serve_forever()
EOF
cat > /etc/systemd/system/backend.service <<EOF
[Unit]
Description=Demo backend
After=network.target

[Service]
Environment=RDS_HOST=%s
ExecStart=/usr/bin/python3 /opt/backend.py
Restart=always

[Install]
WantedBy=multi-user.target
EOF
systemctl daemon-reload
systemctl enable --now backend
`, dbEndpoint)
}
