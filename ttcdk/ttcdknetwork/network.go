// Package ttcdknetwork defines the network tier stack: the VPC, its six
// subnets across two availability zones, internet and NAT gateways, route
// tables, and every security group the later tiers reference.
//
// The security groups live here, not in the tier stacks that use them, so
// that each later stack can receive them as plain parameters without
// circular references between stacks.
package ttcdknetwork

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Props configures the network stack.
type Props struct {
	// VpcCidr is carved into six equal /x blocks via Fn::Cidr: two public,
	// two private app, two private DB subnets.
	VpcCidr string
	// Qualifier is used for Name tags on the VPC resources.
	Qualifier string
}

// Network provides access to the network tier resources.
type Network interface {
	// Vpc returns the underlying VPC resource.
	Vpc() awsec2.CfnVPC
}

type network struct {
	vpc awsec2.CfnVPC
}

// New builds the network tier resources directly on the given stack and
// declares the outputs every later tier consumes.
func New(stack awscdk.Stack, props Props) Network {
	con := &network{}

	azs := awscdk.Fn_GetAzs(jsii.String(""))
	az1 := awscdk.Fn_Select(jsii.Number(0), azs)
	az2 := awscdk.Fn_Select(jsii.Number(1), azs)

	// Six /24-sized blocks out of the VPC range, in a fixed order:
	// public 1/2, app 1/2, db 1/2.
	blocks := awscdk.Fn_Cidr(jsii.String(props.VpcCidr), jsii.Number(6), jsii.String("8"))
	cidrAt := func(i int) *string {
		return awscdk.Fn_Select(jsii.Number(float64(i)), blocks)
	}

	con.vpc = awsec2.NewCfnVPC(stack, jsii.String("Vpc"), &awsec2.CfnVPCProps{
		CidrBlock:          jsii.String(props.VpcCidr),
		EnableDnsSupport:   jsii.Bool(true),
		EnableDnsHostnames: jsii.Bool(true),
		Tags:               nameTag(props.Qualifier, "vpc"),
	})

	igw := awsec2.NewCfnInternetGateway(stack, jsii.String("InternetGateway"), &awsec2.CfnInternetGatewayProps{
		Tags: nameTag(props.Qualifier, "igw"),
	})
	attachment := awsec2.NewCfnVPCGatewayAttachment(stack, jsii.String("VpcGatewayAttachment"), &awsec2.CfnVPCGatewayAttachmentProps{
		VpcId:             con.vpc.Ref(),
		InternetGatewayId: igw.Ref(),
	})

	publicSubnet1 := subnet(stack, "PublicSubnet1", con.vpc, cidrAt(0), az1, true, props.Qualifier)
	publicSubnet2 := subnet(stack, "PublicSubnet2", con.vpc, cidrAt(1), az2, true, props.Qualifier)
	appSubnet1 := subnet(stack, "AppSubnet1", con.vpc, cidrAt(2), az1, false, props.Qualifier)
	appSubnet2 := subnet(stack, "AppSubnet2", con.vpc, cidrAt(3), az2, false, props.Qualifier)
	dbSubnet1 := subnet(stack, "DbSubnet1", con.vpc, cidrAt(4), az1, false, props.Qualifier)
	dbSubnet2 := subnet(stack, "DbSubnet2", con.vpc, cidrAt(5), az2, false, props.Qualifier)

	publicRt := awsec2.NewCfnRouteTable(stack, jsii.String("PublicRouteTable"), &awsec2.CfnRouteTableProps{
		VpcId: con.vpc.Ref(),
		Tags:  nameTag(props.Qualifier, "public-rt"),
	})
	publicDefault := awsec2.NewCfnRoute(stack, jsii.String("PublicDefaultRoute"), &awsec2.CfnRouteProps{
		RouteTableId:         publicRt.Ref(),
		DestinationCidrBlock: jsii.String("0.0.0.0/0"),
		GatewayId:            igw.Ref(),
	})
	publicDefault.AddDependency(attachment)
	associate(stack, "PublicSubnet1RouteAssoc", publicSubnet1, publicRt)
	associate(stack, "PublicSubnet2RouteAssoc", publicSubnet2, publicRt)

	natEip := awsec2.NewCfnEIP(stack, jsii.String("NatEip"), &awsec2.CfnEIPProps{
		Domain: jsii.String("vpc"),
	})
	nat := awsec2.NewCfnNatGateway(stack, jsii.String("NatGateway"), &awsec2.CfnNatGatewayProps{
		AllocationId: natEip.AttrAllocationId(),
		SubnetId:     publicSubnet1.Ref(),
		Tags:         nameTag(props.Qualifier, "nat"),
	})

	privateRt := awsec2.NewCfnRouteTable(stack, jsii.String("PrivateRouteTable"), &awsec2.CfnRouteTableProps{
		VpcId: con.vpc.Ref(),
		Tags:  nameTag(props.Qualifier, "private-rt"),
	})
	awsec2.NewCfnRoute(stack, jsii.String("PrivateDefaultRoute"), &awsec2.CfnRouteProps{
		RouteTableId:         privateRt.Ref(),
		DestinationCidrBlock: jsii.String("0.0.0.0/0"),
		NatGatewayId:         nat.Ref(),
	})
	associate(stack, "AppSubnet1RouteAssoc", appSubnet1, privateRt)
	associate(stack, "AppSubnet2RouteAssoc", appSubnet2, privateRt)
	associate(stack, "DbSubnet1RouteAssoc", dbSubnet1, privateRt)
	associate(stack, "DbSubnet2RouteAssoc", dbSubnet2, privateRt)

	extAlbSg := awsec2.NewCfnSecurityGroup(stack, jsii.String("ExternalAlbSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.String("External ALB: HTTP from the internet"),
		VpcId:            con.vpc.Ref(),
		SecurityGroupIngress: []any{
			httpFromCidr("0.0.0.0/0"),
		},
	})
	webSg := awsec2.NewCfnSecurityGroup(stack, jsii.String("WebSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.String("Web tier: HTTP from the external ALB, SSH from inside the VPC"),
		VpcId:            con.vpc.Ref(),
		SecurityGroupIngress: []any{
			httpFromSg(extAlbSg),
			sshFromCidr(props.VpcCidr),
		},
	})
	intAlbSg := awsec2.NewCfnSecurityGroup(stack, jsii.String("InternalAlbSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.String("Internal ALB: HTTP from the web tier"),
		VpcId:            con.vpc.Ref(),
		SecurityGroupIngress: []any{
			httpFromSg(webSg),
		},
	})
	appSg := awsec2.NewCfnSecurityGroup(stack, jsii.String("AppSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.String("App tier: HTTP from the internal ALB, SSH from inside the VPC"),
		VpcId:            con.vpc.Ref(),
		SecurityGroupIngress: []any{
			httpFromSg(intAlbSg),
			sshFromCidr(props.VpcCidr),
		},
	})
	dbSg := awsec2.NewCfnSecurityGroup(stack, jsii.String("DbSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.String("Database tier: MySQL from the app tier"),
		VpcId:            con.vpc.Ref(),
		SecurityGroupIngress: []any{
			&awsec2.CfnSecurityGroup_IngressProperty{
				IpProtocol:            jsii.String("tcp"),
				FromPort:              jsii.Number(3306),
				ToPort:                jsii.Number(3306),
				SourceSecurityGroupId: appSg.AttrGroupId(),
			},
		},
	})

	out := func(key string, value *string, description string) {
		ttcdkutil.Output(stack, key, value, description)
	}
	out("VpcId", con.vpc.Ref(), "VPC ID consumed by every later tier")
	out("PublicSubnet1Id", publicSubnet1.Ref(), "First public subnet")
	out("PublicSubnet2Id", publicSubnet2.Ref(), "Second public subnet")
	out("AppSubnet1Id", appSubnet1.Ref(), "First private app subnet")
	out("AppSubnet2Id", appSubnet2.Ref(), "Second private app subnet")
	out("DbSubnet1Id", dbSubnet1.Ref(), "First private DB subnet")
	out("DbSubnet2Id", dbSubnet2.Ref(), "Second private DB subnet")
	out("ExternalAlbSecurityGroupId", extAlbSg.AttrGroupId(), "Security group for the external ALB")
	out("InternalAlbSecurityGroupId", intAlbSg.AttrGroupId(), "Security group for the internal ALB")
	out("WebSecurityGroupId", webSg.AttrGroupId(), "Security group for web tier instances")
	out("AppSecurityGroupId", appSg.AttrGroupId(), "Security group for app tier instances")
	out("DbSecurityGroupId", dbSg.AttrGroupId(), "Security group for the database")

	return con
}

func (n *network) Vpc() awsec2.CfnVPC {
	return n.vpc
}

func subnet(
	stack awscdk.Stack, id string, vpc awsec2.CfnVPC, cidr, az *string, public bool, qualifier string,
) awsec2.CfnSubnet {
	return awsec2.NewCfnSubnet(stack, jsii.String(id), &awsec2.CfnSubnetProps{
		VpcId:               vpc.Ref(),
		CidrBlock:           cidr,
		AvailabilityZone:    az,
		MapPublicIpOnLaunch: jsii.Bool(public),
		Tags:                nameTag(qualifier, id),
	})
}

func associate(stack awscdk.Stack, id string, sn awsec2.CfnSubnet, rt awsec2.CfnRouteTable) {
	awsec2.NewCfnSubnetRouteTableAssociation(stack, jsii.String(id), &awsec2.CfnSubnetRouteTableAssociationProps{
		SubnetId:     sn.Ref(),
		RouteTableId: rt.Ref(),
	})
}

func httpFromCidr(cidr string) *awsec2.CfnSecurityGroup_IngressProperty {
	return &awsec2.CfnSecurityGroup_IngressProperty{
		IpProtocol: jsii.String("tcp"),
		FromPort:   jsii.Number(80),
		ToPort:     jsii.Number(80),
		CidrIp:     jsii.String(cidr),
	}
}

func httpFromSg(sg awsec2.CfnSecurityGroup) *awsec2.CfnSecurityGroup_IngressProperty {
	return &awsec2.CfnSecurityGroup_IngressProperty{
		IpProtocol:            jsii.String("tcp"),
		FromPort:              jsii.Number(80),
		ToPort:                jsii.Number(80),
		SourceSecurityGroupId: sg.AttrGroupId(),
	}
}

func sshFromCidr(cidr string) *awsec2.CfnSecurityGroup_IngressProperty {
	return &awsec2.CfnSecurityGroup_IngressProperty{
		IpProtocol: jsii.String("tcp"),
		FromPort:   jsii.Number(22),
		ToPort:     jsii.Number(22),
		CidrIp:     jsii.String(cidr),
	}
}

func nameTag(qualifier, label string) *[]*awscdk.CfnTag {
	return &[]*awscdk.CfnTag{{
		Key:   jsii.String("Name"),
		Value: jsii.String(ttcdkutil.ResourceName(qualifier, label, ttcdkutil.CasingKebab)),
	}}
}
