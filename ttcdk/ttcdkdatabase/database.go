// Package ttcdkdatabase defines the database tier stack: a DB subnet group
// spanning the two private DB subnets and a single MySQL RDS instance.
//
// The stack consumes the network tier's subnet and security group IDs as
// plain template parameters, so it deploys against any network stack that
// exports those values by name.
package ttcdkdatabase

import (
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsrds"
	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Props configures the database stack.
type Props struct {
	// DbInstanceClass is the RDS instance class (e.g. "db.t3.micro").
	DbInstanceClass string
	// AllocatedStorageGb is the initial storage allocation.
	AllocatedStorageGb int
	// Qualifier is used to name the subnet group.
	Qualifier string
}

// Database provides access to the database tier resources.
type Database interface {
	// Instance returns the underlying RDS instance.
	Instance() awsrds.CfnDBInstance
}

type database struct {
	instance awsrds.CfnDBInstance
}

// New builds the database tier on the given stack. Credentials arrive as
// NoEcho parameters; the password never appears in the template or in
// describe-stacks responses.
func New(stack awscdk.Stack, props Props) Database {
	con := &database{}

	dbSubnet1 := ttcdkutil.TypedParameter(stack, "DbSubnet1Id", "AWS::EC2::Subnet::Id", "First private DB subnet")
	dbSubnet2 := ttcdkutil.TypedParameter(stack, "DbSubnet2Id", "AWS::EC2::Subnet::Id", "Second private DB subnet")
	dbSg := ttcdkutil.TypedParameter(stack, "DbSecurityGroupId", "AWS::EC2::SecurityGroup::Id", "Security group for the database")
	dbName := ttcdkutil.StringParameter(stack, "DbName", "Initial database name")
	dbUser := ttcdkutil.StringParameter(stack, "DbUser", "Master username")
	dbPassword := ttcdkutil.SecretParameter(stack, "DbPassword", "Master password")

	allocated := props.AllocatedStorageGb
	if allocated == 0 {
		allocated = 20
	}
	storage := ttcdkutil.DefaultedParameter(stack, "DbAllocatedStorage", "Number",
		strconv.Itoa(allocated), "Storage allocation in GiB")

	subnetGroup := awsrds.NewCfnDBSubnetGroup(stack, jsii.String("DbSubnetGroup"), &awsrds.CfnDBSubnetGroupProps{
		DbSubnetGroupName:        jsii.String(ttcdkutil.ResourceName(props.Qualifier, "db-subnets", ttcdkutil.CasingKebab)),
		DbSubnetGroupDescription: jsii.String("Private DB subnets for the database tier"),
		SubnetIds:                &[]interface{}{dbSubnet1.ValueAsString(), dbSubnet2.ValueAsString()},
	})

	con.instance = awsrds.NewCfnDBInstance(stack, jsii.String("DbInstance"), &awsrds.CfnDBInstanceProps{
		Engine:             jsii.String("mysql"),
		DbInstanceClass:    jsii.String(props.DbInstanceClass),
		AllocatedStorage:   storage.ValueAsString(),
		StorageType:        jsii.String("gp3"),
		DbName:             dbName.ValueAsString(),
		MasterUsername:     dbUser.ValueAsString(),
		MasterUserPassword: dbPassword.ValueAsString(),
		DbSubnetGroupName:  subnetGroup.Ref(),
		VpcSecurityGroups:  &[]interface{}{dbSg.ValueAsString()},
		MultiAz:            jsii.Bool(false),
		PubliclyAccessible: jsii.Bool(false),
	})
	// Demo database: tear down cleanly with the stack instead of snapshotting.
	con.instance.CfnOptions().SetDeletionPolicy(awscdk.CfnDeletionPolicy_DELETE)
	con.instance.CfnOptions().SetUpdateReplacePolicy(awscdk.CfnDeletionPolicy_DELETE)

	ttcdkutil.Output(stack, "DbEndpointAddress", con.instance.AttrEndpointAddress(), "Hostname of the MySQL endpoint")
	ttcdkutil.Output(stack, "DbEndpointPort", con.instance.AttrEndpointPort(), "Port of the MySQL endpoint")

	return con
}

func (d *database) Instance() awsrds.CfnDBInstance {
	return d.instance
}
