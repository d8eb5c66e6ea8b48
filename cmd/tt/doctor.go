package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/cmd/internal/bincheck"
)

type DoctorCmd struct{}

func (c *DoctorCmd) Run(rt *runtime) error {
	ctx := context.Background()
	var failed bool

	fmt.Fprintln(os.Stdout, "=== local setup ===")

	// tt.toml already parsed and validated, or we would not be running.
	fmt.Fprintf(os.Stdout, "  ✓ tt.toml (%s)\n", rt.Config.Root)

	node := bincheck.Check(ctx, "node")
	switch {
	case node.MiseManaged:
		fmt.Fprintln(os.Stdout, "  ✓ node (mise)")
	case node.InPath:
		fmt.Fprintf(os.Stdout, "  ✓ node (%s)\n", node.Path)
	default:
		fmt.Fprintln(os.Stdout, "  ✗ node not found (required by the CDK synthesizer)")
		failed = true
	}

	fmt.Fprintln(os.Stdout, "=== aws access ===")

	awscfg, err := rt.awsConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ AWS configuration: %v\n", err)
		return errors.New("doctor found problems; see above")
	}
	if _, err := awscfg.Credentials.Retrieve(ctx); err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ AWS credentials: %v\n", err)
		failed = true
	} else {
		fmt.Fprintf(os.Stdout, "  ✓ AWS credentials (region %s)\n", rt.Settings.Region)
	}

	if rt.Settings.KeyPair == "" {
		fmt.Fprintln(os.Stdout, "  - TT_KEY_PAIR not set; key pair check skipped")
	} else if !failed {
		failed = c.checkKeyPair(ctx, awscfg, rt.Settings.KeyPair) || failed
	}

	if failed {
		return errors.New("doctor found problems; see above")
	}
	fmt.Fprintln(os.Stdout, "All checks passed.")
	return nil
}

func (c *DoctorCmd) checkKeyPair(ctx context.Context, awscfg aws.Config, keyPair string) bool {
	client := ec2.NewFromConfig(awscfg)
	_, err := client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{keyPair},
	})
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ EC2 key pair %q: %v\n", keyPair, err)
		return true
	}
	fmt.Fprintf(os.Stdout, "  ✓ EC2 key pair %q\n", keyPair)
	return false
}
