package main

import (
	"fmt"
	"os"

	"github.com/aws/jsii-runtime-go"

	"github.com/threetierhq/ttapp/infra/cdk"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

const defaultQualifier = "ttapp"

func main() {
	defer jsii.Close()

	qualifier := os.Getenv("TT_QUALIFIER")
	if qualifier == "" {
		qualifier = defaultQualifier
	}

	cfg := ttcdkutil.DefaultConfig(qualifier)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := ttcdkutil.NewTierApp()
	cdk.BuildTiers(app, cfg)
	app.Synth(nil)
}
