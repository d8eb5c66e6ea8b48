package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/threetierhq/ttapp/cmd/internal/envcfg"
	"github.com/threetierhq/ttapp/cmd/internal/version"
	"github.com/threetierhq/ttapp/cmd/internal/wscfg"
)

type App struct {
	Version kong.VersionFlag `help:"Show version."`
	Verbose bool             `short:"v" help:"Enable debug logging."`

	Synth    SynthCmd    `cmd:"" help:"Synthesize the tier templates to disk."`
	Validate ValidateCmd `cmd:"" help:"Check templates and the cross-stack parameter wiring."`
	Plan     PlanCmd     `cmd:"" help:"Show whether each stack would be created or updated."`
	Deploy   DeployCmd   `cmd:"" help:"Deploy all tier stacks in dependency order."`
	Outputs  OutputsCmd  `cmd:"" help:"Show live stack outputs."`
	Destroy  DestroyCmd  `cmd:"" help:"Delete all tier stacks in reverse dependency order."`
	Doctor   DoctorCmd   `cmd:"" help:"Check the local setup and AWS access."`
	Lock     struct {
		Status  LockStatusCmd  `cmd:"" help:"Show who holds the deploy lock."`
		Release LockReleaseCmd `cmd:"" help:"Release a stale deploy lock."`
	} `cmd:"" help:"Deploy lock commands."`
}

func main() {
	cfg, err := wscfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	environ, err := envcfg.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rt := &runtime{
		Config:   cfg,
		Settings: environ.Apply(cfg),
	}

	var app App
	ctx := kong.Parse(&app,
		kong.Name("tt"),
		kong.Description("Three-tier web architecture deployment CLI."),
		kong.Vars{"version": version.Version},
		kong.Bind(rt),
	)

	rt.verbose = app.Verbose

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
