package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/threetierhq/ttapp/cmd/internal/cfnclient"
	"github.com/threetierhq/ttapp/cmd/internal/deployer"
	"github.com/threetierhq/ttapp/cmd/internal/envcfg"
	"github.com/threetierhq/ttapp/cmd/internal/pipeline"
	"github.com/threetierhq/ttapp/cmd/internal/wscfg"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// runtime carries the resolved configuration into the kong commands.
type runtime struct {
	Config   *wscfg.Config
	Settings envcfg.Settings

	verbose bool
	log     *zap.Logger
}

func (rt *runtime) logger() *zap.Logger {
	if rt.log != nil {
		return rt.log
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	if rt.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	rt.log = zap.Must(cfg.Build())
	return rt.log
}

func (rt *runtime) cdkConfig() ttcdkutil.Config {
	return ttcdkutil.DefaultConfig(rt.Settings.Qualifier)
}

func (rt *runtime) pipeline() (*pipeline.Pipeline, error) {
	return pipeline.Default(pipeline.Inputs{
		KeyPair:    rt.Settings.KeyPair,
		DbName:     rt.Settings.DbName,
		DbUser:     rt.Settings.DbUser,
		DbPassword: rt.Settings.DbPassword,
		Overrides:  rt.Config.Overrides,
	})
}

func (rt *runtime) awsConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(rt.Settings.Region),
	}
	if rt.Settings.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(rt.Settings.Profile))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func (rt *runtime) stackClient(ctx context.Context) (*cfnclient.Client, error) {
	awscfg, err := rt.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return cfnclient.New(awscfg, cfnclient.Options{
		Region:        rt.Settings.Region,
		StagingBucket: rt.Settings.StagingBucket,
	}), nil
}

func (rt *runtime) deployer(ctx context.Context) (*deployer.Deployer, error) {
	client, err := rt.stackClient(ctx)
	if err != nil {
		return nil, err
	}
	pipe, err := rt.pipeline()
	if err != nil {
		return nil, err
	}
	return deployer.New(client, pipe, rt.Settings.Qualifier, rt.logger()), nil
}

func (rt *runtime) stackName(tier string) string {
	return ttcdkutil.StackName(rt.Settings.Qualifier, tier)
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stdout, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
