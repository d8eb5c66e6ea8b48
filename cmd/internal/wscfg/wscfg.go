// Package wscfg loads the workspace configuration file tt.toml. The file is
// found by walking up from the working directory, so tt can run from any
// subdirectory of the repository.
package wscfg

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/infra/cdk"
)

const configFile = "tt.toml"

// qualifierRe keeps qualifiers safe for CloudFormation stack names and
// resource name prefixes.
var qualifierRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

type Config struct {
	Root   string       `toml:"-"`
	Deploy DeployConfig `toml:"deploy"`
	// Overrides holds extra template parameters per tier, merged over the
	// built-in wiring at deploy time.
	Overrides map[string]map[string]string `toml:"overrides"`
}

type DeployConfig struct {
	Qualifier string `toml:"qualifier"`
	// Region is the default target region; TT_REGION overrides it.
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
	// StagingBucket receives synthesized templates above the inline
	// CloudFormation size limit. Optional.
	StagingBucket string `toml:"staging-bucket"`
	// LockTable names the DynamoDB table used for the deploy lock. Empty
	// disables locking.
	LockTable string `toml:"lock-table"`
}

// Load locates and parses tt.toml.
func Load() (*Config, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom parses tt.toml in the given directory.
func LoadFrom(root string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(filepath.Join(root, configFile), &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", configFile)
	}

	cfg.Root = root

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", configFile)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Deploy.Qualifier == "" {
		return errors.New("deploy.qualifier is required")
	}
	if !qualifierRe.MatchString(c.Deploy.Qualifier) {
		return errors.Newf(
			"deploy.qualifier must be lowercase alphanumeric with dashes, got %q", c.Deploy.Qualifier)
	}

	known := make(map[string]struct{})
	for _, tier := range cdk.Tiers() {
		known[tier] = struct{}{}
	}
	for tier, params := range c.Overrides {
		if _, ok := known[tier]; !ok {
			return errors.Newf("overrides.%s: unknown tier", tier)
		}
		for name, val := range params {
			if name == "" || val == "" {
				return errors.Newf("overrides.%s: parameter names and values must be non-empty", tier)
			}
		}
	}
	return nil
}

func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, configFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("could not find %s in any parent directory", configFile)
		}
		dir = parent
	}
}
