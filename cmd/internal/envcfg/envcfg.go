// Package envcfg reads the TT_* environment variables and merges them over
// the workspace configuration. The environment wins, so CI can select
// region, qualifier, and key pair without editing tt.toml.
package envcfg

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/threetierhq/ttapp/cmd/internal/wscfg"
)

// Env holds the raw TT_* environment variables.
type Env struct {
	Region     string `env:"TT_REGION"`
	Qualifier  string `env:"TT_QUALIFIER"`
	KeyPair    string `env:"TT_KEY_PAIR"`
	DbUser     string `env:"TT_DB_USER"`
	DbPassword string `env:"TT_DB_PASSWORD"`
	DbName     string `env:"TT_DB_NAME"`
}

// Parse reads the TT_* variables from the process environment.
func Parse() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}

// Settings is the effective deploy configuration after the environment is
// applied over tt.toml. Fields tagged for deploy are only enforced by
// ValidateForDeploy; synth and validate work with less.
type Settings struct {
	Region        string `validate:"required"`
	Qualifier     string `validate:"required"`
	Profile       string
	StagingBucket string
	LockTable     string
	KeyPair       string `validate:"required"`
	DbUser        string `validate:"required"`
	DbPassword    string `validate:"required,min=8"`
	DbName        string `validate:"required"`
}

// Apply merges the environment over the workspace config and fills the
// database defaults the templates assume.
func (e Env) Apply(cfg *wscfg.Config) Settings {
	s := Settings{
		Region:        cfg.Deploy.Region,
		Qualifier:     cfg.Deploy.Qualifier,
		Profile:       cfg.Deploy.Profile,
		StagingBucket: cfg.Deploy.StagingBucket,
		LockTable:     cfg.Deploy.LockTable,
		KeyPair:       e.KeyPair,
		DbUser:        e.DbUser,
		DbPassword:    e.DbPassword,
		DbName:        e.DbName,
	}
	if e.Region != "" {
		s.Region = e.Region
	}
	if e.Qualifier != "" {
		s.Qualifier = e.Qualifier
	}
	if s.DbUser == "" {
		s.DbUser = "admin"
	}
	if s.DbName == "" {
		s.DbName = "testdb"
	}
	return s
}

var validate = validator.New()

// ValidateForDeploy checks that everything a live deploy needs is set.
func (s Settings) ValidateForDeploy() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating deploy settings")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch {
		case fe.Field() == "KeyPair":
			msgs = append(msgs, "TT_KEY_PAIR must name an existing EC2 key pair")
		case fe.Field() == "DbPassword" && fe.Tag() == "min":
			msgs = append(msgs, "TT_DB_PASSWORD must be at least 8 characters")
		case fe.Field() == "DbPassword":
			msgs = append(msgs, "TT_DB_PASSWORD is required")
		case fe.Field() == "Region":
			msgs = append(msgs, "region must be set via tt.toml or TT_REGION")
		default:
			msgs = append(msgs, fe.Field()+" is required")
		}
	}
	return errors.Newf("deploy settings incomplete: %s", strings.Join(msgs, "; "))
}
