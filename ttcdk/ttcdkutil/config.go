package ttcdkutil

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds the synthesis-time knobs for the tier stacks, validated
// upfront so synthesis fails with clear messages instead of half-built
// templates.
type Config struct {
	// Qualifier prefixes every stack and resource name. Lowercase with
	// dashes, short enough to leave room in name-length limits.
	Qualifier string `validate:"required,max=20,lowercase"`
	// VpcCidr is the address space carved into the six subnets.
	VpcCidr string `validate:"required,cidrv4"`
	// InstanceType is used by both compute tiers.
	InstanceType string `validate:"required"`
	// DbInstanceClass is the RDS instance class.
	DbInstanceClass string `validate:"required,startswith=db."`
	// AsgMinSize and AsgMaxSize bound both auto scaling groups.
	AsgMinSize int `validate:"min=1"`
	AsgMaxSize int `validate:"min=1,gtefield=AsgMinSize"`
}

// DefaultConfig returns the configuration matching the reference
// architecture: a /16 VPC, burstable instances, and 2-4 instances per tier.
func DefaultConfig(qualifier string) Config {
	return Config{
		Qualifier:       qualifier,
		VpcCidr:         "10.0.0.0/16",
		InstanceType:    "t3.micro",
		DbInstanceClass: "db.t3.micro",
		AsgMinSize:      2,
		AsgMaxSize:      4,
	}
}

// Validate checks the config using struct tags and returns a message listing
// every violation.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		msgs := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			msgs = append(msgs, formatValidationError(e))
		}
		return errors.Errorf("tier config validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return errors.Wrap(err, "tier config validation failed")
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s (got %q)", e.Field(), e.Param(), e.Value())
	case "cidrv4":
		return fmt.Sprintf("%s must be an IPv4 CIDR block (got %q)", e.Field(), e.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q (got %q)", e.Field(), e.Param(), e.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", e.Field(), e.Param())
	case "lowercase":
		return fmt.Sprintf("%s must be lowercase (got %q)", e.Field(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", e.Field(), e.Tag())
	}
}
