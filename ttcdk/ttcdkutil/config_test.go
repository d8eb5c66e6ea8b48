package ttcdkutil_test

import (
	"strings"
	"testing"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := ttcdkutil.DefaultConfig("ttapp")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.VpcCidr != "10.0.0.0/16" {
		t.Errorf("VpcCidr = %q", cfg.VpcCidr)
	}
	if cfg.AsgMinSize != 2 || cfg.AsgMaxSize != 4 {
		t.Errorf("ASG bounds = %d-%d, want 2-4", cfg.AsgMinSize, cfg.AsgMaxSize)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ttcdkutil.Config)
		wantErr string
	}{
		{
			name:    "missing qualifier",
			mutate:  func(c *ttcdkutil.Config) { c.Qualifier = "" },
			wantErr: "Qualifier is required",
		},
		{
			name:    "uppercase qualifier",
			mutate:  func(c *ttcdkutil.Config) { c.Qualifier = "TTApp" },
			wantErr: "must be lowercase",
		},
		{
			name:    "bad cidr",
			mutate:  func(c *ttcdkutil.Config) { c.VpcCidr = "10.0.0.0" },
			wantErr: "IPv4 CIDR",
		},
		{
			name:    "db class without prefix",
			mutate:  func(c *ttcdkutil.Config) { c.DbInstanceClass = "t3.micro" },
			wantErr: `must start with "db."`,
		},
		{
			name: "max below min",
			mutate: func(c *ttcdkutil.Config) {
				c.AsgMinSize = 4
				c.AsgMaxSize = 2
			},
			wantErr: "AsgMaxSize must be >=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := ttcdkutil.DefaultConfig("ttapp")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
