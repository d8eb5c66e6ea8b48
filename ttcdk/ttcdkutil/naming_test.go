package ttcdkutil_test

import (
	"testing"

	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

func TestStackName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qualifier string
		tier      string
		want      string
	}{
		{"ttapp", "network", "ttapp-network"},
		{"ttapp", "loadbalancers", "ttapp-loadbalancers"},
		{"ttapp-prod", "webtier", "ttapp-prod-webtier"},
		{"demo", "apptier", "demo-apptier"},
	}
	for _, tt := range tests {
		if got := ttcdkutil.StackName(tt.qualifier, tt.tier); got != tt.want {
			t.Errorf("StackName(%q, %q) = %q, want %q", tt.qualifier, tt.tier, got, tt.want)
		}
	}
}

func TestResourceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		label  string
		casing ttcdkutil.Casing
		want   string
	}{
		{"kebab", "ext-alb", ttcdkutil.CasingKebab, "ttapp-ext-alb"},
		{"camel", "ext-alb", ttcdkutil.CasingCamel, "TtappExtAlb"},
		{"lower camel", "ext-alb", ttcdkutil.CasingLowerCamel, "ttappExtAlb"},
		{"snake", "ext-alb", ttcdkutil.CasingSnake, "ttapp_ext_alb"},
		{"screaming snake", "ext-alb", ttcdkutil.CasingScreamingSnake, "TTAPP_EXT_ALB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ttcdkutil.ResourceName("ttapp", tt.label, tt.casing); got != tt.want {
				t.Errorf("ResourceName = %q, want %q", got, tt.want)
			}
		})
	}
}
