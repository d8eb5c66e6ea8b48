package ttcdkutil

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// Casing specifies how to format a resource identifier string.
type Casing int

const (
	// CasingCamel formats as CamelCase (e.g., "TtappProdWebAsg").
	CasingCamel Casing = iota
	// CasingLowerCamel formats as lowerCamelCase (e.g., "ttappProdWebAsg").
	CasingLowerCamel
	// CasingSnake formats as snake_case (e.g., "ttapp_prod_web_asg").
	CasingSnake
	// CasingKebab formats as kebab-case (e.g., "ttapp-prod-web-asg").
	CasingKebab
	// CasingScreamingSnake formats as SCREAMING_SNAKE_CASE (e.g., "TTAPP_PROD_WEB_ASG").
	CasingScreamingSnake
)

// StackName returns the CloudFormation stack name for a tier. This is the
// canonical function for generating tier stack names; the deploy engine and
// the synthesizer must agree on it.
func StackName(qualifier, tier string) string {
	return strcase.ToKebab(fmt.Sprintf("%s-%s", qualifier, tier))
}

// ResourceName generates a resource identifier "{qualifier}-{label}"
// converted to the requested casing.
func ResourceName(qualifier, label string, casing Casing) string {
	return applyCasing(fmt.Sprintf("%s-%s", qualifier, label), casing)
}

func applyCasing(s string, casing Casing) string {
	switch casing {
	case CasingCamel:
		return strcase.ToCamel(s)
	case CasingLowerCamel:
		return strcase.ToLowerCamel(s)
	case CasingSnake:
		return strcase.ToSnake(s)
	case CasingKebab:
		return strcase.ToKebab(s)
	case CasingScreamingSnake:
		return strcase.ToScreamingSnake(s)
	default:
		return strcase.ToCamel(s)
	}
}
