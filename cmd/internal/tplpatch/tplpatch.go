// Package tplpatch post-processes synthesized templates before they are
// handed to CloudFormation. Even with the bootstrapless synthesizer and
// analytics reporting disabled, a template can carry CDK bookkeeping
// (metadata resource, bootstrap version checks) that has no business in a
// plainly deployed stack; Sanitize strips it.
package tplpatch

import (
	"github.com/cockroachdb/errors"
)

// Sanitize removes CDK bookkeeping from a template document in place and
// returns it. It fails if the template has no Resources section left
// afterwards, since such a template can never deploy.
func Sanitize(template map[string]any) (map[string]any, error) {
	if template == nil {
		return nil, errors.New("nil template")
	}

	if resources, ok := template["Resources"].(map[string]any); ok {
		delete(resources, "CDKMetadata")
	}
	if params, ok := template["Parameters"].(map[string]any); ok {
		delete(params, "BootstrapVersion")
		if len(params) == 0 {
			delete(template, "Parameters")
		}
	}
	if rules, ok := template["Rules"].(map[string]any); ok {
		delete(rules, "CheckBootstrapVersion")
		if len(rules) == 0 {
			delete(template, "Rules")
		}
	}
	if conditions, ok := template["Conditions"].(map[string]any); ok {
		delete(conditions, "CDKMetadataAvailable")
		if len(conditions) == 0 {
			delete(template, "Conditions")
		}
	}

	resources, ok := template["Resources"].(map[string]any)
	if !ok || len(resources) == 0 {
		return nil, errors.New("template has no Resources section")
	}

	return template, nil
}
