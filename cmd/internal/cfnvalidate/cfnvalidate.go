// Package cfnvalidate performs local structural checks on tier templates:
// synthesized documents before they are submitted, and on-disk YAML override
// templates before they replace a synthesized one. These checks catch wiring
// mistakes without a network round trip; the ValidateTemplate API call stays
// the provider's job.
package cfnvalidate

import (
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Template checks that a synthesized template document has a non-empty
// Resources section.
func Template(tpl map[string]any) error {
	resources, ok := tpl["Resources"].(map[string]any)
	if !ok || len(resources) == 0 {
		return errors.New("template has no Resources section")
	}
	return nil
}

// DeclaredParameters returns the sorted parameter names a template declares.
func DeclaredParameters(tpl map[string]any) []string {
	return sectionKeys(tpl, "Parameters")
}

// DeclaredOutputs returns the sorted output names a template declares.
func DeclaredOutputs(tpl map[string]any) []string {
	return sectionKeys(tpl, "Outputs")
}

// RequiredParameters returns the sorted parameter names that have no
// Default and therefore must be supplied at deploy time.
func RequiredParameters(tpl map[string]any) []string {
	params, ok := tpl["Parameters"].(map[string]any)
	if !ok {
		return nil
	}
	var required []string
	for name, raw := range params {
		decl, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, hasDefault := decl["Default"]; !hasDefault {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}

func sectionKeys(tpl map[string]any, section string) []string {
	m, ok := tpl[section].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TemplateFile checks that an on-disk YAML template parses and has a
// Resources section. Used for hand-written override templates.
func TemplateFile(templatePath string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return errors.Wrapf(err, "reading template %s", templatePath)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parsing template YAML")
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return errors.New("invalid YAML document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.New("template root is not a mapping")
	}

	if findMappingValue(root, "Resources") == nil {
		return errors.New("template has no Resources section")
	}

	return nil
}

func findMappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
