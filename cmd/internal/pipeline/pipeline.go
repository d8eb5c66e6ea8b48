// Package pipeline models the tier stacks as a dependency graph and derives
// the order the deploy engine walks: creation in topological order, teardown
// in the exact reverse. It also cross-checks the parameter wiring between
// stacks against their synthesized templates, so a renamed output fails
// `tt validate` instead of a live deploy.
package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
	tfdag "github.com/sourcegraph/tf-dag/dag"

	"github.com/threetierhq/ttapp/cmd/internal/cfnparams"
	"github.com/threetierhq/ttapp/cmd/internal/cfnvalidate"
)

// StackSpec describes one tier stack: what it depends on and the parameters
// it is deployed with. Parameter values may embed {{tier.OutputKey}}
// placeholders resolved from the outputs of earlier stacks.
type StackSpec struct {
	Tier      string
	DependsOn []string
	Params    map[string]string
}

// Pipeline is a validated, acyclic set of stack specs.
type Pipeline struct {
	specs  []StackSpec
	byTier map[string]int
}

// New validates the specs (unique tiers, known dependencies, acyclic graph)
// and returns the pipeline. The graph is built the same way for one tier or
// fifty; the fixed five-stack architecture is just the default instance.
func New(specs []StackSpec) (*Pipeline, error) {
	p := &Pipeline{
		specs:  specs,
		byTier: make(map[string]int, len(specs)),
	}

	var graph tfdag.AcyclicGraph
	for i, spec := range specs {
		if spec.Tier == "" {
			return nil, errors.Newf("spec[%d] has no tier name", i)
		}
		if _, dup := p.byTier[spec.Tier]; dup {
			return nil, errors.Newf("duplicate tier %q", spec.Tier)
		}
		p.byTier[spec.Tier] = i
		graph.Add(spec.Tier)
	}
	for _, spec := range specs {
		for _, dep := range spec.DependsOn {
			if dep == spec.Tier {
				return nil, errors.Newf("tier %q depends on itself", spec.Tier)
			}
			if _, ok := p.byTier[dep]; !ok {
				return nil, errors.Newf("tier %q depends on unknown tier %q", spec.Tier, dep)
			}
			graph.Connect(tfdag.BasicEdge(spec.Tier, dep))
		}
	}

	// Cycles() only reports components of two or more tiers; the self-edge
	// case is handled above.
	graph.TransitiveReduction()
	if cycles := graph.Cycles(); len(cycles) > 0 {
		return nil, errors.Newf("dependency cycle detected between tier stacks")
	}

	return p, nil
}

// Order returns the specs in deployment order: a topological order with ties
// broken by registration order, so the result is stable run to run.
func (p *Pipeline) Order() []StackSpec {
	placed := make(map[string]bool, len(p.specs))
	order := make([]StackSpec, 0, len(p.specs))

	for len(order) < len(p.specs) {
		for _, spec := range p.specs {
			if placed[spec.Tier] {
				continue
			}
			ready := true
			for _, dep := range spec.DependsOn {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				placed[spec.Tier] = true
				order = append(order, spec)
			}
		}
	}
	return order
}

// ReverseOrder returns the specs in teardown order: the exact reverse of
// Order.
func (p *Pipeline) ReverseOrder() []StackSpec {
	order := p.Order()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// Tiers returns the tier names in deployment order.
func (p *Pipeline) Tiers() []string {
	order := p.Order()
	tiers := make([]string, len(order))
	for i, spec := range order {
		tiers[i] = spec.Tier
	}
	return tiers
}

// Get returns the spec for a tier.
func (p *Pipeline) Get(tier string) (StackSpec, bool) {
	i, ok := p.byTier[tier]
	if !ok {
		return StackSpec{}, false
	}
	return p.specs[i], true
}

// ValidateWiring checks every spec against the synthesized templates, keyed
// by tier:
//   - each placeholder {{tier.Output}} names a (transitive) dependency that
//     declares the output,
//   - each supplied parameter is declared by the consuming template,
//   - each parameter without a template default is supplied.
func (p *Pipeline) ValidateWiring(templates map[string]map[string]any) error {
	ancestors := p.ancestors()

	for _, spec := range p.Order() {
		tpl, ok := templates[spec.Tier]
		if !ok {
			return errors.Newf("no template for tier %q", spec.Tier)
		}

		declared := toSet(cfnvalidate.DeclaredParameters(tpl))
		for name := range spec.Params {
			if _, ok := declared[name]; !ok {
				return errors.Newf("tier %q: parameter %q is not declared by its template", spec.Tier, name)
			}
		}

		supplied := make(map[string]struct{}, len(spec.Params))
		for name := range spec.Params {
			supplied[name] = struct{}{}
		}
		for _, name := range cfnvalidate.RequiredParameters(tpl) {
			if _, ok := supplied[name]; !ok {
				return errors.Newf("tier %q: required parameter %q is not supplied", spec.Tier, name)
			}
		}

		for _, ref := range cfnparams.Placeholders(spec.Params) {
			producer, output, ok := splitRef(ref)
			if !ok {
				return errors.Newf("tier %q: malformed placeholder %q, want {{tier.Output}}", spec.Tier, ref)
			}
			if _, ok := ancestors[spec.Tier][producer]; !ok {
				return errors.Newf(
					"tier %q references output of %q, which is not among its dependencies", spec.Tier, producer)
			}
			producerTpl, ok := templates[producer]
			if !ok {
				return errors.Newf("no template for tier %q", producer)
			}
			if _, ok := toSet(cfnvalidate.DeclaredOutputs(producerTpl))[output]; !ok {
				return errors.Newf(
					"tier %q references %q, but tier %q declares no output %q", spec.Tier, ref, producer, output)
			}
		}
	}
	return nil
}

// ancestors returns, per tier, the set of tiers reachable via DependsOn.
func (p *Pipeline) ancestors() map[string]map[string]struct{} {
	result := make(map[string]map[string]struct{}, len(p.specs))

	var walk func(tier string, into map[string]struct{})
	walk = func(tier string, into map[string]struct{}) {
		spec := p.specs[p.byTier[tier]]
		for _, dep := range spec.DependsOn {
			if _, seen := into[dep]; seen {
				continue
			}
			into[dep] = struct{}{}
			walk(dep, into)
		}
	}

	for _, spec := range p.specs {
		set := make(map[string]struct{})
		walk(spec.Tier, set)
		result[spec.Tier] = set
	}
	return result
}

func splitRef(ref string) (tier, output string, ok bool) {
	tier, output, found := strings.Cut(ref, ".")
	if !found || tier == "" || output == "" {
		return "", "", false
	}
	return tier, output, true
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
