// Package cfnparams resolves the parameter values of a tier stack against
// the outputs collected from the stacks deployed before it. Values may embed
// placeholders of the form {{stack.OutputKey}}; everything else passes
// through verbatim.
package cfnparams

import (
	"regexp"
	"sort"

	"github.com/cockroachdb/errors"
)

var placeholderRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolve interpolates every placeholder in raw against ctxValues. An
// unknown placeholder key is an error naming the offending parameter.
func Resolve(raw map[string]string, ctxValues map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(raw))
	for k, v := range raw {
		val, err := interpolate(v, ctxValues)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", k)
		}
		resolved[k] = val
	}
	return resolved, nil
}

// Placeholders returns the sorted set of placeholder keys referenced by the
// raw parameter values. The deploy plan uses this to check that every
// referenced output is produced by an earlier stack.
func Placeholders(raw map[string]string) []string {
	seen := make(map[string]struct{})
	for _, v := range raw {
		for _, match := range placeholderRe.FindAllStringSubmatch(v, -1) {
			seen[match[1]] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func interpolate(val string, ctxValues map[string]string) (string, error) {
	var resolveErr error
	result := placeholderRe.ReplaceAllStringFunc(val, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		v, ok := ctxValues[key]
		if !ok {
			resolveErr = errors.Newf("unknown context key %q", key)
			return match
		}
		return v
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}
