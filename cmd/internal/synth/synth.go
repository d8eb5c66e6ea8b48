// Package synth builds the CDK tier app in-process and extracts each tier's
// CloudFormation template as a plain JSON document, sanitized of CDK
// bookkeeping. The deploy engine and the validate command both consume the
// result; `tt synth` additionally writes the documents to disk.
package synth

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/cmd/internal/tplpatch"
	"github.com/threetierhq/ttapp/infra/cdk"
	"github.com/threetierhq/ttapp/ttcdk/ttcdkutil"
)

// Templates synthesizes the five tier stacks and returns their sanitized
// template documents keyed by tier identifier. The jsii runtime is shut
// down before returning; it respawns on the next CDK call.
func Templates(cfg ttcdkutil.Config) (map[string]map[string]any, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defer jsii.Close()

	app := ttcdkutil.NewTierApp()
	stacks := cdk.BuildTiers(app, cfg)
	asm := app.Synth(nil)

	templates := make(map[string]map[string]any, len(stacks))
	for tier, stack := range stacks {
		artifact := asm.GetStackByName(stack.StackName())
		raw, err := json.Marshal(artifact.Template())
		if err != nil {
			return nil, errors.Wrapf(err, "encoding template for tier %q", tier)
		}

		var tpl map[string]any
		if err := json.Unmarshal(raw, &tpl); err != nil {
			return nil, errors.Wrapf(err, "decoding template for tier %q", tier)
		}

		tpl, err = tplpatch.Sanitize(tpl)
		if err != nil {
			return nil, errors.Wrapf(err, "sanitizing template for tier %q", tier)
		}
		templates[tier] = tpl
	}
	return templates, nil
}

// WriteOut writes each template under dir as {qualifier}-{tier}.template.json.
func WriteOut(dir, qualifier string, templates map[string]map[string]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	for tier, tpl := range templates {
		data, err := json.MarshalIndent(tpl, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "encoding template for tier %q", tier)
		}
		path := filepath.Join(dir, ttcdkutil.StackName(qualifier, tier)+".template.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

// Body returns the JSON body of one tier's template, as submitted to the
// CloudFormation API.
func Body(templates map[string]map[string]any, tier string) (string, error) {
	tpl, ok := templates[tier]
	if !ok {
		return "", errors.Newf("no template for tier %q", tier)
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return "", errors.Wrapf(err, "encoding template for tier %q", tier)
	}
	return string(data), nil
}
