// Package bincheck locates the external binaries tt depends on. The jsii
// runtime spawns a node process for every synth, so `tt doctor` verifies it
// up front instead of letting the first synth fail with a runtime panic.
package bincheck

import (
	"context"
	"os/exec"
)

// Result reports where a binary was found.
type Result struct {
	InPath      bool
	Path        string
	MiseManaged bool
}

// Found reports whether the binary is usable at all.
func (r Result) Found() bool {
	return r.InPath || r.MiseManaged
}

// Check looks a binary up in PATH and via mise, the tool manager used by the
// local dev setup.
func Check(ctx context.Context, name string) Result {
	var r Result
	if path, err := exec.LookPath(name); err == nil {
		r.InPath = true
		r.Path = path
	}
	r.MiseManaged = isMiseManaged(ctx, name)
	return r
}

func isMiseManaged(ctx context.Context, binary string) bool {
	cmd := exec.CommandContext(ctx, "mise", "which", binary)
	return cmd.Run() == nil
}
