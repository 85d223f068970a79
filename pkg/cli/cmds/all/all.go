// Package all registers all shell commands.
package all

import (
	// command providers
	_ "github.com/robotalks/iosamurai/pkg/cli/cmds/console"
	_ "github.com/robotalks/iosamurai/pkg/cli/cmds/io"
	_ "github.com/robotalks/iosamurai/pkg/cli/cmds/remote"
)
