// Command netscan is the entry point for the network diagnostics toolkit.
package main

import (
	"github.com/netscan-tools/netscan/cmd/cli"
)

// Build information, overridden by ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
