// Command notekit is developer tooling for the notekit note-plugin: it
// computes plugin releases from commit history and inspects vault query
// blocks.
package main

import (
	"os"

	"github.com/kmoran/notekit/internal/cli"
	"github.com/kmoran/notekit/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its outcome to an exit code. Cobra
// already prints the error, so nothing is repeated here.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
