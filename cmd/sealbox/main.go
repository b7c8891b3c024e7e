// Command sealbox seals files into password-protected authenticated
// envelopes and opens them again.
package main

import (
	"fmt"
	"os"

	"github.com/dowonh9599/sealbox/internal/commands"
	"github.com/dowonh9599/sealbox/internal/config"
)

// version is set at build time via ldflags.
var version = "dev" //nolint:gochecknoglobals

func main() {
	cfg := &config.Config{}

	if err := commands.NewRootCommand(cfg, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
