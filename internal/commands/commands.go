package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dowonh9599/sealbox/internal/config"
)

// preRun returns a PreRunE handler that binds flags and environment
// variables into cfg, resolves positional args into cfg.Files, and
// validates the configuration.
func preRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}

		if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
			return fmt.Errorf("binding inherited flags: %w", err)
		}

		if err := viper.Unmarshal(cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}

		if len(args) == 0 {
			cfg.Files = []string{"."}
		} else {
			cfg.Files = args
		}

		return cfg.Validate()
	}
}
