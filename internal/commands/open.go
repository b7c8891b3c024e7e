package commands

import (
	"github.com/spf13/cobra"

	"github.com/dowonh9599/sealbox/internal/config"
	"github.com/dowonh9599/sealbox/internal/logic"
)

// NewOpenCommand creates a new cobra command for the open subcommand.
// The construction is selected by the envelope's version byte, not by a
// flag.
func NewOpenCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "open [flags] [paths/patterns...]",
		Aliases: []string{"dec", "decrypt"},
		Short:   "Open sealed envelopes",
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Decrypt = true

			return preRun(cfg)(cmd, args)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}
}
