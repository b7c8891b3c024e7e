package commands

import (
	"github.com/spf13/cobra"

	"github.com/dowonh9599/sealbox/internal/config"
	"github.com/dowonh9599/sealbox/internal/logic"
)

// NewSealCommand creates a new cobra command for the seal subcommand.
func NewSealCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "seal [flags] [paths/patterns...]",
		Aliases: []string{"enc", "encrypt"},
		Short:   "Seal files into authenticated envelopes",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}

	cmd.Flags().Bool("cbc", false, "Use the CBC+HMAC construction instead of GCM")

	return cmd
}
