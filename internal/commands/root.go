package commands

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dowonh9599/sealbox/internal/config"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "sealbox [flags] command [flags]",
		Short: "Password-based file encryption utility",
		Long: `A file encryption utility sealing files into self-describing authenticated
envelopes. Supports AES-256-GCM (default) and AES-256-CBC with HMAC-SHA-512,
with keys derived from a passphrase via PBKDF2.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	viper.SetEnvPrefix("sealbox")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.PersistentFlags().IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().BoolP("delete", "d", false, "Delete the original file after successful sealing/opening")
	root.PersistentFlags().Bool("dry", false, "Preview which files would be processed")
	root.PersistentFlags().Bool("stats", false, "Print processing statistics")
	root.PersistentFlags().Bool("preserve-timestamps", false, "Carry the source timestamps over to the output file")

	root.PersistentFlags().StringP("passphrase-file", "f", "", "Path to a file holding the passphrase")
	root.PersistentFlags().String("mac-passphrase-file", "", "Path to a file holding an independent authentication passphrase (CBC only)")
	root.PersistentFlags().Int("iterations", 0, "PBKDF2 iteration count, 0 selects the built-in default")

	root.PersistentFlags().String("seal-ext", ".sealed", "Suffix to append to sealed files")
	root.PersistentFlags().String("open-ext", "", "Suffix to append to opened files, after stripping the sealed suffix")

	root.PersistentFlags().StringSliceP("include", "i", nil, "Only process files matching these patterns")
	root.PersistentFlags().StringSliceP("exclude", "e", nil, "Skip files matching these patterns")
	root.PersistentFlags().String("include-from", "", "Read include patterns from a JSONC file")
	root.PersistentFlags().String("exclude-from", "", "Read exclude patterns from a JSONC file")

	root.AddCommand(NewSealCommand(cfg), NewOpenCommand(cfg), NewCheckCommand(cfg))

	return root
}
