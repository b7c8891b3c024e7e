// Package commands provides the command-line interface for sealbox.
//
// It implements commands for:
//   - sealing files into authenticated envelopes
//   - opening envelopes back into plaintext
//   - checking include/exclude patterns
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands
