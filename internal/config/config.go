// Package config defines the runtime configuration for sealbox.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config carries every flag and positional argument after binding.
type Config struct {
	// Secret sources. Empty means environment variable or prompt.
	PassphraseFile    string `mapstructure:"passphrase-file"`
	MACPassphraseFile string `mapstructure:"mac-passphrase-file"`

	// Key derivation cost. Zero selects the library default.
	Iterations int `mapstructure:"iterations" validate:"gte=0"`

	// Common flags
	Parallel           int  `mapstructure:"parallel" validate:"gt=0"`
	Quiet              bool `mapstructure:"quiet"`
	Delete             bool `mapstructure:"delete"`
	Dry                bool `mapstructure:"dry"`
	Stats              bool `mapstructure:"stats"`
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`

	// Suffix handling
	SealSuffix string `mapstructure:"seal-ext"`
	OpenSuffix string `mapstructure:"open-ext"`

	// File selection
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	IncludeFrom string   `mapstructure:"include-from"`
	ExcludeFrom string   `mapstructure:"exclude-from"`

	// Command-specific flags
	CBC     bool `mapstructure:"cbc"`
	Decrypt bool

	// Positional arguments
	Files []string `validate:"min=1"`
}

// Validate validates the configuration against the struct tags.
func (c Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if c.MACPassphraseFile != "" && !c.CBC && !c.Decrypt {
		return fmt.Errorf("mac-passphrase-file requires the CBC construction")
	}

	return nil
}
