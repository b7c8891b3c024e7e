package config_test

import (
	"testing"

	"github.com/dowonh9599/sealbox/internal/config"
)

func valid() config.Config {
	return config.Config{
		Parallel: 4,
		Files:    []string{"a.txt"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := map[string]func(*config.Config){
		"zero parallel":        func(c *config.Config) { c.Parallel = 0 },
		"negative iterations":  func(c *config.Config) { c.Iterations = -1 },
		"no files":             func(c *config.Config) { c.Files = nil },
		"mac file without cbc": func(c *config.Config) { c.MACPassphraseFile = "mac.key" },
	}

	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestValidateMACFileWithCBC(t *testing.T) {
	t.Parallel()

	cfg := valid()
	cfg.CBC = true
	cfg.MACPassphraseFile = "mac.key"

	if err := cfg.Validate(); err != nil {
		t.Errorf("MAC passphrase file with CBC rejected: %v", err)
	}

	cfg = valid()
	cfg.Decrypt = true
	cfg.MACPassphraseFile = "mac.key"

	if err := cfg.Validate(); err != nil {
		t.Errorf("MAC passphrase file when opening rejected: %v", err)
	}
}
