// Package passphrase acquires secrets from the environment, a file, or
// an interactive terminal prompt.
package passphrase

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/term"
)

const (
	// EnvVar supplies the encryption passphrase non-interactively.
	EnvVar = "SEALBOX_PASSPHRASE"

	// MACEnvVar supplies the optional independent authentication
	// passphrase for the CBC construction.
	MACEnvVar = "SEALBOX_MAC_PASSPHRASE"
)

// Zero overwrites a secret in place once it leaves scope.
func Zero(b []byte) {
	clear(b)
}

// FromFile reads a passphrase file, trimming a trailing newline.
func FromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-supplied config
	if err != nil {
		return nil, fmt.Errorf("reading passphrase file: %w", err)
	}

	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}

// Get returns the passphrase from the environment variable, or prompts
// on the terminal.
func Get(envVar, prompt string) ([]byte, error) {
	if env := os.Getenv(envVar); env != "" {
		return []byte(env), nil
	}

	return readPassword(prompt)
}

// GetWithConfirm prompts twice and requires both entries to match.
// The environment variable, when set, skips confirmation.
func GetWithConfirm(envVar, prompt, confirmPrompt string) ([]byte, error) {
	if env := os.Getenv(envVar); env != "" {
		return []byte(env), nil
	}

	pass, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}

	confirm, err := readPassword(confirmPrompt)
	if err != nil {
		Zero(pass)

		return nil, err
	}

	defer Zero(confirm)

	if !bytes.Equal(pass, confirm) {
		Zero(pass)

		return nil, fmt.Errorf("passphrases do not match")
	}

	return pass, nil
}

// readPassword reads without echo, falling back to /dev/tty when stdin
// is piped.
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}

		return pass, nil
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("passphrase must be set via %s when stdin is piped", EnvVar)
		}

		return nil, fmt.Errorf("stdin is piped and /dev/tty is unavailable; set %s", EnvVar)
	}
	defer tty.Close()

	pass, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}

	return pass, nil
}
