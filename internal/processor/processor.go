// Package processor seals and opens batches of files concurrently,
// delegating the envelope construction to pkg/envelope.
package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dowonh9599/sealbox/internal/config"
	"github.com/dowonh9599/sealbox/internal/fileutil"
	"github.com/dowonh9599/sealbox/internal/passphrase"
	"github.com/dowonh9599/sealbox/pkg/envelope"
)

// Processor handles the sealing and opening of files.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// opts selects the envelope construction and carries the secrets
	opts envelope.Options

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// New creates a Processor, resolving the passphrase(s) from file,
// environment, or terminal prompt.
func New(cfg *config.Config) (*Processor, error) {
	pass, macPass, err := resolveSecrets(cfg)
	if err != nil {
		return nil, err
	}

	opts := envelope.Options{
		Passphrase:    pass,
		MACPassphrase: macPass,
		Params:        envelope.Params{Iterations: cfg.Iterations},
	}

	if cfg.CBC {
		opts.Version = envelope.VersionCBCHMAC
	}

	return &Processor{
		cfg:     cfg,
		opts:    opts,
		results: make(chan Result, len(cfg.Files)),
	}, nil
}

// Close zeroizes the held secrets.
func (p *Processor) Close() {
	passphrase.Zero(p.opts.Passphrase)
	passphrase.Zero(p.opts.MACPassphrase)
}

// resolveSecrets acquires the encryption passphrase and the optional
// independent MAC passphrase. Sealing prompts with confirmation,
// opening without.
func resolveSecrets(cfg *config.Config) (pass, macPass []byte, err error) {
	switch {
	case cfg.PassphraseFile != "":
		pass, err = passphrase.FromFile(cfg.PassphraseFile)
	case cfg.Decrypt:
		pass, err = passphrase.Get(passphrase.EnvVar, "Enter passphrase: ")
	default:
		pass, err = passphrase.GetWithConfirm(passphrase.EnvVar, "Enter passphrase: ", "Confirm passphrase: ")
	}

	if err != nil {
		return nil, nil, err
	}

	if len(pass) == 0 {
		return nil, nil, errors.New("passphrase cannot be empty")
	}

	switch {
	case cfg.MACPassphraseFile != "":
		macPass, err = passphrase.FromFile(cfg.MACPassphraseFile)
		if err != nil {
			passphrase.Zero(pass)

			return nil, nil, err
		}
	case os.Getenv(passphrase.MACEnvVar) != "":
		macPass = []byte(os.Getenv(passphrase.MACEnvVar))
	}

	return pass, macPass, nil
}

// ProcessFiles concurrently processes all files specified in the
// configuration. Returns the number of successfully processed files,
// the number of errors, and the total output size.
//
//nolint:cyclop,gocognit
func (p *Processor) ProcessFiles() (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(os.Stderr, "Error processing %q: %v\n", result.Input, result.Error)
			} else {
				processed++

				totalSize += result.OutputSize

				if !p.cfg.Quiet {
					fmt.Printf("Processed %q -> %q\n", result.Input, result.Output) //nolint:forbidigo
				}
			}

			if p.cfg.Delete && result.Error == nil {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(os.Stderr, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Printf("Deleted %q\n", result.Input) //nolint:forbidigo
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		file := file
		group.Go(func() error {
			outPath := p.outputPath(file)

			size, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile seals or opens a single file. Output goes to a temporary
// file that is atomically renamed on completion, so a failed open never
// leaves partial plaintext behind.
func (p *Processor) processFile(filename, outPath string) (size int64, err error) {
	tc, err := fileutil.NewTempContext(filename, outPath)
	if err != nil {
		return 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	inFile, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return 0, fmt.Errorf("opening input file: %w", err)
	}
	defer inFile.Close()

	const ownerReadWrite = 0o600

	// An *os.File is seekable, so opening a CBC envelope verifies and
	// decrypts in two bounded-memory passes.
	if p.cfg.Decrypt {
		if err := envelope.Open(tc.TmpFile, inFile, p.opts); err != nil {
			return 0, fmt.Errorf("opening envelope: %w", err)
		}
	} else {
		if err := envelope.Seal(tc.TmpFile, inFile, p.opts); err != nil {
			return 0, fmt.Errorf("sealing file: %w", err)
		}
	}

	perm := os.FileMode(ownerReadWrite)

	if tc.IsExec {
		perm |= 0o111
	}

	if err := os.Chmod(tc.TmpName, perm); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := tc.TmpFile.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err := inFile.Close(); err != nil {
		return 0, fmt.Errorf("closing input file: %w", err)
	}

	if err := os.Rename(tc.TmpName, outPath); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	size, err = fileutil.FinalizeOutput(outPath, p.cfg.PreserveTimestamps, tc.SrcInfo.ModTime())
	if err != nil {
		return 0, fmt.Errorf("finalizing output: %w", err)
	}

	return size, nil
}

// outputPath generates the output file path based on the input filename
// and the configured suffixes for sealing/opening.
func (p *Processor) outputPath(filename string) string {
	ext := p.cfg.SealSuffix

	if p.cfg.Decrypt {
		filename = strings.TrimSuffix(filename, p.cfg.SealSuffix)
		ext = p.cfg.OpenSuffix
	}

	return filepath.Join(filepath.Dir(filename),
		filepath.Base(filename)+ext)
}
