package processor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dowonh9599/sealbox/internal/config"
	"github.com/dowonh9599/sealbox/internal/passphrase"
)

const testIterations = 2048

func testConfig(files []string, decrypt bool) *config.Config {
	return &config.Config{
		Iterations: testIterations,
		Parallel:   2,
		Quiet:      true,
		SealSuffix: ".sealed",
		Decrypt:    decrypt,
		Files:      files,
	}
}

func TestProcessFilesRoundTrip(t *testing.T) {
	t.Setenv(passphrase.EnvVar, "processor test passphrase")

	dir := t.TempDir()

	plaintext := bytes.Repeat([]byte("sealbox"), 40_000)

	input := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(input, plaintext, 0o600); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	sealer, err := New(testConfig([]string{input}, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sealer.Close()

	processed, errored, totalSize, err := sealer.ProcessFiles()
	if err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}

	if processed != 1 || errored != 0 {
		t.Fatalf("processed = %d, errored = %d", processed, errored)
	}

	sealedPath := input + ".sealed"

	if info, err := os.Stat(sealedPath); err != nil {
		t.Fatalf("stat sealed output: %v", err)
	} else if info.Size() != totalSize {
		t.Errorf("totalSize = %d, want %d", totalSize, info.Size())
	}

	opener, err := New(testConfig([]string{sealedPath}, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer opener.Close()

	if _, _, _, err := opener.ProcessFiles(); err != nil {
		t.Fatalf("ProcessFiles (open): %v", err)
	}

	opened, err := os.ReadFile(input)
	if err != nil {
		t.Fatalf("reading opened output: %v", err)
	}

	if !bytes.Equal(opened, plaintext) {
		t.Error("round trip mismatch")
	}
}

func TestProcessFilesWrongPassphrase(t *testing.T) {
	t.Setenv(passphrase.EnvVar, "right passphrase")

	dir := t.TempDir()

	input := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(input, []byte("payload"), 0o600); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	sealer, err := New(testConfig([]string{input}, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sealer.Close()

	if _, _, _, err := sealer.ProcessFiles(); err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}

	if err := os.Remove(input); err != nil {
		t.Fatalf("removing input: %v", err)
	}

	t.Setenv(passphrase.EnvVar, "wrong passphrase")

	sealedPath := input + ".sealed"

	opener, err := New(testConfig([]string{sealedPath}, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer opener.Close()

	processed, errored, _, err := opener.ProcessFiles()
	if err == nil {
		t.Fatal("wrong passphrase succeeded")
	}

	if processed != 0 || errored != 1 {
		t.Errorf("processed = %d, errored = %d", processed, errored)
	}

	// A failed open must not leave any output behind.
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Error("failed open left an output file")
	}
}

func TestProcessFilesCBC(t *testing.T) {
	t.Setenv(passphrase.EnvVar, "cbc test passphrase")
	t.Setenv(passphrase.MACEnvVar, "independent mac passphrase")

	dir := t.TempDir()

	input := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(input, []byte("cbc payload"), 0o600); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	cfg := testConfig([]string{input}, false)
	cfg.CBC = true

	sealer, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sealer.Close()

	if _, _, _, err := sealer.ProcessFiles(); err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}

	sealed, err := os.ReadFile(input + ".sealed")
	if err != nil {
		t.Fatalf("reading sealed output: %v", err)
	}

	if sealed[0] != 0x01 {
		t.Errorf("version byte = 0x%02x, want 0x01", sealed[0])
	}

	opener, err := New(testConfig([]string{input + ".sealed"}, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer opener.Close()

	if _, _, _, err := opener.ProcessFiles(); err != nil {
		t.Fatalf("ProcessFiles (open): %v", err)
	}

	opened, err := os.ReadFile(input)
	if err != nil {
		t.Fatalf("reading opened output: %v", err)
	}

	if string(opened) != "cbc payload" {
		t.Errorf("opened = %q, want %q", opened, "cbc payload")
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		decrypt bool
		openExt string
		input   string
		want    string
	}{
		{name: "seal appends suffix", input: "dir/file.txt", want: filepath.Join("dir", "file.txt.sealed")},
		{name: "open strips suffix", decrypt: true, input: "dir/file.txt.sealed", want: filepath.Join("dir", "file.txt")},
		{name: "open without suffix keeps name", decrypt: true, input: "dir/file.txt", want: filepath.Join("dir", "file.txt")},
		{name: "open with custom suffix", decrypt: true, openExt: ".plain", input: "file.txt.sealed", want: "file.txt.plain"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig([]string{tc.input}, tc.decrypt)
			cfg.OpenSuffix = tc.openExt

			p := &Processor{cfg: cfg}

			if got := p.outputPath(tc.input); got != tc.want {
				t.Errorf("outputPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
