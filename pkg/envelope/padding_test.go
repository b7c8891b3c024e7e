package envelope

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
)

// paddingCase is a single test case from a YAML golden file. Input and
// expected values are hex-encoded.
type paddingCase struct {
	Input       string `yaml:"input"`
	BlockSize   int    `yaml:"block_size"`
	Padded      string `yaml:"padded,omitempty"`
	Output      string `yaml:"output,omitempty"`
	Invalid     bool   `yaml:"invalid,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// paddingGroup is a named collection of test cases for one operation.
type paddingGroup struct {
	Name        string        `yaml:"name"`
	Op          string        `yaml:"op"`
	Description string        `yaml:"description,omitempty"`
	Cases       []paddingCase `yaml:"cases"`
}

func loadPaddingSpecs(t *testing.T) []paddingGroup {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "padding.yml"))
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}

	var groups []paddingGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		t.Fatalf("parsing golden file: %v", err)
	}

	return groups
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex in golden file %q: %v", s, err)
	}

	return b
}

// TestPaddingGolden runs the golden pad and unpad cases.
func TestPaddingGolden(t *testing.T) {
	t.Parallel()

	for _, g := range loadPaddingSpecs(t) {
		g := g
		t.Run(g.Name, func(t *testing.T) {
			t.Parallel()

			for i, tc := range g.Cases {
				tc := tc
				desc := tc.Description
				if desc == "" {
					desc = fmt.Sprintf("case_%d", i)
				}

				t.Run(desc, func(t *testing.T) {
					t.Parallel()

					input := mustHex(t, tc.Input)

					switch g.Op {
					case "pad":
						got := pkcs7Pad(input, tc.BlockSize)
						if want := mustHex(t, tc.Padded); !bytes.Equal(got, want) {
							t.Errorf("pkcs7Pad = %x, want %x", got, want)
						}
					case "unpad":
						got, err := pkcs7Unpad(input, tc.BlockSize)
						if tc.Invalid {
							if !errors.Is(err, errInvalidPadding) {
								t.Errorf("error = %v, want errInvalidPadding", err)
							}

							return
						}

						if err != nil {
							t.Fatalf("pkcs7Unpad: %v", err)
						}

						if want := mustHex(t, tc.Output); !bytes.Equal(got, want) {
							t.Errorf("pkcs7Unpad = %x, want %x", got, want)
						}
					default:
						t.Fatalf("unknown op %q", g.Op)
					}
				})
			}
		})
	}
}

// TestPaddingRoundTrip pads then unpads every length up to two blocks.
func TestPaddingRoundTrip(t *testing.T) {
	t.Parallel()

	const blockSize = 16

	for length := 0; length < 2*blockSize+1; length++ {
		data := bytes.Repeat([]byte{0xA5}, length)

		padded := pkcs7Pad(data, blockSize)

		if len(padded)%blockSize != 0 {
			t.Fatalf("length %d: padded length %d not block-aligned", length, len(padded))
		}

		if len(padded) <= length {
			t.Fatalf("length %d: padding did not grow the input", length)
		}

		got, err := pkcs7Unpad(padded, blockSize)
		if err != nil {
			t.Fatalf("length %d: pkcs7Unpad: %v", length, err)
		}

		if !bytes.Equal(got, data) {
			t.Errorf("length %d: round trip mismatch", length)
		}
	}
}
