package envelope

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used when
	// Params.Iterations is zero. It exceeds the 310k floor recommended
	// for PBKDF2-HMAC-SHA-256 with margin for future hardware.
	DefaultIterations = 600_000

	// MinSaltSize is the smallest salt DeriveKey accepts.
	MinSaltSize = 16

	// keySize is the AES-256 key length used by both constructions.
	keySize = 32
)

// Params tunes key derivation and entropy for a codec. The zero value
// selects production defaults.
type Params struct {
	// Iterations is the PBKDF2 iteration count. Zero selects
	// DefaultIterations; negative values are rejected.
	Iterations int

	// Rand supplies salts and IVs. Nil selects crypto/rand.Reader.
	Rand io.Reader
}

func (p Params) withDefaults() Params {
	if p.Iterations == 0 {
		p.Iterations = DefaultIterations
	}

	if p.Rand == nil {
		p.Rand = rand.Reader
	}

	return p
}

// DeriveKey stretches a passphrase into key material using
// PBKDF2-HMAC-SHA-256. Identical inputs always yield identical output.
func DeriveKey(passphrase, salt []byte, iterations, length int) ([]byte, error) {
	if len(salt) < MinSaltSize {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes", ErrInvalidParameter, MinSaltSize)
	}

	if length <= 0 {
		return nil, fmt.Errorf("%w: key length must be positive", ErrInvalidParameter)
	}

	if iterations <= 0 {
		return nil, fmt.Errorf("%w: iteration count must be positive", ErrInvalidParameter)
	}

	return pbkdf2.Key(passphrase, salt, iterations, length, sha256.New), nil
}

// expandKey derives a purpose-bound subkey from master key material.
// Distinct info strings guarantee independent subkeys even when the
// masters coincide.
func expandKey(master []byte, info string, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, master, nil, []byte(info))

	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("expanding %s key: %w", info, err)
	}

	return key, nil
}

// deriveCBCKeys produces independent encryption and authentication keys
// for the CBC+HMAC construction. A separate MAC passphrase yields a key
// derived from its own PBKDF2 master; otherwise HKDF domain separation
// splits a single master into two unrelated subkeys.
func deriveCBCKeys(passphrase, macPassphrase, salt []byte, iterations int) (encKey, macKey []byte, err error) {
	master, err := DeriveKey(passphrase, salt, iterations, keySize)
	if err != nil {
		return nil, nil, err
	}
	defer clear(master)

	macMaster := master

	if len(macPassphrase) > 0 && !bytes.Equal(macPassphrase, passphrase) {
		macMaster, err = DeriveKey(macPassphrase, salt, iterations, keySize)
		if err != nil {
			return nil, nil, err
		}
		defer clear(macMaster)
	}

	encKey, err = expandKey(master, "sealbox/cbc-hmac/enc", keySize)
	if err != nil {
		return nil, nil, err
	}

	macKey, err = expandKey(macMaster, "sealbox/cbc-hmac/mac", keySize)
	if err != nil {
		clear(encKey)

		return nil, nil, err
	}

	return encKey, macKey, nil
}

// randomBytes fills a fresh slice from the configured entropy source.
func randomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("reading entropy: %w", err)
	}

	return b, nil
}
