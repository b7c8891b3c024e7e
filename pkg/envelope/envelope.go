package envelope

import (
	"bytes"
	"fmt"
	"io"
)

// Envelope layout, front to back. All fields are fixed-length except
// the ciphertext, whose length is the total minus the fixed fields.
//
//	version    1 byte
//	salt       16 bytes, random, stored in clear
//	iv/nonce   16 bytes (CBC) or 12 bytes (GCM), random, stored in clear
//	ciphertext variable
//	tag        64 bytes (HMAC-SHA-512) or 16 bytes (GCM)
const (
	// VersionCBCHMAC identifies the AES-256-CBC + HMAC-SHA-512 construction.
	VersionCBCHMAC byte = 0x01

	// VersionGCM identifies the AES-256-GCM construction.
	VersionGCM byte = 0x02

	// SaltSize is the length of the key-derivation salt stored in every
	// envelope. A fresh salt per sealing gives a fresh key per sealing,
	// which also makes nonce reuse across envelopes a non-issue.
	SaltSize = 16
)

// Codec seals plaintext streams into envelope bodies and opens them
// again. Seal and Open operate on the bytes following the version
// byte, which the package-level functions own.
type Codec interface {
	// Version is the byte identifying this construction on the wire.
	Version() byte

	// Seal encrypts src and writes salt, IV/nonce, ciphertext, and tag
	// to dst.
	Seal(dst io.Writer, src io.Reader) error

	// Open verifies and decrypts an envelope body from src, writing
	// plaintext to dst. No plaintext is written on failure.
	Open(dst io.Writer, src io.Reader) error
}

// Options selects a construction and supplies its secrets.
type Options struct {
	// Passphrase encrypts and, absent MACPassphrase, also authenticates.
	Passphrase []byte

	// MACPassphrase optionally supplies an independent authentication
	// secret for the CBC+HMAC construction, enforcing key separation.
	// Ignored by the GCM construction, which needs no separate MAC key.
	MACPassphrase []byte

	// Version selects the construction for Seal. Zero selects
	// VersionGCM, the simpler and preferred construction.
	Version byte

	// Params tunes key derivation and entropy.
	Params Params
}

// codec constructs the codec for a version byte.
func (o Options) codec(version byte) (Codec, error) {
	switch version {
	case VersionCBCHMAC:
		return NewCBCHMAC(o.Passphrase, o.MACPassphrase, o.Params)
	case VersionGCM:
		return NewGCM(o.Passphrase, o.Params)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, version)
	}
}

// Seal encrypts src into a complete envelope on dst using the
// construction selected by opts.
func Seal(dst io.Writer, src io.Reader, opts Options) error {
	version := opts.Version
	if version == 0 {
		version = VersionGCM
	}

	codec, err := opts.codec(version)
	if err != nil {
		return err
	}

	if _, err := dst.Write([]byte{codec.Version()}); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}

	return codec.Seal(dst, src)
}

// Open reads the version byte from src, dispatches to the matching
// construction, and writes the verified plaintext to dst. Unknown
// versions fail with ErrUnsupportedVersion before anything else is
// read, so future envelope formats can coexist with older readers.
func Open(dst io.Writer, src io.Reader, opts Options) error {
	var version [1]byte
	if _, err := io.ReadFull(src, version[:]); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}

	codec, err := opts.codec(version[0])
	if err != nil {
		return err
	}

	return codec.Open(dst, src)
}

// SealBytes is a convenience wrapper sealing an in-memory plaintext.
func SealBytes(plaintext []byte, opts Options) ([]byte, error) {
	var sealed bytes.Buffer

	if err := Seal(&sealed, bytes.NewReader(plaintext), opts); err != nil {
		return nil, err
	}

	return sealed.Bytes(), nil
}

// OpenBytes is a convenience wrapper opening an in-memory envelope.
// It either fully succeeds or returns nothing.
func OpenBytes(sealed []byte, opts Options) ([]byte, error) {
	var plaintext bytes.Buffer

	if err := Open(&plaintext, bytes.NewReader(sealed), opts); err != nil {
		return nil, err
	}

	return plaintext.Bytes(), nil
}
