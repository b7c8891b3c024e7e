package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
	"strings"
	"testing"
)

// forgeCBCEnvelope assembles a version 0x01 envelope whose tag is valid
// over iv ‖ ciphertext, with the ciphertext chosen so the final block
// decrypts to finalBlock. Lets tests reach states sealing never
// produces, such as a verified tag over malformed padding.
func forgeCBCEnvelope(t *testing.T, passphrase, salt, iv, finalBlock []byte, iterations int) []byte {
	t.Helper()

	encKey, macKey, err := deriveCBCKeys(passphrase, nil, salt, iterations)
	if err != nil {
		t.Fatalf("deriveCBCKeys: %v", err)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}

	ciphertext := bytes.Clone(finalBlock)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, ciphertext)

	mac := newMacAccumulator(macKey)
	mac.Update(iv)
	mac.Update(ciphertext)

	var sealed bytes.Buffer
	sealed.WriteByte(VersionCBCHMAC)
	sealed.Write(salt)
	sealed.Write(iv)
	sealed.Write(ciphertext)
	sealed.Write(mac.Finalize())

	return sealed.Bytes()
}

// TestOpenCorruptPaddingReportsAuthentication verifies that a block
// carrying malformed padding behind a valid tag fails exactly like a
// tag mismatch: same sentinel, and nothing in the message hinting at
// padding as the cause.
func TestOpenCorruptPaddingReportsAuthentication(t *testing.T) {
	t.Parallel()

	const iterations = 2048

	passphrase := []byte("oracle unification")
	salt := bytes.Repeat([]byte{0x01}, SaltSize)
	iv := bytes.Repeat([]byte{0x02}, aes.BlockSize)

	// A final padding byte of zero is never valid.
	finalBlock := bytes.Repeat([]byte{0x41}, aes.BlockSize)
	finalBlock[aes.BlockSize-1] = 0x00

	sealed := forgeCBCEnvelope(t, passphrase, salt, iv, finalBlock, iterations)

	opts := Options{
		Passphrase: passphrase,
		Version:    VersionCBCHMAC,
		Params:     Params{Iterations: iterations},
	}

	check := func(t *testing.T, err error) {
		t.Helper()

		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("error = %v, want ErrAuthentication", err)
		}

		if strings.Contains(strings.ToLower(err.Error()), "padding") {
			t.Errorf("error message reveals padding as the cause: %q", err)
		}
	}

	t.Run("seekable", func(t *testing.T) {
		t.Parallel()

		_, err := OpenBytes(sealed, opts)
		check(t, err)
	})

	t.Run("buffered", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer

		err := Open(&dst, struct{ io.Reader }{bytes.NewReader(sealed)}, opts)
		check(t, err)

		if dst.Len() != 0 {
			t.Errorf("plaintext written despite the failure: %d bytes", dst.Len())
		}
	})
}

// TestOpenValidForgedPadding is the control: the same forged envelope
// with well-formed padding opens cleanly, so the corrupt-padding test
// fails for the padding and not for the forging.
func TestOpenValidForgedPadding(t *testing.T) {
	t.Parallel()

	const iterations = 2048

	passphrase := []byte("oracle unification")
	salt := bytes.Repeat([]byte{0x01}, SaltSize)
	iv := bytes.Repeat([]byte{0x02}, aes.BlockSize)

	finalBlock := pkcs7Pad([]byte("forged"), aes.BlockSize)

	sealed := forgeCBCEnvelope(t, passphrase, salt, iv, finalBlock, iterations)

	opened, err := OpenBytes(sealed, Options{
		Passphrase: passphrase,
		Version:    VersionCBCHMAC,
		Params:     Params{Iterations: iterations},
	})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if string(opened) != "forged" {
		t.Errorf("opened = %q, want %q", opened, "forged")
	}
}
