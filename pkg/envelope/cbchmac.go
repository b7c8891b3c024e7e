package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"fmt"
	"io"
)

// cbcTagSize is the trailing HMAC-SHA-512 tag length.
const cbcTagSize = sha512.Size

// CBCHMACCodec seals envelopes with AES-256-CBC and a trailing
// HMAC-SHA-512 tag over the IV and ciphertext (encrypt-then-MAC).
// Chaining and MAC accumulation are inherently sequential, so each
// call processes its chunks in strict emission order; independent
// calls share no mutable state and may run concurrently.
type CBCHMACCodec struct {
	passphrase    []byte
	macPassphrase []byte
	params        Params
}

// NewCBCHMAC creates the CBC+HMAC construction. A non-empty
// macPassphrase supplies an independent authentication secret;
// otherwise both keys are expanded from the single passphrase with
// HKDF domain separation.
func NewCBCHMAC(passphrase, macPassphrase []byte, params Params) (*CBCHMACCodec, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidParameter)
	}

	return &CBCHMACCodec{
		passphrase:    bytes.Clone(passphrase),
		macPassphrase: bytes.Clone(macPassphrase),
		params:        params.withDefaults(),
	}, nil
}

// Version implements Codec.
func (c *CBCHMACCodec) Version() byte { return VersionCBCHMAC }

// Seal implements Codec. Plaintext is consumed in bounded chunks; the
// final chunk is padded, every ciphertext chunk is fed to the MAC in
// emission order, and the tag trails the ciphertext.
func (c *CBCHMACCodec) Seal(dst io.Writer, src io.Reader) error {
	salt, err := randomBytes(c.params.Rand, SaltSize)
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	iv, err := randomBytes(c.params.Rand, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("generating IV: %w", err)
	}

	encKey, macKey, err := deriveCBCKeys(c.passphrase, c.macPassphrase, salt, c.params.Iterations)
	if err != nil {
		return err
	}

	defer clear(encKey)
	defer clear(macKey)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}

	if _, err := dst.Write(salt); err != nil {
		return fmt.Errorf("writing salt: %w", err)
	}

	if _, err := dst.Write(iv); err != nil {
		return fmt.Errorf("writing IV: %w", err)
	}

	mac := newMacAccumulator(macKey)
	mac.Update(iv)

	mode := cipher.NewCBCEncrypter(block, iv)

	buf := chunkPool.Get().([]byte)
	defer chunkPool.Put(buf) //nolint:staticcheck

	pending := make([]byte, 0, chunkSize+aes.BlockSize)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			// Encrypt every complete block; the remainder waits for
			// padding at EOF.
			complete := len(pending) &^ (aes.BlockSize - 1)
			if complete > 0 {
				mode.CryptBlocks(pending[:complete], pending[:complete])
				mac.Update(pending[:complete])

				if _, err := dst.Write(pending[:complete]); err != nil {
					return fmt.Errorf("writing ciphertext: %w", err)
				}

				pending = append(pending[:0], pending[complete:]...)
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return fmt.Errorf("reading plaintext: %w", readErr)
		}
	}

	// Always pad, so aligned input gains a full block of padding.
	final := pkcs7Pad(pending, aes.BlockSize)
	mode.CryptBlocks(final, final)
	mac.Update(final)

	if _, err := dst.Write(final); err != nil {
		return fmt.Errorf("writing final block: %w", err)
	}

	if _, err := dst.Write(mac.Finalize()); err != nil {
		return fmt.Errorf("writing authentication tag: %w", err)
	}

	return nil
}

// Open implements Codec. The tag is verified over iv ‖ ciphertext
// before any decryption is attempted; unauthenticated ciphertext is
// never decrypted. A seekable source is verified and decrypted in two
// bounded-memory passes, anything else is buffered.
func (c *CBCHMACCodec) Open(dst io.Writer, src io.Reader) error {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return truncated(err, "salt")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return truncated(err, "IV")
	}

	encKey, macKey, err := deriveCBCKeys(c.passphrase, c.macPassphrase, salt, c.params.Iterations)
	if err != nil {
		return err
	}

	defer clear(encKey)
	defer clear(macKey)

	if seeker, ok := src.(io.ReadSeeker); ok {
		return c.openSeekable(dst, seeker, iv, encKey, macKey)
	}

	return c.openBuffered(dst, src, iv, encKey, macKey)
}

// openSeekable verifies in a first pass over the ciphertext, then seeks
// back and decrypts in a second.
func (c *CBCHMACCodec) openSeekable(dst io.Writer, src io.ReadSeeker, iv, encKey, macKey []byte) error {
	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locating ciphertext: %w", err)
	}

	mac := newMacAccumulator(macKey)
	mac.Update(iv)

	ciphertextLen, tag, err := macTrailing(mac, src, cbcTagSize)
	if err != nil {
		return err
	}

	if ciphertextLen == 0 || ciphertextLen%aes.BlockSize != 0 {
		return ErrAuthentication
	}

	if !mac.Verify(tag) {
		return ErrAuthentication
	}

	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding ciphertext: %w", err)
	}

	return c.decryptTo(dst, src, iv, encKey, ciphertextLen)
}

// openBuffered handles non-seekable sources by holding the ciphertext
// in memory for the verify-then-decrypt ordering.
func (c *CBCHMACCodec) openBuffered(dst io.Writer, src io.Reader, iv, encKey, macKey []byte) error {
	body, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading envelope: %w", err)
	}

	if len(body) < cbcTagSize+aes.BlockSize {
		return fmt.Errorf("%w: envelope truncated", ErrAuthentication)
	}

	ciphertext := body[:len(body)-cbcTagSize]
	tag := body[len(body)-cbcTagSize:]

	if len(ciphertext)%aes.BlockSize != 0 {
		return ErrAuthentication
	}

	mac := newMacAccumulator(macKey)
	mac.Update(iv)
	mac.Update(ciphertext)

	if !mac.Verify(tag) {
		return ErrAuthentication
	}

	return c.decryptTo(dst, bytes.NewReader(ciphertext), iv, encKey, int64(len(ciphertext)))
}

// decryptTo decrypts exactly ciphertextLen verified bytes from src in
// bounded chunks, unpadding the final block.
func (c *CBCHMACCodec) decryptTo(dst io.Writer, src io.Reader, iv, encKey []byte, ciphertextLen int64) error {
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}

	mode := cipher.NewCBCDecrypter(block, iv)

	buf := chunkPool.Get().([]byte)
	defer chunkPool.Put(buf) //nolint:staticcheck

	remaining := ciphertextLen

	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}

		chunk := buf[:n]
		if _, err := io.ReadFull(src, chunk); err != nil {
			return truncated(err, "ciphertext")
		}

		mode.CryptBlocks(chunk, chunk)

		remaining -= n

		if remaining > 0 {
			if _, err := dst.Write(chunk); err != nil {
				return fmt.Errorf("writing plaintext: %w", err)
			}

			continue
		}

		// Final chunk: unpad before writing anything from it.
		final, err := pkcs7Unpad(chunk[len(chunk)-aes.BlockSize:], aes.BlockSize)
		if err != nil {
			// Padding damage after a verified tag is reported exactly
			// like a tag mismatch.
			return ErrAuthentication
		}

		if _, err := dst.Write(chunk[:len(chunk)-aes.BlockSize]); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}

		if _, err := dst.Write(final); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}
	}

	return nil
}

// macTrailing absorbs everything but the trailing tagSize bytes of src
// into mac, returning the body length and the tag.
func macTrailing(mac *macAccumulator, src io.Reader, tagSize int) (int64, []byte, error) {
	buf := chunkPool.Get().([]byte)
	defer chunkPool.Put(buf) //nolint:staticcheck

	tail := make([]byte, 0, tagSize+chunkSize)

	var bodyLen int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			tail = append(tail, buf[:n]...)

			if len(tail) > tagSize {
				body := tail[:len(tail)-tagSize]
				mac.Update(body)
				bodyLen += int64(len(body))

				tail = append(tail[:0], tail[len(tail)-tagSize:]...)
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return 0, nil, fmt.Errorf("reading ciphertext: %w", readErr)
		}
	}

	if len(tail) != tagSize {
		return 0, nil, fmt.Errorf("%w: envelope truncated", ErrAuthentication)
	}

	return bodyLen, tail, nil
}
