package envelope

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	aes_gcmpb "github.com/tink-crypto/tink-go/v2/proto/aes_gcm_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"
)

const (
	// gcmNonceSize is the 12-byte nonce the GCM primitive prepends to
	// its output. A fresh salt, and therefore a fresh key, per sealing
	// keeps nonces unique per key.
	gcmNonceSize = 12

	// gcmTagSize is the built-in 16-byte authentication tag.
	gcmTagSize = 16
)

// GCMCodec seals envelopes with AES-256-GCM through the Tink AEAD
// primitive. The primitive verifies integrity internally as a single
// atomic outcome, so no separate MAC or padding step exists on this
// path. A single-tag GCM body cannot be verified incrementally, so the
// codec holds the body in memory for the duration of a call.
type GCMCodec struct {
	passphrase []byte
	params     Params
}

// NewGCM creates the GCM construction.
func NewGCM(passphrase []byte, params Params) (*GCMCodec, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidParameter)
	}

	return &GCMCodec{
		passphrase: bytes.Clone(passphrase),
		params:     params.withDefaults(),
	}, nil
}

// Version implements Codec.
func (c *GCMCodec) Version() byte { return VersionGCM }

// Seal implements Codec. The primitive emits nonce ‖ ciphertext ‖ tag,
// which lands in the envelope directly after the salt.
func (c *GCMCodec) Seal(dst io.Writer, src io.Reader) error {
	salt, err := randomBytes(c.params.Rand, SaltSize)
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	key, err := DeriveKey(c.passphrase, salt, c.params.Iterations, keySize)
	if err != nil {
		return err
	}
	defer clear(key)

	primitive, err := newGCMPrimitive(key)
	if err != nil {
		return err
	}

	plaintext, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading plaintext: %w", err)
	}

	sealed, err := primitive.Encrypt(plaintext, gcmAssociatedData(salt))
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}

	if _, err := dst.Write(salt); err != nil {
		return fmt.Errorf("writing salt: %w", err)
	}

	if _, err := dst.Write(sealed); err != nil {
		return fmt.Errorf("writing ciphertext: %w", err)
	}

	return nil
}

// Open implements Codec.
func (c *GCMCodec) Open(dst io.Writer, src io.Reader) error {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return truncated(err, "salt")
	}

	key, err := DeriveKey(c.passphrase, salt, c.params.Iterations, keySize)
	if err != nil {
		return err
	}
	defer clear(key)

	primitive, err := newGCMPrimitive(key)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading envelope: %w", err)
	}

	if len(body) < gcmNonceSize+gcmTagSize {
		return fmt.Errorf("%w: envelope truncated", ErrAuthentication)
	}

	plaintext, err := primitive.Decrypt(body, gcmAssociatedData(salt))
	if err != nil {
		return ErrAuthentication
	}

	if _, err := dst.Write(plaintext); err != nil {
		return fmt.Errorf("writing plaintext: %w", err)
	}

	return nil
}

// gcmAssociatedData binds the tag to the envelope version and salt in
// addition to the ciphertext.
func gcmAssociatedData(salt []byte) []byte {
	ad := make([]byte, 0, 1+SaltSize)
	ad = append(ad, VersionGCM)
	ad = append(ad, salt...)

	return ad
}

// newGCMPrimitive creates a Tink AEAD primitive for AES-256-GCM from
// raw key bytes. The RAW output prefix keeps the wire format at
// nonce ‖ ciphertext ‖ tag with no Tink framing.
func newGCMPrimitive(key []byte) (tink.AEAD, error) {
	aesGCMKey := &aes_gcmpb.AesGcmKey{
		Version:  0,
		KeyValue: key,
	}

	serializedKey, err := proto.Marshal(aesGCMKey)
	if err != nil {
		return nil, fmt.Errorf("serializing AesGcmKey: %w", err)
	}

	keyData := &tinkpb.KeyData{
		TypeUrl:         "type.googleapis.com/google.crypto.tink.AesGcmKey",
		Value:           serializedKey,
		KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData:          keyData,
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	keySetHandle, err := insecurecleartextkeyset.Read(
		keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
	if err != nil {
		return nil, fmt.Errorf("creating keyset handle: %w", err)
	}

	primitive, err := aead.New(keySetHandle)
	if err != nil {
		return nil, fmt.Errorf("creating AEAD: %w", err)
	}

	return primitive, nil
}
