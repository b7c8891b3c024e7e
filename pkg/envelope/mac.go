package envelope

import (
	"crypto/hmac"
	"crypto/sha512"
	"hash"
)

// macAccumulator computes an HMAC-SHA-512 tag incrementally. It must be
// fed the IV first and then every ciphertext chunk in emission order;
// the order is part of the authenticated data.
type macAccumulator struct {
	mac hash.Hash
}

func newMacAccumulator(key []byte) *macAccumulator {
	return &macAccumulator{mac: hmac.New(sha512.New, key)}
}

// Update absorbs the next chunk.
func (m *macAccumulator) Update(chunk []byte) {
	m.mac.Write(chunk) //nolint:errcheck // hash.Hash.Write never fails
}

// Finalize returns the tag over everything absorbed so far.
func (m *macAccumulator) Finalize() []byte {
	return m.mac.Sum(nil)
}

// Verify compares a received tag against the computed one in constant
// time, independent of where the first mismatching byte occurs.
func (m *macAccumulator) Verify(tag []byte) bool {
	return hmac.Equal(m.Finalize(), tag)
}
