package envelope

import (
	"bytes"
	"crypto/sha512"
	"testing"
)

func TestMacAccumulatorChunking(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0x11}, keySize)

	whole := newMacAccumulator(key)
	whole.Update([]byte("abcdef"))

	chunked := newMacAccumulator(key)
	chunked.Update([]byte("abc"))
	chunked.Update([]byte("def"))

	tag := whole.Finalize()

	if len(tag) != sha512.Size {
		t.Fatalf("tag length = %d, want %d", len(tag), sha512.Size)
	}

	if !chunked.Verify(tag) {
		t.Error("chunk boundaries changed the tag")
	}
}

func TestMacAccumulatorOrder(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0x22}, keySize)

	forward := newMacAccumulator(key)
	forward.Update([]byte("abc"))
	forward.Update([]byte("def"))

	reversed := newMacAccumulator(key)
	reversed.Update([]byte("def"))
	reversed.Update([]byte("abc"))

	if reversed.Verify(forward.Finalize()) {
		t.Error("chunk order did not affect the tag")
	}
}

func TestMacAccumulatorVerify(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0x33}, keySize)

	mac := newMacAccumulator(key)
	mac.Update([]byte("payload"))

	tag := newMacAccumulator(key)
	tag.Update([]byte("payload"))

	good := tag.Finalize()

	if !mac.Verify(good) {
		t.Error("valid tag rejected")
	}

	bad := bytes.Clone(good)
	bad[0] ^= 0x01

	if mac.Verify(bad) {
		t.Error("tampered tag accepted")
	}

	if mac.Verify(good[:len(good)-1]) {
		t.Error("truncated tag accepted")
	}
}
