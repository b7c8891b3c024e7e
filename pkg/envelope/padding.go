package envelope

import (
	"bytes"
	"crypto/subtle"
)

// pkcs7Pad appends PKCS#7 padding so the result is a whole number of
// blocks. Aligned input receives a full block of padding, so padding is
// always present and always removable unambiguously.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)

	return append(data, padText...)
}

// pkcs7Unpad removes PKCS#7 padding. The whole final block is examined
// regardless of where a mismatch occurs, so validation time does not
// depend on how many padding bytes are wrong.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	length := len(data)
	if length == 0 || length%blockSize != 0 {
		return nil, errInvalidPadding
	}

	block := data[length-blockSize:]
	padding := int(block[blockSize-1])

	valid := subtle.ConstantTimeLessOrEq(1, padding)
	valid &= subtle.ConstantTimeLessOrEq(padding, blockSize)

	for i := 0; i < blockSize; i++ {
		// inRun is 1 for positions covered by the claimed padding run.
		inRun := subtle.ConstantTimeLessOrEq(blockSize-padding, i)
		valid &= subtle.ConstantTimeSelect(inRun, subtle.ConstantTimeByteEq(block[i], byte(padding)), 1)
	}

	if valid != 1 {
		return nil, errInvalidPadding
	}

	return data[:length-padding], nil
}
