package envelope

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidParameter is returned for caller mistakes such as an
	// empty passphrase, a short salt, or a non-positive key length.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedVersion is returned when an envelope carries a
	// version byte no codec recognizes. It is surfaced before any
	// cryptographic work is attempted.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")

	// ErrAuthentication is returned when an envelope fails verification.
	// Tag mismatch, truncation, and malformed padding after a verified
	// tag are reported identically so the failure cause cannot be used
	// as an oracle.
	ErrAuthentication = errors.New("envelope authentication failed")

	// errInvalidPadding is internal to unpadding; Open never surfaces it.
	errInvalidPadding = errors.New("invalid padding")
)

// truncated folds short reads of envelope fields into the generic
// authentication failure; genuine I/O errors propagate unchanged.
func truncated(err error, field string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: envelope truncated", ErrAuthentication)
	}

	return fmt.Errorf("reading %s: %w", field, err)
}
