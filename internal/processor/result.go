package processor

// Result is the outcome of sealing or opening one file, reported to
// the printer goroutine.
type Result struct {
	// Input is the source file path.
	Input string

	// Output is the path written on success.
	Output string

	// OutputSize is the size in bytes of the written envelope or
	// recovered plaintext.
	OutputSize int64

	// Error is non-nil when the file failed to process; Output and
	// OutputSize are then meaningless.
	Error error
}
