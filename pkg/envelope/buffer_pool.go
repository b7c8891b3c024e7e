package envelope

import (
	"sync"
)

// chunkSize bounds memory per seal/open call regardless of input size.
// It is a multiple of the AES block size so CBC chunks never split a block.
const chunkSize = 64 * 1024

// chunkPool provides reusable I/O buffers for streaming transforms.
//
//nolint:gochecknoglobals
var chunkPool = sync.Pool{
	New: func() any {
		return make([]byte, chunkSize)
	},
}
