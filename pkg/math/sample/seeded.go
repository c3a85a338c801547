package sample

import (
	"io"

	"github.com/zeebo/blake3"
)

const seededContext = "zkvote 2024 deterministic sampling stream"

// Seeded returns an infinite deterministic stream of bytes derived from seed.
//
// The stream is the extendable output of BLAKE3 in derive-key mode, so two
// readers created with the same seed produce the same bytes, and different
// seeds produce independent streams. It is meant for reproducible tests and
// demos; production proofs should read from crypto/rand.
//
// The returned reader is not safe for concurrent use, see pool.NewLockedReader.
func Seeded(seed []byte) io.Reader {
	h := blake3.NewDeriveKey(seededContext)
	_, _ = h.Write(seed)
	return h.Digest()
}
