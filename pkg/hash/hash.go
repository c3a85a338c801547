package hash

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/cronokirby/saferith"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Function identifies the digest underlying a Hash.
type Function uint8

const (
	// SHA256 is the default, and matches existing transcripts of this proof.
	SHA256 Function = iota
	SHA3_256
	BLAKE3
)

var ErrUnknownFunction = errors.New("hash: unknown function")

func (f Function) String() string {
	switch f {
	case SHA256:
		return "sha256"
	case SHA3_256:
		return "sha3-256"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("Function(%d)", uint8(f))
	}
}

// ParseFunction is the inverse of Function.String.
func ParseFunction(name string) (Function, error) {
	for _, f := range []Function{SHA256, SHA3_256, BLAKE3} {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
}

// New returns an empty Hash using f.
// It panics if f is not one of the declared functions.
func (f Function) New() *Hash {
	var h hash.Hash
	switch f {
	case SHA256:
		h = sha256.New()
	case SHA3_256:
		h = sha3.New256()
	case BLAKE3:
		h = blake3.New()
	default:
		panic(fmt.Sprintf("hash: unknown function %d", uint8(f)))
	}
	return &Hash{h: h, fn: f}
}

// Hash computes Fiat-Shamir challenges over big integers.
//
// Integers are absorbed as their unsigned decimal representation, without
// leading zeros or separators, so that the input to the digest is the exact
// concatenation of the decimal strings.
type Hash struct {
	h  hash.Hash
	fn Function
	// written holds everything absorbed so far, so that the state can be cloned
	// whatever the underlying digest.
	written []byte
}

// New creates a SHA-256 Hash.
func New() *Hash {
	return SHA256.New()
}

// Function returns the digest used by hash.
func (hash *Hash) Function() Function {
	return hash.fn
}

// Write writes raw data to the hash state.
// Implements io.Writer, and never returns an error.
func (hash *Hash) Write(data []byte) (int, error) {
	hash.written = append(hash.written, data...)
	return hash.h.Write(data)
}

// WriteDecimal writes the decimal representation of each integer, in order.
func (hash *Hash) WriteDecimal(ints ...*saferith.Nat) error {
	for i, x := range ints {
		if x == nil {
			return fmt.Errorf("hash.Hash: write integer %d: nil", i)
		}
		_, _ = hash.Write([]byte(Decimal(x)))
	}
	return nil
}

// Sum returns the digest of the current state, without modifying it.
func (hash *Hash) Sum() []byte {
	return hash.h.Sum(nil)
}

// Challenge interprets the digest as a big-endian integer and reduces it mod m.
func (hash *Hash) Challenge(m *saferith.Modulus) *saferith.Nat {
	digest := new(saferith.Nat).SetBytes(hash.Sum())
	return digest.Mod(digest, m)
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	h2 := hash.fn.New()
	_, _ = h2.Write(hash.written)
	return h2
}

// Decimal returns the canonical unsigned decimal encoding of x.
func Decimal(x *saferith.Nat) string {
	return x.Big().String()
}
