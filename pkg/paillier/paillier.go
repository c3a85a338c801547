// Package paillier implements the Paillier cryptosystem with generator g = N+1.
//
// Unlike most Paillier APIs, encryption returns the nonce ρ it used.
// Proofs about a ciphertext need ρ as a witness, so the nonce must be kept by
// whoever encrypted and never be handed to verifiers.
package paillier

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/pool"
)

var (
	ErrInvalidPublicKey    = errors.New("paillier: invalid public key")
	ErrInvalidCiphertext   = errors.New("paillier: invalid ciphertext")
	ErrPlaintextOutOfRange = errors.New("paillier: plaintext out of range")
)

// KeyGen generates a new PublicKey and its associated SecretKey,
// with a modulus N of the given bit length.
//
// Prime generation runs on pl, which may be nil.
func KeyGen(rand io.Reader, pl *pool.Pool, bits int) (*PublicKey, *SecretKey, error) {
	if bits%2 != 0 {
		return nil, nil, fmt.Errorf("paillier: modulus size must be even, got %d", bits)
	}
	p, q, err := sample.Paillier(rand, pl, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("paillier: keygen: %w", err)
	}
	sk := NewSecretKeyFromPrimes(p, q)
	if err = sk.PublicKey.Validate(); err != nil {
		return nil, nil, fmt.Errorf("paillier: keygen: %w", err)
	}
	// The factorization cached in sk.PublicKey stays with the secret key.
	return NewPublicKey(sk.n.Modulus), sk, nil
}
