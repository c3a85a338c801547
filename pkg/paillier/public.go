package paillier

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/math/arith"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
)

// PublicKey is a Paillier public key. It is composed of a modulus N.
type PublicKey struct {
	// n = p⋅q
	n *arith.Modulus
	// nSquared = n²
	nSquared *arith.Modulus

	// These values are cached out of convenience, and performance
	nNat *saferith.Nat
	// nPlusOne = n + 1
	nPlusOne *saferith.Nat
}

// NewPublicKey returns an initialized paillier.PublicKey and caches N, N² and (N+1).
//
// The modulus is not checked, see ValidateN.
func NewPublicKey(n *saferith.Modulus) *PublicKey {
	oneNat := new(saferith.Nat).SetUint64(1)
	nNat := n.Nat()
	nSquared := saferith.ModulusFromNat(new(saferith.Nat).Mul(nNat, nNat, -1))
	nPlusOne := new(saferith.Nat).Add(nNat, oneNat, -1)
	// Tightening is fine, since n is public
	nPlusOne.Resize(nPlusOne.TrueLen())

	return &PublicKey{
		n:        arith.ModulusFromN(n),
		nSquared: arith.ModulusFromN(nSquared),
		nNat:     nNat,
		nPlusOne: nPlusOne,
	}
}

// ValidateN performs basic checks to make sure the modulus is valid:
// - log₂(n) ≥ params.MinModulusBits.
// - n is odd.
func ValidateN(n *saferith.Modulus) error {
	if n == nil {
		return fmt.Errorf("%w: modulus is nil", ErrInvalidPublicKey)
	}
	if bits := n.BitLen(); bits < params.MinModulusBits {
		return fmt.Errorf("%w: have %d bits, need at least %d", ErrInvalidPublicKey, bits, params.MinModulusBits)
	}
	if n.Nat().Byte(0)&1 != 1 {
		return fmt.Errorf("%w: modulus is even", ErrInvalidPublicKey)
	}
	return nil
}

// Validate runs ValidateN on the modulus of pk.
func (pk *PublicKey) Validate() error {
	if pk == nil || pk.n == nil {
		return fmt.Errorf("%w: key is nil", ErrInvalidPublicKey)
	}
	return ValidateN(pk.n.Modulus)
}

// Enc returns the encryption of m under the public key pk, with a freshly
// sampled nonce ρ read from rand.
// The nonce used to encrypt is always returned.
//
// ct = (1+N)ᵐρᴺ (mod N²).
func (pk *PublicKey) Enc(rand io.Reader, m *saferith.Nat) (*Ciphertext, *saferith.Nat, error) {
	nonce, err := pk.Nonce(rand)
	if err != nil {
		return nil, nil, fmt.Errorf("paillier: enc: %w", err)
	}
	ct, err := pk.EncWithNonce(m, nonce)
	if err != nil {
		return nil, nil, err
	}
	return ct, nonce, nil
}

// EncWithNonce returns the encryption of m under the public key pk, with the given nonce.
// m must be in [0, N), and the nonce in ℤₙˣ.
//
// ct = (1+N)ᵐρᴺ (mod N²).
func (pk *PublicKey) EncWithNonce(m, nonce *saferith.Nat) (*Ciphertext, error) {
	if !arith.IsInRange(pk.n.Modulus, m) {
		return nil, ErrPlaintextOutOfRange
	}
	if !arith.IsValidNatModN(pk.n.Modulus, nonce) {
		return nil, fmt.Errorf("paillier: enc: nonce is not a unit mod N")
	}
	// (N+1)ᵐ mod N²
	c := pk.nSquared.Exp(pk.nPlusOne, m)
	// ρᴺ mod N²
	rhoN := pk.nSquared.Exp(nonce, pk.nNat)
	// (N+1)ᵐ ρᴺ mod N²
	c.ModMul(c, rhoN, pk.nSquared.Modulus)

	return &Ciphertext{c: c}, nil
}

// Equal returns true if pk ≡ other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return pk.nNat.Eq(other.nNat) == 1
}

// ValidateCiphertexts checks if all ciphertexts are in the correct range and coprime to N²
// ct ∈ [1, …, N²-1] AND GCD(ct,N²) = 1.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil {
			return false
		}
		if !arith.IsValidNatModN(pk.nSquared.Modulus, ct.c) {
			return false
		}
	}
	return true
}

// Nonce returns a suitable nonce ρ ∈ ℤₙˣ for encryption.
func (pk *PublicKey) Nonce(rand io.Reader) (*saferith.Nat, error) {
	return sample.UnitModN(rand, pk.n.Modulus)
}

// N is the public modulus making up this key.
func (pk *PublicKey) N() *arith.Modulus {
	return pk.n
}

// ModulusSquared returns the modulus N² of the ciphertext space.
func (pk *PublicKey) ModulusSquared() *arith.Modulus {
	return pk.nSquared
}

// Generator returns g = N+1.
// WARNING: Do not modify the returned value.
func (pk *PublicKey) Generator() *saferith.Nat {
	return pk.nPlusOne
}

// BitLen returns the size of N in bits.
func (pk *PublicKey) BitLen() int {
	return pk.n.BitLen()
}
