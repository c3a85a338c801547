package paillier

import (
	"github.com/cronokirby/saferith"
)

// Ciphertext represents an integer of the for (1+N)ᵐρᴺ (mod N²), representing the encryption of m ∈ ℤₙ.
type Ciphertext struct {
	c *saferith.Nat
}

// NewCiphertext wraps an existing value c ∈ ℤ_N², for instance one received from another party.
// The value is copied. It should be checked with PublicKey.ValidateCiphertexts before use.
func NewCiphertext(c *saferith.Nat) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(c)}
}

// Add sets ct to the homomorphic sum ct ⊕ ct₂.
// ct ← ct•ct₂ (mod N²).
func (ct *Ciphertext) Add(pk *PublicKey, ct2 *Ciphertext) *Ciphertext {
	if ct2 == nil {
		return ct
	}

	ct.c.ModMul(ct.c, ct2.c, pk.nSquared.Modulus)

	return ct
}

// Mul sets ct to the homomorphic multiplication of k ⊙ ct.
// ct ← ctᵏ (mod N²).
func (ct *Ciphertext) Mul(pk *PublicKey, k *saferith.Nat) *Ciphertext {
	if k == nil {
		return ct
	}

	ct.c = pk.nSquared.Exp(ct.c, k)

	return ct
}

// Equal check whether ct ≡ ctₐ (mod N²).
func (ct *Ciphertext) Equal(ctA *Ciphertext) bool {
	return ct.c.Eq(ctA.c) == 1
}

// Clone returns a deep copy of ct.
func (ct Ciphertext) Clone() *Ciphertext {
	c := new(saferith.Nat).SetNat(ct.c)
	return &Ciphertext{c: c}
}

// Nat returns the value of ct as an element of ℤ_N².
// For efficiency, the value returned is a pointer to the same underlying value.
// WARNING: Do not modify the returned value.
func (ct *Ciphertext) Nat() *saferith.Nat {
	return ct.c
}
