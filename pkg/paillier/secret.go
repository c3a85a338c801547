package paillier

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/pkg/math/arith"
)

// SecretKey is the secret key corresponding to a Public Paillier Key.
//
// A public key is a modulus N, and the secret key contains the information
// needed to factor N into two primes, P and Q. This allows us to decrypt
// values encrypted using this modulus.
type SecretKey struct {
	*PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// phi = ϕ = (p-1)(q-1)
	phi *saferith.Nat
	// phiInv = ϕ⁻¹ mod N
	phiInv *saferith.Nat
}

// P returns the first of the two factors composing this key.
func (sk *SecretKey) P() *saferith.Nat {
	return sk.p
}

// Q returns the second of the two factors composing this key.
func (sk *SecretKey) Q() *saferith.Nat {
	return sk.q
}

// Phi returns ϕ = (P-1)(Q-1).
func (sk *SecretKey) Phi() *saferith.Nat {
	return sk.phi
}

// NewSecretKeyFromPrimes generates a new SecretKey. Assumes that P and Q are distinct primes.
func NewSecretKeyFromPrimes(P, Q *saferith.Nat) *SecretKey {
	oneNat := new(saferith.Nat).SetUint64(1)

	n := arith.ModulusFromFactors(P, Q)

	nNat := n.Nat()
	nPlusOne := new(saferith.Nat).Add(nNat, oneNat, -1)
	// Tightening is fine, since n is public
	nPlusOne.Resize(nPlusOne.TrueLen())

	pMinus1 := new(saferith.Nat).Sub(P, oneNat, -1)
	qMinus1 := new(saferith.Nat).Sub(Q, oneNat, -1)
	phi := new(saferith.Nat).Mul(pMinus1, qMinus1, -1)
	// ϕ⁻¹ mod N
	phiInv := new(saferith.Nat).ModInverse(phi, n.Modulus)

	pSquared := new(saferith.Nat).Mul(P, P, -1)
	qSquared := new(saferith.Nat).Mul(Q, Q, -1)
	nSquared := arith.ModulusFromFactors(pSquared, qSquared)

	return &SecretKey{
		p:      P,
		q:      Q,
		phi:    phi,
		phiInv: phiInv,
		PublicKey: &PublicKey{
			n:        n,
			nSquared: nSquared,
			nNat:     nNat,
			nPlusOne: nPlusOne,
		},
	}
}

// Dec decrypts c and returns the plaintext m ∈ [0, N).
// It returns an error if gcd(c, N²) != 1 or if c is not in [1, N²-1].
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Nat, error) {
	oneNat := new(saferith.Nat).SetUint64(1)

	n := sk.PublicKey.n.Modulus

	if !sk.PublicKey.ValidateCiphertexts(ct) {
		return nil, fmt.Errorf("paillier: failed to decrypt: %w", ErrInvalidCiphertext)
	}

	// r = c^Phi 						(mod N²)
	result := sk.PublicKey.nSquared.Exp(ct.c, sk.phi)
	// r = c^Phi - 1
	result.Sub(result, oneNat, -1)
	// r = [(c^Phi - 1)/N]
	result.Div(result, n, -1)
	// r = [(c^Phi - 1)/N] • Phi^-1		(mod N)
	result.ModMul(result, sk.phiInv, n)
	return result, nil
}

// DecWithNonce returns the plaintext m of ct, as well as the nonce ρ such that
// ct = (1+N)ᵐρᴺ (mod N²).
func (sk *SecretKey) DecWithNonce(ct *Ciphertext) (*saferith.Nat, *saferith.Nat, error) {
	m, err := sk.Dec(ct)
	if err != nil {
		return nil, nil, err
	}

	// x = C(N+1)⁻ᵐ (mod N)
	x := sk.n.ExpNeg(sk.nPlusOne, m)
	x.ModMul(x, ct.c, sk.n.Modulus)

	// ρ = xⁿ⁻¹ (mod N)
	nInverse := new(saferith.Nat).ModInverse(sk.nNat, saferith.ModulusFromNat(sk.phi))
	return m, sk.n.Exp(x, nInverse), nil
}
