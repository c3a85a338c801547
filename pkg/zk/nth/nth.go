// Package zknth proves that a Paillier ciphertext decrypts to a public plaintext m,
// by showing that c⋅g⁻ᵐ (mod N²) is an N-th residue.
//
// zkmember is the disjunction of three of these.
package zknth

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/arith"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
)

type Public struct {
	// Key is the Paillier public key of C.
	Key *paillier.PublicKey

	// C = (1+N)ᵐρᴺ (mod N²)
	C *paillier.Ciphertext

	// M = m
	M *saferith.Nat
}

type Private struct {
	// Nonce = ρ
	Nonce *saferith.Nat
}

type Commitment struct {
	// A = αᴺ (mod N²)
	A *saferith.Nat
}

type Proof struct {
	Commitment
	// Z = αρᵉ (mod N)
	Z *saferith.Nat
}

// residue returns u = c⋅g⁻ᵐ (mod N²).
func residue(public Public) (*saferith.Nat, error) {
	if err := public.Key.Validate(); err != nil {
		return nil, err
	}
	if !public.Key.ValidateCiphertexts(public.C) {
		return nil, paillier.ErrInvalidCiphertext
	}
	if !arith.IsInRange(public.Key.N().Modulus, public.M) {
		return nil, paillier.ErrPlaintextOutOfRange
	}
	nSquared := public.Key.ModulusSquared()
	u := nSquared.ExpNeg(public.Key.Generator(), public.M)
	return u.ModMul(u, public.C.Nat(), nSquared.Modulus), nil
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil || public.Key.Validate() != nil {
		return false
	}
	if !arith.IsValidNatModN(public.Key.N().Modulus, p.Z) {
		return false
	}
	if !arith.IsValidNatModN(public.Key.ModulusSquared().Modulus, p.A) {
		return false
	}
	return true
}

// NewProof generates a proof that public.C = gᵐρᴺ (mod N²).
func NewProof(rand io.Reader, hash *hash.Hash, public Public, private Private) (*Proof, error) {
	if _, err := residue(public); err != nil {
		return nil, err
	}
	n := public.Key.N()
	if !arith.IsValidNatModN(n.Modulus, private.Nonce) {
		return nil, fmt.Errorf("zknth: nonce is not a unit mod N")
	}
	// α ← ℤₙˣ
	alpha, err := sample.UnitModN(rand, n.Modulus)
	if err != nil {
		return nil, fmt.Errorf("zknth: %w", err)
	}
	// A = αᴺ (mod N²)
	commitment := Commitment{
		A: public.Key.ModulusSquared().Exp(alpha, n.Nat()),
	}
	e, err := challenge(hash, public, commitment)
	if err != nil {
		return nil, err
	}
	// Z = αρᵉ (mod N)
	z := n.Exp(private.Nonce, e)
	z.ModMul(z, alpha, n.Modulus)
	return &Proof{
		Commitment: commitment,
		Z:          z,
	}, nil
}

func (p *Proof) Verify(hash *hash.Hash, public Public) bool {
	u, err := residue(public)
	if err != nil {
		return false
	}
	if !p.IsValid(public) {
		return false
	}

	e, err := challenge(hash, public, p.Commitment)
	if err != nil {
		return false
	}

	// Zᴺ = A⋅uᵉ (mod N²)
	nSquared := public.Key.ModulusSquared()
	lhs := nSquared.Exp(p.Z, public.Key.N().Nat())
	rhs := nSquared.Exp(u, e)
	rhs.ModMul(rhs, p.A, nSquared.Modulus)
	return lhs.Eq(rhs) == 1
}

// challenge computes H(N ‖ C ‖ M ‖ A) (mod 2ᵇ).
func challenge(hash *hash.Hash, public Public, commitment Commitment) (*saferith.Nat, error) {
	h := hash.Clone()
	if err := h.WriteDecimal(public.Key.N().Nat(), public.C.Nat(), public.M, commitment.A); err != nil {
		return nil, fmt.Errorf("zknth: challenge: %w", err)
	}
	return h.Challenge(arith.PowerOfTwo(params.ChallengeBits(public.Key.BitLen()))), nil
}
