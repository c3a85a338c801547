// Package zkmember proves that a Paillier ciphertext encrypts one of three
// public plaintexts, without revealing which one.
//
// The proof is a disjunction of three Σ-protocols for "c⋅g⁻ᵐᵏ is an N-th residue"
// (see zknth), made non-interactive with the Fiat-Shamir transform. The prover
// simulates the two branches it cannot answer, and splits the hashed challenge
// so that it only has to answer the real one.
package zkmember

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/arith"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
)

var (
	ErrInvalidIndex      = errors.New("zkmember: index out of range")
	ErrInvalidCandidate  = errors.New("zkmember: candidate out of range")
	ErrInvalidCiphertext = errors.New("zkmember: invalid ciphertext")
	ErrInvalidNonce      = errors.New("zkmember: nonce is not a unit mod N")
)

// Candidates is the ordered set of plaintexts (m₀, m₁, m₂) the ciphertext is claimed to encrypt.
type Candidates [params.Candidates]*saferith.Nat

// NewCandidates returns the candidate set (m₀, m₁, m₂).
func NewCandidates(m0, m1, m2 uint64) Candidates {
	return Candidates{
		new(saferith.Nat).SetUint64(m0),
		new(saferith.Nat).SetUint64(m1),
		new(saferith.Nat).SetUint64(m2),
	}
}

type Public struct {
	// Key is the Paillier public key under which C was encrypted.
	Key *paillier.PublicKey

	// C = (1+N)ᵐρᴺ (mod N²)
	C *paillier.Ciphertext

	// Candidates contains m.
	Candidates Candidates
}

type Private struct {
	// Nonce = ρ
	Nonce *saferith.Nat

	// Index of m in Public.Candidates.
	Index int
}

type Commitment struct {
	// A[k] = zₖᴺ⋅uₖ⁻ᵉᵏ (mod N²), and A[i] = ωᴺ (mod N²) for the real index i.
	A [params.Candidates]*saferith.Nat
}

type Proof struct {
	Commitment
	// E[k] ∈ [0, 2ᵇ), with ∑ₖ E[k] = EC (mod 2ᵇ)
	E [params.Candidates]*saferith.Nat
	// Z[k] ∈ ℤₙˣ, and Z[i] = ωρᵉⁱ (mod N) for the real index i.
	Z [params.Candidates]*saferith.Nat
	// EC = H(A[0] ‖ A[1] ‖ A[2]) (mod 2ᵇ)
	EC *saferith.Nat
}

// statement holds the values derived from Public that both the prover and
// the verifier need.
type statement struct {
	n, nSquared *arith.Modulus
	nNat        *saferith.Nat
	// challengeModulus = 2ᵇ
	challengeModulus *saferith.Modulus
	// u[k] = c⋅g⁻ᵐᵏ (mod N²)
	u [params.Candidates]*saferith.Nat
}

func newStatement(public Public) (*statement, error) {
	if err := public.Key.Validate(); err != nil {
		return nil, err
	}
	n := public.Key.N()
	nSquared := public.Key.ModulusSquared()
	if !public.Key.ValidateCiphertexts(public.C) {
		return nil, ErrInvalidCiphertext
	}
	s := &statement{
		n:                n,
		nSquared:         nSquared,
		nNat:             n.Nat(),
		challengeModulus: arith.PowerOfTwo(params.ChallengeBits(public.Key.BitLen())),
	}
	g := public.Key.Generator()
	for k, m := range public.Candidates {
		if !arith.IsInRange(n.Modulus, m) {
			return nil, fmt.Errorf("%w: candidate %d", ErrInvalidCandidate, k)
		}
		// u = c⋅g⁻ᵐ (mod N²)
		u := nSquared.ExpNeg(g, m)
		s.u[k] = u.ModMul(u, public.C.Nat(), nSquared.Modulus)
	}
	return s, nil
}

// NewProof generates a proof that public.C encrypts public.Candidates[private.Index],
// using private.Nonce as the witness.
//
// The randomness for the proof is read from rand. The challenge is derived
// from a clone of hash, which is left untouched.
// No partial proof is returned: any error aborts the generation.
func NewProof(rand io.Reader, hash *hash.Hash, public Public, private Private) (*Proof, error) {
	s, err := newStatement(public)
	if err != nil {
		return nil, err
	}
	index := private.Index
	if index < 0 || index >= params.Candidates {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if !arith.IsValidNatModN(s.n.Modulus, private.Nonce) {
		return nil, ErrInvalidNonce
	}

	challengeBits := s.challengeModulus.BitLen() - 1
	proof := &Proof{}

	// Simulate the branches we can't answer.
	for k := range public.Candidates {
		if k == index {
			continue
		}
		// eₖ ← [0, 2ᵇ)
		e, err := sample.Bits(rand, challengeBits)
		if err != nil {
			return nil, fmt.Errorf("zkmember: sample challenge %d: %w", k, err)
		}
		// zₖ ← ℤₙˣ
		z, err := sample.UnitModN(rand, s.n.Modulus)
		if err != nil {
			return nil, fmt.Errorf("zkmember: sample response %d: %w", k, err)
		}
		// aₖ = zₖᴺ⋅uₖ⁻ᵉᵏ (mod N²)
		a := s.nSquared.Exp(z, s.nNat)
		a.ModMul(a, s.nSquared.ExpNeg(s.u[k], e), s.nSquared.Modulus)

		proof.A[k] = a
		proof.E[k] = e
		proof.Z[k] = z
	}

	// ω ← ℤₙˣ
	omega, err := sample.UnitModN(rand, s.n.Modulus)
	if err != nil {
		return nil, fmt.Errorf("zkmember: sample commitment: %w", err)
	}
	// aᵢ = ωᴺ (mod N²)
	proof.A[index] = s.nSquared.Exp(omega, s.nNat)

	proof.EC, err = challenge(hash, proof.Commitment, s.challengeModulus)
	if err != nil {
		return nil, err
	}

	// eᵢ = e - ∑ₖ eₖ (mod 2ᵇ)
	e := new(saferith.Nat).SetNat(proof.EC)
	for k := range public.Candidates {
		if k != index {
			e.ModSub(e, proof.E[k], s.challengeModulus)
		}
	}
	proof.E[index] = e

	// zᵢ = ωρᵉⁱ (mod N)
	z := s.n.Exp(private.Nonce, e)
	proof.Z[index] = z.ModMul(z, omega, s.n.Modulus)

	proof.normalize(s)
	return proof, nil
}

// normalize reduces every field of the proof to its canonical modulus.
// The sizes of the fields then only depend on N, and never on the real index.
func (p *Proof) normalize(s *statement) {
	for k := range p.A {
		p.A[k] = new(saferith.Nat).Mod(p.A[k], s.nSquared.Modulus)
		p.E[k] = new(saferith.Nat).Mod(p.E[k], s.challengeModulus)
		p.Z[k] = new(saferith.Nat).Mod(p.Z[k], s.n.Modulus)
	}
	p.EC = new(saferith.Nat).Mod(p.EC, s.challengeModulus)
}

// IsValid checks that every field of the proof is present and in range.
func (p *Proof) IsValid(public Public) bool {
	s, err := newStatement(public)
	if err != nil {
		return false
	}
	return p.isValid(s)
}

func (p *Proof) isValid(s *statement) bool {
	if p == nil {
		return false
	}
	if !arith.IsValidNatModN(s.nSquared.Modulus, p.A[:]...) {
		return false
	}
	if !arith.IsValidNatModN(s.n.Modulus, p.Z[:]...) {
		return false
	}
	if !arith.IsInRange(s.challengeModulus, p.E[:]...) {
		return false
	}
	if !arith.IsInRange(s.challengeModulus, p.EC) {
		return false
	}
	return true
}

// Verify checks the proof against public, and returns nil if it accepts.
//
// A rejected proof yields a *VerificationError listing every check that
// failed; it matches ErrVerification with errors.Is. Any other error means
// that the public input itself is unusable (invalid key, ciphertext or candidates).
//
// The challenge is recomputed from a clone of hash, which must be in the
// same state as the one given to NewProof.
func (p *Proof) Verify(hash *hash.Hash, public Public) error {
	s, err := newStatement(public)
	if err != nil {
		return err
	}
	if !p.isValid(s) {
		return &VerificationError{Failures: FailMalformed}
	}

	var failures Failure

	// e = H(a₀ ‖ a₁ ‖ a₂) (mod 2ᵇ)
	ec, err := challenge(hash, p.Commitment, s.challengeModulus)
	if err != nil {
		return err
	}
	if ec.Eq(p.EC) != 1 {
		failures |= FailChallengeHash
	}

	// ∑ₖ eₖ = e (mod 2ᵇ)
	sum := new(saferith.Nat).SetUint64(0)
	for _, e := range p.E {
		sum.ModAdd(sum, e, s.challengeModulus)
	}
	if sum.Eq(p.EC) != 1 {
		failures |= FailChallengeSum
	}

	// zₖᴺ = aₖ⋅uₖᵉᵏ (mod N²)
	for k := range p.A {
		lhs := s.nSquared.Exp(p.Z[k], s.nNat)
		rhs := s.nSquared.Exp(s.u[k], p.E[k])
		rhs.ModMul(rhs, p.A[k], s.nSquared.Modulus)
		if lhs.Eq(rhs) != 1 {
			failures |= FailBranch(k)
		}
	}

	if failures != 0 {
		return &VerificationError{Failures: failures}
	}
	return nil
}

// challenge computes H(a₀ ‖ a₁ ‖ a₂) (mod 2ᵇ) over the decimal encoding of the commitments.
func challenge(hash *hash.Hash, commitment Commitment, challengeModulus *saferith.Modulus) (*saferith.Nat, error) {
	h := hash.Clone()
	if err := h.WriteDecimal(commitment.A[:]...); err != nil {
		return nil, fmt.Errorf("zkmember: challenge: %w", err)
	}
	return h.Challenge(challengeModulus), nil
}
