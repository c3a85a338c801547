// Package ballot casts encrypted three-way votes and tallies them homomorphically.
//
// A vote for choice i is the Paillier encryption of 100ⁱ, accompanied by a
// zkmember proof that the ciphertext encrypts one of 1, 100 or 10000.
// Summing the accepted ciphertexts gives an encryption of the packed
// counts, which the key holder decrypts and unpacks in base 100.
package ballot

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/multiformats/go-multihash"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
	zkmember "github.com/taurusgroup/zkvote/pkg/zk/member"
)

var (
	ErrInvalidChoice = errors.New("ballot: invalid choice")
	ErrInvalidBallot = errors.New("ballot: missing ciphertext or proof")
)

// Choice is the index of a vote among the candidates.
type Choice int

const (
	Decrease Choice = iota
	Unchanged
	Increase
)

// Choices lists every valid choice, in candidate order.
var Choices = [params.Candidates]Choice{Decrease, Unchanged, Increase}

// Valid returns true for Decrease, Unchanged and Increase.
func (c Choice) Valid() bool {
	return c >= Decrease && c <= Increase
}

// Plaintext returns 100ᶜ, the value encrypted by a vote for c.
func (c Choice) Plaintext() *saferith.Nat {
	v := uint64(1)
	for i := Choice(0); i < c; i++ {
		v *= radix
	}
	return new(saferith.Nat).SetUint64(v)
}

func (c Choice) String() string {
	switch c {
	case Decrease:
		return "decrease"
	case Unchanged:
		return "unchanged"
	case Increase:
		return "increase"
	default:
		return fmt.Sprintf("Choice(%d)", int(c))
	}
}

// ParseChoice is the inverse of Choice.String.
func ParseChoice(s string) (Choice, error) {
	for _, c := range Choices {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidChoice, s)
}

// RandomChoice draws a uniform choice from rand.
func RandomChoice(rand io.Reader) (Choice, error) {
	i, err := sample.ModN(rand, saferith.ModulusFromUint64(params.Candidates))
	if err != nil {
		return 0, err
	}
	return Choice(i.Big().Int64()), nil
}

// Candidates returns (1, 100, 10000).
func Candidates() zkmember.Candidates {
	var out zkmember.Candidates
	for i, c := range Choices {
		out[i] = c.Plaintext()
	}
	return out
}

// Ballot is an encrypted vote with its proof of well-formedness.
type Ballot struct {
	Ciphertext *paillier.Ciphertext
	Proof      *zkmember.Proof
}

// Cast encrypts choice under pk and proves that the result is a valid vote.
// The nonce of the encryption is discarded once the proof is made.
func Cast(rand io.Reader, h *hash.Hash, pk *paillier.PublicKey, choice Choice) (*Ballot, error) {
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChoice, choice)
	}
	ct, nonce, err := pk.Enc(rand, choice.Plaintext())
	if err != nil {
		return nil, fmt.Errorf("ballot: cast: %w", err)
	}
	public := zkmember.Public{
		Key:        pk,
		C:          ct,
		Candidates: Candidates(),
	}
	proof, err := zkmember.NewProof(rand, h, public, zkmember.Private{
		Nonce: nonce,
		Index: int(choice),
	})
	if err != nil {
		return nil, fmt.Errorf("ballot: cast: %w", err)
	}
	return &Ballot{Ciphertext: ct, Proof: proof}, nil
}

// Verify checks the proof of b under pk. h must be in the same state as the
// one used by Cast.
func (b *Ballot) Verify(h *hash.Hash, pk *paillier.PublicKey) error {
	if b == nil || b.Ciphertext == nil || b.Proof == nil {
		return ErrInvalidBallot
	}
	return b.Proof.Verify(h, zkmember.Public{
		Key:        pk,
		C:          b.Ciphertext,
		Candidates: Candidates(),
	})
}

// Receipt returns the base58 SHA2-256 multihash of the encoded ciphertext.
// Voters use it to find their ballot in a published list.
func (b *Ballot) Receipt() (string, error) {
	if b == nil || b.Ciphertext == nil {
		return "", ErrInvalidBallot
	}
	data, err := b.Ciphertext.MarshalBinary()
	if err != nil {
		return "", err
	}
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return mh.B58String(), nil
}

type cborBallot struct {
	Ciphertext []byte `cbor:"1,keyasint"`
	Proof      []byte `cbor:"2,keyasint"`
}

func (b *Ballot) MarshalBinary() ([]byte, error) {
	if b.Ciphertext == nil || b.Proof == nil {
		return nil, ErrInvalidBallot
	}
	ct, err := b.Ciphertext.MarshalBinary()
	if err != nil {
		return nil, err
	}
	proof, err := b.Proof.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(cborBallot{Ciphertext: ct, Proof: proof})
}

func (b *Ballot) UnmarshalBinary(data []byte) error {
	var x cborBallot
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	ct := new(paillier.Ciphertext)
	if err := ct.UnmarshalBinary(x.Ciphertext); err != nil {
		return err
	}
	proof := new(zkmember.Proof)
	if err := proof.UnmarshalBinary(x.Proof); err != nil {
		return err
	}
	b.Ciphertext, b.Proof = ct, proof
	return nil
}
