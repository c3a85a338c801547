package ballot

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/paillier"
	zknth "github.com/taurusgroup/zkvote/pkg/zk/nth"
)

// Decryption is a published tally: the plaintext of the sum, with a proof
// that the key holder decrypted it correctly.
type Decryption struct {
	Plaintext *saferith.Nat
	Proof     *zknth.Proof
}

// Decrypt opens the sum of the tally and proves that the result is correct.
func (r *Result) Decrypt(rand io.Reader, h *hash.Hash, sk *paillier.SecretKey) (*Decryption, error) {
	m, nonce, err := sk.DecWithNonce(r.Sum)
	if err != nil {
		return nil, err
	}
	proof, err := zknth.NewProof(rand, h, zknth.Public{
		Key: sk.PublicKey,
		C:   r.Sum,
		M:   m,
	}, zknth.Private{Nonce: nonce})
	if err != nil {
		return nil, err
	}
	return &Decryption{Plaintext: m, Proof: proof}, nil
}

// Verify checks that d is the decryption of the sum of the tally under pk.
func (d *Decryption) Verify(h *hash.Hash, pk *paillier.PublicKey, r *Result) bool {
	if d == nil || r == nil {
		return false
	}
	return d.Proof.Verify(h, zknth.Public{
		Key: pk,
		C:   r.Sum,
		M:   d.Plaintext,
	})
}
