package zknth

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
)

func TestNth(t *testing.T) {
	pk, sk, err := paillier.KeyGen(sample.Seeded([]byte("zknth test key")), nil, 256)
	require.NoError(t, err)

	m := new(saferith.Nat).SetUint64(30101)
	ct, _, err := pk.Enc(rand.Reader, m)
	require.NoError(t, err)

	// the key holder only knows the ciphertext
	m2, nonce, err := sk.DecWithNonce(ct)
	require.NoError(t, err)

	public := Public{Key: pk, C: ct, M: m2}
	proof, err := NewProof(rand.Reader, hash.New(), public, Private{Nonce: nonce})
	require.NoError(t, err)
	assert.True(t, proof.IsValid(public))
	assert.True(t, proof.Verify(hash.New(), public))
	assert.False(t, proof.Verify(hash.BLAKE3.New(), public))

	wrong := public
	wrong.M = new(saferith.Nat).SetUint64(30102)
	assert.False(t, proof.Verify(hash.New(), wrong), "proof must not verify for another plaintext")

	// a prover claiming the wrong plaintext cannot produce a valid proof
	proof, err = NewProof(rand.Reader, hash.New(), wrong, Private{Nonce: nonce})
	require.NoError(t, err)
	assert.False(t, proof.Verify(hash.New(), wrong))

	var nilProof *Proof
	assert.False(t, nilProof.Verify(hash.New(), public))

	_, err = NewProof(rand.Reader, hash.New(), public, Private{Nonce: new(saferith.Nat)})
	assert.Error(t, err)
}
