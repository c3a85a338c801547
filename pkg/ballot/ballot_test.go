package ballot

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
	"github.com/taurusgroup/zkvote/pkg/pool"
	zkmember "github.com/taurusgroup/zkvote/pkg/zk/member"
)

var (
	testPublicKey *paillier.PublicKey
	testSecretKey *paillier.SecretKey
)

func init() {
	var err error
	testPublicKey, testSecretKey, err = paillier.KeyGen(sample.Seeded([]byte("ballot test key")), nil, 256)
	if err != nil {
		panic(err)
	}
}

// cheat returns a ballot encrypting m, with a proof claiming the vote is for claimed.
func cheat(t *testing.T, m uint64, claimed Choice) *Ballot {
	ct, nonce, err := testPublicKey.Enc(rand.Reader, new(saferith.Nat).SetUint64(m))
	require.NoError(t, err)
	proof, err := zkmember.NewProof(rand.Reader, hash.New(), zkmember.Public{
		Key:        testPublicKey,
		C:          ct,
		Candidates: Candidates(),
	}, zkmember.Private{Nonce: nonce, Index: int(claimed)})
	require.NoError(t, err)
	return &Ballot{Ciphertext: ct, Proof: proof}
}

func TestChoice(t *testing.T) {
	expected := []uint64{1, 100, 10000}
	for i, c := range Choices {
		assert.True(t, c.Valid())
		assert.Equal(t, saferith.Choice(1), c.Plaintext().Eq(new(saferith.Nat).SetUint64(expected[i])))
		parsed, err := ParseChoice(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.False(t, Choice(3).Valid())
	assert.False(t, Choice(-1).Valid())
	_, err := ParseChoice("abstain")
	assert.ErrorIs(t, err, ErrInvalidChoice)

	seen := make(map[Choice]bool)
	r := sample.Seeded([]byte("choices"))
	for i := 0; i < 64; i++ {
		c, err := RandomChoice(r)
		require.NoError(t, err)
		require.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, 3)
}

func TestCast(t *testing.T) {
	for _, c := range Choices {
		b, err := Cast(rand.Reader, hash.New(), testPublicKey, c)
		require.NoError(t, err)
		assert.NoError(t, b.Verify(hash.New(), testPublicKey))

		m, err := testSecretKey.Dec(b.Ciphertext)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), m.Eq(c.Plaintext()))
	}

	_, err := Cast(rand.Reader, hash.New(), testPublicKey, Choice(7))
	assert.ErrorIs(t, err, ErrInvalidChoice)

	var b *Ballot
	assert.ErrorIs(t, b.Verify(hash.New(), testPublicKey), ErrInvalidBallot)
	assert.ErrorIs(t, (&Ballot{}).Verify(hash.New(), testPublicKey), ErrInvalidBallot)
}

func TestBallot_Marshal(t *testing.T) {
	b, err := Cast(rand.Reader, hash.New(), testPublicKey, Increase)
	require.NoError(t, err)

	data, err := b.MarshalBinary()
	require.NoError(t, err)
	b2 := new(Ballot)
	require.NoError(t, b2.UnmarshalBinary(data))
	assert.True(t, b.Ciphertext.Equal(b2.Ciphertext))
	assert.NoError(t, b2.Verify(hash.New(), testPublicKey))

	r1, err := b.Receipt()
	require.NoError(t, err)
	r2, err := b2.Receipt()
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	mh, err := multihash.FromB58String(r1)
	require.NoError(t, err)
	decoded, err := multihash.Decode(mh)
	require.NoError(t, err)
	assert.Equal(t, uint64(multihash.SHA2_256), decoded.Code)

	other, err := Cast(rand.Reader, hash.New(), testPublicKey, Increase)
	require.NoError(t, err)
	r3, err := other.Receipt()
	require.NoError(t, err)
	assert.NotEqual(t, r1, r3, "same vote, different receipts")
}

func TestTally(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	votes := []Choice{Increase, Increase, Decrease, Unchanged, Increase}
	var ballots []*Ballot
	for i, c := range votes {
		b, err := Cast(sample.Seeded([]byte(fmt.Sprintf("voter %d", i))), hash.New(), testPublicKey, c)
		require.NoError(t, err)
		ballots = append(ballots, b)
	}
	// 50 is not a valid vote, but would shift the counts if it were summed
	ballots = append(ballots, cheat(t, 50, Unchanged), nil)

	res, err := Tally(pl, hash.New, testPublicKey, ballots)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Accepted)
	assert.Equal(t, []int{5, 6}, res.Rejected)

	m, err := testSecretKey.Dec(res.Sum)
	require.NoError(t, err)
	assert.Equal(t, saferith.Choice(1), m.Eq(new(saferith.Nat).SetUint64(30101)))

	counts, err := Decode(m)
	require.NoError(t, err)
	assert.Equal(t, Counts{1, 1, 3}, counts)
	assert.Equal(t, 5, counts.Total())
	assert.Equal(t, Decision{Choice: Increase}, counts.Decision())
}

func TestTally_Empty(t *testing.T) {
	res, err := Tally(nil, hash.New, testPublicKey, nil)
	require.NoError(t, err)
	m, err := testSecretKey.Dec(res.Sum)
	require.NoError(t, err)
	counts, err := Decode(m)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
	assert.True(t, counts.Decision().Tie)
}

func TestVerifyAll(t *testing.T) {
	good, err := Cast(rand.Reader, hash.New(), testPublicKey, Decrease)
	require.NoError(t, err)
	bad := cheat(t, 50, Decrease)

	// a different hash function changes every challenge
	errs := VerifyAll(nil, hash.BLAKE3.New, testPublicKey, []*Ballot{good})
	assert.ErrorIs(t, errs[0], zkmember.ErrVerification)

	errs = VerifyAll(nil, hash.New, testPublicKey, []*Ballot{good, bad})
	assert.NoError(t, errs[0])
	assert.Equal(t, zkmember.FailBranch(int(Decrease)), zkmember.Failures(errs[1]))
}

func TestDecode(t *testing.T) {
	counts, err := Decode(new(saferith.Nat).SetUint64(990000))
	require.NoError(t, err)
	assert.Equal(t, Counts{0, 0, 99}, counts)
	assert.Equal(t, Decision{Choice: Increase, Unanimous: true}, counts.Decision())

	_, err = Decode(new(saferith.Nat).SetUint64(1000000))
	assert.ErrorIs(t, err, ErrInvalidTally)

	_, err = Decode(new(saferith.Nat).SetUint64(505050))
	assert.ErrorIs(t, err, ErrTooManyVoters)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidTally)
}

func TestCounts_Decision(t *testing.T) {
	cases := []struct {
		counts   Counts
		expected Decision
	}{
		{Counts{0, 7, 0}, Decision{Choice: Unchanged, Unanimous: true}},
		{Counts{3, 0, 0}, Decision{Choice: Decrease, Unanimous: true}},
		{Counts{2, 1, 1}, Decision{Choice: Decrease}},
		{Counts{1, 4, 2}, Decision{Choice: Unchanged}},
		{Counts{3, 1, 3}, Decision{Choice: Unchanged, Tie: true}},
		{Counts{4, 4, 1}, Decision{Choice: Unchanged, Tie: true}},
		{Counts{2, 2, 2}, Decision{Choice: Unchanged, Tie: true}},
		// a tie below the leader is not a tie
		{Counts{1, 1, 5}, Decision{Choice: Increase}},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, c.counts.Decision(), "%v", c.counts)
	}
	assert.Equal(t, "consensus not reached, block size unchanged", Counts{3, 1, 3}.Decision().String())
	assert.Equal(t, "majority vote: increase", Counts{1, 1, 5}.Decision().String())
	assert.Equal(t, "unanimous vote: decrease", Counts{3, 0, 0}.Decision().String())
}

func TestResult_Decrypt(t *testing.T) {
	b, err := Cast(rand.Reader, hash.New(), testPublicKey, Unchanged)
	require.NoError(t, err)
	res, err := Tally(nil, hash.New, testPublicKey, []*Ballot{b, b})
	require.NoError(t, err)

	d, err := res.Decrypt(rand.Reader, hash.New(), testSecretKey)
	require.NoError(t, err)
	assert.True(t, d.Verify(hash.New(), testPublicKey, res))
	assert.Equal(t, saferith.Choice(1), d.Plaintext.Eq(new(saferith.Nat).SetUint64(200)))

	forged := &Decryption{Plaintext: new(saferith.Nat).SetUint64(10100), Proof: d.Proof}
	assert.False(t, forged.Verify(hash.New(), testPublicKey, res))
}
