package ballot

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/sirupsen/logrus"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/paillier"
	"github.com/taurusgroup/zkvote/pkg/pool"
	zkmember "github.com/taurusgroup/zkvote/pkg/zk/member"
)

const (
	radix = 100

	// MaxVoters is the largest number of ballots a single tally can count
	// before a base-100 digit overflows into the next.
	MaxVoters = radix - 1
)

var (
	ErrTooManyVoters = fmt.Errorf("ballot: more than %d accepted ballots", MaxVoters)
	ErrInvalidTally  = errors.New("ballot: decrypted tally is not a packed count")
)

// VerifyAll verifies every ballot on the pool, each against a fresh hash from newHash.
// The i-th error is nil if and only if ballots[i] is accepted.
func VerifyAll(pl *pool.Pool, newHash func() *hash.Hash, pk *paillier.PublicKey, ballots []*Ballot) []error {
	results := pl.Parallelize(len(ballots), func(i int) interface{} {
		return ballots[i].Verify(newHash(), pk)
	})
	errs := make([]error, len(ballots))
	for i, res := range results {
		if res != nil {
			errs[i] = res.(error)
		}
	}
	return errs
}

// Result is the outcome of Tally.
type Result struct {
	// Sum is the homomorphic sum of the accepted ballots.
	Sum *paillier.Ciphertext
	// Accepted and Rejected hold indices into the tallied ballots.
	Accepted, Rejected []int
}

// Tally verifies the ballots and sums the ones that pass.
// Rejected ballots are logged and left out of the sum.
func Tally(pl *pool.Pool, newHash func() *hash.Hash, pk *paillier.PublicKey, ballots []*Ballot) (*Result, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	// the empty sum is the encryption of 0 with nonce 1
	res := &Result{Sum: paillier.NewCiphertext(new(saferith.Nat).SetUint64(1))}
	for i, err := range VerifyAll(pl, newHash, pk, ballots) {
		if err != nil {
			Logger.WithFields(logrus.Fields{
				"ballot":   i,
				"failures": zkmember.Failures(err).String(),
			}).WithError(err).Warn("rejecting ballot")
			res.Rejected = append(res.Rejected, i)
			continue
		}
		res.Sum.Add(pk, ballots[i].Ciphertext)
		res.Accepted = append(res.Accepted, i)
	}
	if len(res.Accepted) > MaxVoters {
		return nil, fmt.Errorf("%w: %d", ErrTooManyVoters, len(res.Accepted))
	}
	Logger.WithFields(logrus.Fields{
		"accepted": len(res.Accepted),
		"rejected": len(res.Rejected),
	}).Debug("tally complete")
	return res, nil
}

// Counts holds the number of votes per Choice.
type Counts [params.Candidates]int

// Decode unpacks a decrypted tally m = ∑ᵢ countᵢ⋅100ⁱ.
func Decode(plaintext *saferith.Nat) (Counts, error) {
	var counts Counts
	if plaintext == nil {
		return counts, ErrInvalidTally
	}
	m := plaintext.Big()
	r := big.NewInt(radix)
	digit := new(big.Int)
	total := 0
	for i := range counts {
		m.QuoRem(m, r, digit)
		counts[i] = int(digit.Int64())
		total += counts[i]
	}
	if m.Sign() != 0 {
		return Counts{}, ErrInvalidTally
	}
	if total > MaxVoters {
		return Counts{}, fmt.Errorf("%w: %d", ErrTooManyVoters, total)
	}
	return counts, nil
}

// Total returns the number of votes.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Decision is the outcome of a vote.
type Decision struct {
	Choice Choice
	// Unanimous is set when every vote went to Choice.
	Unanimous bool
	// Tie is set when no single choice has the most votes. Choice is then Unchanged.
	Tie bool
}

// Decision returns the plurality choice. A tie for first place keeps things Unchanged.
func (c Counts) Decision() Decision {
	best := Decrease
	for _, choice := range Choices[1:] {
		if c[choice] > c[best] {
			best = choice
		}
	}
	tied := 0
	for _, n := range c {
		if n == c[best] {
			tied++
		}
	}
	if tied > 1 {
		return Decision{Choice: Unchanged, Tie: true}
	}
	return Decision{
		Choice:    best,
		Unanimous: c[best] == c.Total(),
	}
}

func (d Decision) String() string {
	switch {
	case d.Tie:
		return "consensus not reached, block size unchanged"
	case d.Unanimous:
		return fmt.Sprintf("unanimous vote: %s", d.Choice)
	default:
		return fmt.Sprintf("majority vote: %s", d.Choice)
	}
}
