// Command zkvote runs a complete encrypted vote on the block size:
// key generation, ballot casting with membership proofs, verification,
// homomorphic tally, decryption and decision.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cronokirby/saferith"
	"github.com/sirupsen/logrus"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/ballot"
	"github.com/taurusgroup/zkvote/pkg/hash"
	"github.com/taurusgroup/zkvote/pkg/math/sample"
	"github.com/taurusgroup/zkvote/pkg/paillier"
	"github.com/taurusgroup/zkvote/pkg/pool"
	zkmember "github.com/taurusgroup/zkvote/pkg/zk/member"
	"golang.org/x/sync/errgroup"
)

type config struct {
	bits    int
	voters  int
	seed    []byte
	cheat   bool
	hash    hash.Function
	workers int
}

func main() {
	var (
		cfg      config
		seedHex  string
		hashName string
		verbose  bool
	)
	flag.IntVar(&cfg.bits, "bits", params.DefaultModulusBits, "size of the Paillier modulus N")
	flag.IntVar(&cfg.voters, "voters", 10, fmt.Sprintf("number of voters, at most %d", ballot.MaxVoters))
	flag.StringVar(&seedHex, "seed", "", "hex seed for a reproducible run (default: OS entropy)")
	flag.BoolVar(&cfg.cheat, "cheat", false, "add a voter who encrypts 50 and claims to vote unchanged")
	flag.StringVar(&hashName, "hash", hash.SHA256.String(), "challenge hash: sha256, sha3-256 or blake3")
	flag.IntVar(&cfg.workers, "workers", 0, "worker pool size (default: number of CPUs)")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var err error
	if seedHex != "" {
		if cfg.seed, err = hex.DecodeString(seedHex); err != nil {
			logrus.Fatalf("invalid seed: %v", err)
		}
	}
	if cfg.hash, err = hash.ParseFunction(hashName); err != nil {
		logrus.Fatal(err)
	}
	if err = run(cfg, os.Stdout); err != nil {
		logrus.Fatal(err)
	}
}

// source returns the randomness for the given purpose, derived from the seed if there is one.
// Each voter gets its own stream so that parallel casting stays reproducible.
func (cfg config) source(purpose string) io.Reader {
	if cfg.seed == nil {
		return rand.Reader
	}
	return sample.Seeded(append(append([]byte{}, cfg.seed...), purpose...))
}

func run(cfg config, out io.Writer) error {
	if cfg.voters < 0 || cfg.voters > ballot.MaxVoters {
		return fmt.Errorf("voters must be in [0, %d]", ballot.MaxVoters)
	}

	pl := pool.NewPool(cfg.workers)
	defer pl.TearDown()

	// a seeded key must not depend on the scheduling of the prime search
	keyPool := pl
	if cfg.seed != nil {
		keyPool = nil
	}
	logrus.WithField("bits", cfg.bits).Info("generating Paillier key")
	pk, sk, err := paillier.KeyGen(cfg.source("key"), keyPool, cfg.bits)
	if err != nil {
		return err
	}

	ballots := make([]*ballot.Ballot, cfg.voters)
	var group errgroup.Group
	for i := range ballots {
		i := i
		group.Go(func() error {
			r := cfg.source(fmt.Sprintf("voter %d", i))
			choice, err := ballot.RandomChoice(r)
			if err != nil {
				return err
			}
			b, err := ballot.Cast(r, cfg.hash.New(), pk, choice)
			if err != nil {
				return fmt.Errorf("voter %d: %w", i, err)
			}
			receipt, err := b.Receipt()
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"voter": i, "choice": choice, "receipt": receipt}).Debug("ballot cast")
			ballots[i] = b
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return err
	}

	if cfg.cheat {
		b, err := forge(cfg.source("cheater"), cfg.hash, pk)
		if err != nil {
			return err
		}
		ballots = append(ballots, b)
	}

	res, err := ballot.Tally(pl, cfg.hash.New, pk, ballots)
	if err != nil {
		return err
	}
	d, err := res.Decrypt(cfg.source("decryption"), cfg.hash.New(), sk)
	if err != nil {
		return err
	}
	if !d.Verify(cfg.hash.New(), pk, res) {
		return errors.New("decryption proof rejected")
	}
	m := d.Plaintext
	counts, err := ballot.Decode(m)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ballots: %d accepted, %d rejected\n", len(res.Accepted), len(res.Rejected))
	fmt.Fprintf(out, "decrypted tally: %s\n", hash.Decimal(m))
	for _, c := range ballot.Choices {
		fmt.Fprintf(out, "  %-9s %d\n", c, counts[c])
	}
	fmt.Fprintln(out, counts.Decision())
	return nil
}

// forge casts 50, which is not a valid vote, with a proof claiming it is Unchanged.
func forge(r io.Reader, fn hash.Function, pk *paillier.PublicKey) (*ballot.Ballot, error) {
	ct, nonce, err := pk.Enc(r, new(saferith.Nat).SetUint64(50))
	if err != nil {
		return nil, err
	}
	proof, err := zkmember.NewProof(r, fn.New(), zkmember.Public{
		Key:        pk,
		C:          ct,
		Candidates: ballot.Candidates(),
	}, zkmember.Private{Nonce: nonce, Index: int(ballot.Unchanged)})
	if err != nil {
		return nil, err
	}
	return &ballot.Ballot{Ciphertext: ct, Proof: proof}, nil
}
