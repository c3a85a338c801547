package sample

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/internal/params"
	"github.com/taurusgroup/zkvote/pkg/pool"
)

// primes generates an array containing all the odd prime numbers < below
func primes(below uint32) []uint32 {
	sieve := make([]bool, below)
	// Initially, all numbers starting from 2 are considered prime
	for i := 2; i < len(sieve); i++ {
		sieve[i] = true
	}
	// Now, we remove the multiples of every prime number we encounter
	for p := 2; p*p < len(sieve); p++ {
		if !sieve[p] {
			continue
		}
		for i := p << 1; i < len(sieve); i += p {
			sieve[i] = false
		}
	}
	// There are approximately N / log N primes below N
	nF := float64(below)
	out := make([]uint32, 0, int(nF/math.Log(nF)))
	for p := uint32(3); p < below; p++ {
		if sieve[p] {
			out = append(out, p)
		}
	}
	return out
}

// The number of numbers to check after our initial prime guess
const sieveSize = 1 << 18

// The upper bound on the prime numbers used for sieving
const primeBound = 1 << 20

// 20 is the same number that Go uses internally.
const blumPrimalityIterations = 20

// minPrimeBits keeps candidates well above primeBound, so that sieving
// never removes the prime we are looking for.
const minPrimeBits = 32

var thePrimes []uint32
var initPrimes sync.Once

var sievePool = sync.Pool{
	New: func() interface{} {
		sieve := make([]bool, sieveSize)
		return &sieve
	},
}

// tryBlumPrime looks for a safe Blum prime of exactly bits bits in a window
// starting at a random base.
//
// It returns (nil, nil) when the window contains no such prime, and an error
// only if rand fails.
func tryBlumPrime(rand io.Reader, bits int) (*saferith.Nat, error) {
	initPrimes.Do(func() {
		thePrimes = primes(primeBound)
	})

	bytes, err := Bytes(rand, (bits+7)/8)
	if err != nil {
		return nil, err
	}
	// The number of significant bits in the first byte
	topBits := uint(bits % 8)
	if topBits == 0 {
		topBits = 8
	}
	bytes[0] &= byte(1<<topBits) - 1
	// Set the two top bits, so that the product of two such primes
	// has exactly twice the number of bits.
	if topBits >= 2 {
		bytes[0] |= 0b11 << (topBits - 2)
	} else {
		bytes[0] |= 1
		bytes[1] |= 0x80
	}
	// For both p and (p - 1) / 2 to be prime, it must be the case that p = 3 mod 4
	bytes[len(bytes)-1] |= 3
	base := new(big.Int).SetBytes(bytes)

	// sieve checks the candidacy of base, base+1, base+2, etc.
	sievePtr := sievePool.Get().(*[]bool)
	sieve := *sievePtr
	defer sievePool.Put(sievePtr)
	for i := 0; i < len(sieve); i++ {
		sieve[i] = true
	}
	// Remove candidates that aren't 3 mod 4
	for i := 1; i+2 < len(sieve); i += 4 {
		sieve[i] = false
		sieve[i+1] = false
		sieve[i+2] = false
	}
	remainder := new(big.Int)
	for _, prime := range thePrimes {
		// If x = 0 mod r, then x can't be prime. If x = 1 mod r, then (x - 1) / 2
		// can't be prime, so x can't be a safe prime.
		remainder.SetUint64(uint64(prime))
		remainder.Mod(base, remainder)
		r := int(remainder.Uint64())
		primeInt := int(prime)
		firstMultiple := primeInt - r
		if r == 0 {
			firstMultiple = 0
		}
		for i := firstMultiple; i+1 < len(sieve); i += primeInt {
			sieve[i] = false
			sieve[i+1] = false
		}
	}
	p := new(big.Int)
	q := new(big.Int)
	for delta := 0; delta < len(sieve); delta++ {
		if !sieve[delta] {
			continue
		}

		p.SetUint64(uint64(delta))
		p.Add(p, base)
		if p.BitLen() > bits {
			return nil, nil
		}
		// Since p is odd, this is equivalent to (p - 1) / 2
		q.Rsh(p, 1)
		// q is the check most likely to fail.
		if !q.ProbablyPrime(blumPrimalityIterations) {
			continue
		}
		// A single round of Miller-Rabin suffices once q is prime.
		if !p.ProbablyPrime(0) {
			continue
		}
		return new(saferith.Nat).SetBig(p, bits), nil
	}
	return nil, nil
}

// BlumPrime returns a safe prime p of the given size.
//
// This means that q := (p - 1) / 2 is also a prime number, and p = 3 mod 4.
func BlumPrime(rand io.Reader, bits int) (*saferith.Nat, error) {
	if bits < minPrimeBits {
		return nil, fmt.Errorf("sample: prime size must be at least %d bits, got %d", minPrimeBits, bits)
	}
	for i := 0; i < params.MaxPrimeIterations; i++ {
		p, err := tryBlumPrime(rand, bits)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("sample: no prime after %d windows: %w", params.MaxPrimeIterations, ErrSamplingExhausted)
}

// Paillier generates the two distinct primes of a Paillier key pair
// with a modulus of modulusBits bits.
// p, q are safe primes ((p - 1) / 2 is also prime), and Blum primes (p = 3 mod 4).
//
// The search runs on pl. With a nil pool and a deterministic reader the
// output is deterministic.
func Paillier(rand io.Reader, pl *pool.Pool, modulusBits int) (p, q *saferith.Nat, err error) {
	bits := params.PrimeBits(modulusBits)
	if bits < minPrimeBits {
		return nil, nil, fmt.Errorf("sample: modulus size must be at least %d bits, got %d", 2*minPrimeBits, modulusBits)
	}
	var reader io.Reader = rand
	if pl != nil {
		reader = pool.NewLockedReader(rand)
	}
	for i := 0; i < params.MaxSampleIterations; i++ {
		results, err := pl.Search(2, params.MaxPrimeIterations, func() (interface{}, error) {
			p, err := tryBlumPrime(reader, bits)
			// You have to do this, because of how Go handles nil.
			if p == nil || err != nil {
				return nil, err
			}
			return p, nil
		})
		if err != nil {
			if errors.Is(err, pool.ErrExhausted) {
				err = ErrSamplingExhausted
			}
			return nil, nil, fmt.Errorf("sample: paillier primes: %w", err)
		}
		p, q = results[0].(*saferith.Nat), results[1].(*saferith.Nat)
		if p.Eq(q) != 1 {
			return p, q, nil
		}
	}
	return nil, nil, fmt.Errorf("sample: paillier primes: %w", ErrSamplingExhausted)
}
