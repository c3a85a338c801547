package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/zkvote/internal/params"
)

var (
	// ErrEntropyUnavailable is returned when the randomness source fails to
	// deliver the requested bytes.
	ErrEntropyUnavailable = errors.New("sample: entropy unavailable")

	// ErrSamplingExhausted is returned when a rejection sampling loop does not
	// find a suitable value within params.MaxSampleIterations attempts.
	ErrSamplingExhausted = fmt.Errorf("sample: failed to generate after %d iterations", params.MaxSampleIterations)
)

// Bytes reads exactly n bytes from rand.
func Bytes(rand io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := readFull(rand, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFull(rand io.Reader, buf []byte) error {
	if _, err := io.ReadFull(rand, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return nil
}

// Bits samples a uniform element of [0, 2ᵇ).
func Bits(rand io.Reader, bits int) (*saferith.Nat, error) {
	buf, err := Bytes(rand, (bits+7)/8)
	if err != nil {
		return nil, err
	}
	if extra := len(buf)*8 - bits; extra > 0 {
		buf[0] &= 0xFF >> extra
	}
	return new(saferith.Nat).SetBytes(buf).Resize(bits), nil
}

// ModN samples a uniform element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	bits := n.BitLen()
	for i := 0; i < params.MaxSampleIterations; i++ {
		out, err := Bits(rand, bits)
		if err != nil {
			return nil, err
		}
		if _, _, lt := out.CmpMod(n); lt == 1 {
			return out.Mod(out, n), nil
		}
	}
	return nil, ErrSamplingExhausted
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	for i := 0; i < params.MaxSampleIterations; i++ {
		u, err := ModN(rand, n)
		if err != nil {
			return nil, err
		}
		if u.IsUnit(n) == 1 {
			return u, nil
		}
	}
	return nil, ErrSamplingExhausted
}
