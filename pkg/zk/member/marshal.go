package zkmember

import (
	"errors"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/zkvote/internal/params"
)

var errMalformedEncoding = errors.New("zkmember: malformed proof encoding")

type cborProof struct {
	A  [][]byte `cbor:"1,keyasint"`
	E  [][]byte `cbor:"2,keyasint"`
	Z  [][]byte `cbor:"3,keyasint"`
	EC []byte   `cbor:"4,keyasint"`
}

// MarshalBinary encodes the proof. Values are written as big-endian bytes.
func (p *Proof) MarshalBinary() ([]byte, error) {
	x := cborProof{
		A:  make([][]byte, params.Candidates),
		E:  make([][]byte, params.Candidates),
		Z:  make([][]byte, params.Candidates),
		EC: p.EC.Bytes(),
	}
	for k := range p.A {
		x.A[k] = p.A[k].Bytes()
		x.E[k] = p.E[k].Bytes()
		x.Z[k] = p.Z[k].Bytes()
	}
	return cbor.Marshal(x)
}

// UnmarshalBinary decodes a proof written by MarshalBinary.
// Ranges are not checked here, Verify does that.
func (p *Proof) UnmarshalBinary(data []byte) error {
	var x cborProof
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	if len(x.A) != params.Candidates || len(x.E) != params.Candidates || len(x.Z) != params.Candidates {
		return errMalformedEncoding
	}
	for k := 0; k < params.Candidates; k++ {
		p.A[k] = new(saferith.Nat).SetBytes(x.A[k])
		p.E[k] = new(saferith.Nat).SetBytes(x.E[k])
		p.Z[k] = new(saferith.Nat).SetBytes(x.Z[k])
	}
	p.EC = new(saferith.Nat).SetBytes(x.EC)
	return nil
}
