package paillier

import (
	"encoding"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

var (
	_ encoding.BinaryMarshaler   = (*PublicKey)(nil)
	_ encoding.BinaryUnmarshaler = (*PublicKey)(nil)
	_ encoding.BinaryMarshaler   = (*SecretKey)(nil)
	_ encoding.BinaryUnmarshaler = (*SecretKey)(nil)
	_ encoding.BinaryMarshaler   = (*Ciphertext)(nil)
	_ encoding.BinaryUnmarshaler = (*Ciphertext)(nil)
)

type cborPublicKey struct {
	N []byte `cbor:"1,keyasint"`
}

type cborSecretKey struct {
	P []byte `cbor:"1,keyasint"`
	Q []byte `cbor:"2,keyasint"`
}

type cborCiphertext struct {
	C []byte `cbor:"1,keyasint"`
}

// MarshalBinary encodes the modulus N.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(cborPublicKey{N: pk.n.Bytes()})
}

// UnmarshalBinary decodes a key written by MarshalBinary and validates its modulus.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var x cborPublicKey
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("paillier: unmarshal public key: %w", err)
	}
	if len(x.N) == 0 {
		return fmt.Errorf("%w: modulus is empty", ErrInvalidPublicKey)
	}
	n := saferith.ModulusFromBytes(x.N)
	if err := ValidateN(n); err != nil {
		return err
	}
	*pk = *NewPublicKey(n)
	return nil
}

// MarshalBinary encodes the primes P, Q.
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(cborSecretKey{
		P: sk.p.Bytes(),
		Q: sk.q.Bytes(),
	})
}

// UnmarshalBinary decodes a key written by MarshalBinary.
func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	var x cborSecretKey
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("paillier: unmarshal secret key: %w", err)
	}
	p := new(saferith.Nat).SetBytes(x.P)
	q := new(saferith.Nat).SetBytes(x.Q)
	if p.EqZero() == 1 || q.EqZero() == 1 {
		return fmt.Errorf("paillier: unmarshal secret key: missing prime")
	}
	*sk = *NewSecretKeyFromPrimes(p, q)
	return sk.PublicKey.Validate()
}

// MarshalBinary encodes the ciphertext value, big-endian.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(cborCiphertext{C: ct.c.Bytes()})
}

// UnmarshalBinary decodes a ciphertext written by MarshalBinary.
// The value is not validated against any key.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	var x cborCiphertext
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("paillier: unmarshal ciphertext: %w", err)
	}
	ct.c = new(saferith.Nat).SetBytes(x.C)
	return nil
}
