// Package bls implements the BLS12-381 minimal-pubkey-size signature scheme
// with proof-of-possession: public keys in G1, signatures in G2.
package bls

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	PublicKeySize = bls12381.SizeOfG1AffineCompressed
	SignatureSize = bls12381.SizeOfG2AffineCompressed
	SecretKeySize = fr.Bytes

	// DST is the hash-to-curve domain separation tag of the POP ciphersuite.
	DST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"
)

var (
	ErrPublicKeyLength = errors.New("bls: public key must be 48 bytes")
	ErrSignatureLength = errors.New("bls: signature must be 96 bytes")
	ErrSecretKeyLength = errors.New("bls: secret key must be 32 bytes")
	ErrInfinity        = errors.New("bls: point at infinity")
	ErrZeroSecretKey   = errors.New("bls: secret key is zero or out of range")
)

// Scheme verifies signatures. The zero value is ready to use.
type Scheme struct{}

func DecodePublicKey(key []byte) (bls12381.G1Affine, error) {
	var pk bls12381.G1Affine
	if len(key) != PublicKeySize {
		return pk, ErrPublicKeyLength
	}
	if _, err := pk.SetBytes(key); err != nil {
		return pk, err
	}
	if pk.IsInfinity() {
		return pk, ErrInfinity
	}
	return pk, nil
}

func DecodeSignature(sig []byte) (bls12381.G2Affine, error) {
	var s bls12381.G2Affine
	if len(sig) != SignatureSize {
		return s, ErrSignatureLength
	}
	if _, err := s.SetBytes(sig); err != nil {
		return s, err
	}
	if s.IsInfinity() {
		return s, ErrInfinity
	}
	return s, nil
}

// ValidatePublicKey checks that key is a compressed, non-identity G1 point
// in the prime order subgroup.
func (Scheme) ValidatePublicKey(key []byte) error {
	_, err := DecodePublicKey(key)
	return err
}

// VerifyNormal checks e(pk, H(msg)) == e(g1, sig).
func (Scheme) VerifyNormal(msg, signature, publicKey []byte) bool {
	pk, err := DecodePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := DecodeSignature(signature)
	if err != nil {
		return false
	}
	h, err := bls12381.HashToG2(msg, []byte(DST))
	if err != nil {
		return false
	}
	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{pk, negG1},
		[]bls12381.G2Affine{h, sig},
	)
	return err == nil && ok
}

// SecretKey is a scalar in [1, r).
type SecretKey struct {
	scalar big.Int
}

func GenerateKey() (*SecretKey, error) {
	for {
		var e fr.Element
		if _, err := e.SetRandom(); err != nil {
			return nil, err
		}
		if e.IsZero() {
			continue
		}
		sk := &SecretKey{}
		e.BigInt(&sk.scalar)
		return sk, nil
	}
}

// SecretKeyFromBytes decodes a big-endian scalar.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, ErrSecretKeyLength
	}
	sk := &SecretKey{}
	sk.scalar.SetBytes(b)
	if sk.scalar.Sign() == 0 || sk.scalar.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrZeroSecretKey
	}
	return sk, nil
}

func (sk *SecretKey) Bytes() []byte {
	out := make([]byte, SecretKeySize)
	sk.scalar.FillBytes(out)
	return out
}

func (sk *SecretKey) PublicKey() []byte {
	_, _, g1, _ := bls12381.Generators()
	var pk bls12381.G1Affine
	pk.ScalarMultiplication(&g1, &sk.scalar)
	b := pk.Bytes()
	return b[:]
}

func (sk *SecretKey) Sign(msg []byte) ([]byte, error) {
	h, err := bls12381.HashToG2(msg, []byte(DST))
	if err != nil {
		return nil, err
	}
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&h, &sk.scalar)
	b := sig.Bytes()
	return b[:], nil
}
