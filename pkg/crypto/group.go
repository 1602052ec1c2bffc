// Package crypto implements the transaction-authorization core: plain and
// shielded key derivation, the canonical signature-section hasher, the
// hash-tree builder with its two Ed25519 signatures, and the shielded
// authorization engine with its rerandomized spend signatures.
//
// This file is the shielded-pool group collaborator. The engine treats
// curve arithmetic as an already-correct primitive consumed through the
// small surface below: wide scalar reduction, personalized hash-to-scalar,
// value commitments, key rerandomization, and the two-round Schnorr-style
// spend signature. The backing group is filippo.io/edwards25519; all
// personalization strings are distinct, so no two derivations share a
// hash domain.
package crypto

import (
	"crypto/subtle"
	"fmt"
	"hash"

	"filippo.io/edwards25519"
	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// BLAKE2b personalization strings (16-byte limit).
const (
	persExpandSeed  = "MASP__ExpandSeed" // PRF-expand of the spending key
	persIvk         = "MASP__CRH_Ivk"    // incoming viewing key CRH
	persDiversifier = "MASP__Diversify"  // diversifier PRF
	persDivBase     = "MASP__gd"         // diversified-base derivation
	persValueBase   = "MASP__ValueBase"  // asset-specific value base
	persCommitBase  = "MASP__CvRand"     // commitment randomness base
	persProofBase   = "MASP__ProofGen"   // nullifier-deriving base
	persSigHash     = "MASP__RedJubjubH" // h_star for spend signatures
)

// SpendSigLen is the size of one rerandomized spend signature (R || S).
const SpendSigLen = 64

// Fixed group elements. The spend-authorizing base is the group
// generator; the remaining bases are derived from it by personalized
// hash-to-scalar so they have no known discrete-log relation exploitable
// by the signer.
var (
	spendAuthBase  = edwards25519.NewGeneratorPoint()
	proofGenBase   = mustDeriveBase(persProofBase)
	commitRandBase = mustDeriveBase(persCommitBase)
)

func mustDeriveBase(person string) *edwards25519.Point {
	s, err := hashToScalar(person, []byte(person))
	if err != nil {
		panic(fmt.Sprintf("crypto: derive base %q: %v", person, err))
	}
	return new(edwards25519.Point).ScalarBaseMult(s)
}

// personalizedHash returns a BLAKE2b instance of the given output size.
// The personalization is not a key; it is a distinct parameter that
// modifies the hash function.
func personalizedHash(person string, size uint8) (hash.Hash, error) {
	h, err := blake2b.New(&blake2b.Config{Size: size, Person: []byte(person)})
	if err != nil {
		return nil, fmt.Errorf("%w: blake2b init: %v", txn.ErrUnknown, err)
	}
	return h, nil
}

// hashToScalar is h_star: a 64-byte personalized BLAKE2b digest over the
// chunks, wide-reduced into the scalar field.
func hashToScalar(person string, chunks ...[]byte) (*edwards25519.Scalar, error) {
	h, err := personalizedHash(person, 64)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		h.Write(c)
	}
	wide := h.Sum(nil)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide)
	Zeroize(wide)
	if err != nil {
		return nil, fmt.Errorf("%w: wide reduction: %v", txn.ErrUnknown, err)
	}
	return s, nil
}

// scalarFromUint64 lifts a value into the scalar field.
func scalarFromUint64(v uint64) *edwards25519.Scalar {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		// Values below 2^64 are always canonical.
		panic("crypto: uint64 scalar lift failed")
	}
	return s
}

// wipeScalar resets a scalar to zero.
func wipeScalar(s *edwards25519.Scalar) {
	if s != nil {
		s.Set(edwards25519.NewScalar())
	}
}

// valueBase derives the asset-specific value-commitment base.
func valueBase(assetID [32]byte) (*edwards25519.Point, error) {
	s, err := hashToScalar(persValueBase, assetID[:])
	if err != nil {
		return nil, err
	}
	return new(edwards25519.Point).ScalarBaseMult(s), nil
}

// ValueCommitment computes cv = [value]V_asset + [rcv]R. It is
// deterministic in (value, rcv, assetID); varying any input changes the
// commitment.
func ValueCommitment(value uint64, rcv *edwards25519.Scalar, assetID [32]byte) ([32]byte, error) {
	var cv [32]byte
	if rcv == nil {
		return cv, txn.ErrNoData
	}
	vb, err := valueBase(assetID)
	if err != nil {
		return cv, err
	}
	v := scalarFromUint64(value)
	p := new(edwards25519.Point).ScalarMult(v, vb)
	p.Add(p, new(edwards25519.Point).ScalarMult(rcv, commitRandBase))
	copy(cv[:], p.Bytes())
	wipeScalar(v)
	return cv, nil
}

// RandomizedKey computes rk = ak + [alpha]G, the rerandomized
// verification key for one spend.
func RandomizedKey(ak *edwards25519.Point, alpha *edwards25519.Scalar) ([32]byte, error) {
	var rk [32]byte
	if ak == nil || alpha == nil {
		return rk, txn.ErrNoData
	}
	p := new(edwards25519.Point).ScalarBaseMult(alpha)
	p.Add(p, ak)
	copy(rk[:], p.Bytes())
	return rk, nil
}

// signSpend produces the (R, S) pair over msg under the randomized spend
// key rsk whose verification key is rk. t is 80 bytes of device
// randomness; the nonce is h_star(t || rk || msg) and the response is
// r + h_star(R || rk || msg) * rsk.
func signSpend(rsk *edwards25519.Scalar, rk [32]byte, msg []byte, t [80]byte) ([SpendSigLen]byte, error) {
	var sig [SpendSigLen]byte
	if rsk == nil {
		return sig, txn.ErrNoData
	}
	r, err := hashToScalar(persSigHash, t[:], rk[:], msg)
	if err != nil {
		return sig, err
	}
	defer wipeScalar(r)

	rBytes := new(edwards25519.Point).ScalarBaseMult(r).Bytes()
	c, err := hashToScalar(persSigHash, rBytes, rk[:], msg)
	if err != nil {
		return sig, err
	}
	s := edwards25519.NewScalar().MultiplyAdd(c, rsk, r)
	copy(sig[:32], rBytes)
	copy(sig[32:], s.Bytes())
	wipeScalar(s)
	return sig, nil
}

// VerifySpendSignature checks [S]G == R + [h_star(R || rk || msg)]rk.
func VerifySpendSignature(rk [32]byte, msg []byte, sig [SpendSigLen]byte) bool {
	rPoint, err := new(edwards25519.Point).SetBytes(sig[:32])
	if err != nil {
		return false
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false
	}
	rkPoint, err := new(edwards25519.Point).SetBytes(rk[:])
	if err != nil {
		return false
	}
	c, err := hashToScalar(persSigHash, sig[:32], rk[:], msg)
	if err != nil {
		return false
	}
	lhs := new(edwards25519.Point).ScalarBaseMult(s)
	rhs := new(edwards25519.Point).ScalarMult(c, rkPoint)
	rhs.Add(rhs, rPoint)
	return lhs.Equal(rhs) == 1
}

// constantTimeEqual compares two byte strings without early exit.
func constantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
