// Shielded-pool key hierarchy.
//
// spendingKey -> {ask, nsk, ovk, dk} -> {ak, nk, ivk} -> {diversifier, pkd}
//
// Each step is a one-way personalized-BLAKE2b derivation of the previous.
// The hierarchy is derived per session from a freshly re-read seed and
// wiped on every exit path, including failures partway down the chain.
package crypto

import (
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// DiversifierLen is the size of a shielded address diversifier.
const DiversifierLen = 11

// ShieldedKeys holds one session's derived shielded hierarchy. The
// spend-authorizing and nullifier scalars stay private to the package;
// callers see only the public halves. Wipe must be called on every exit
// path once the keys are no longer needed.
type ShieldedKeys struct {
	ask *edwards25519.Scalar
	nsk *edwards25519.Scalar

	// akPoint is kept unpacked for rerandomization.
	akPoint *edwards25519.Point

	Ak  [32]byte
	Nk  [32]byte
	Ovk [32]byte
	Dk  [32]byte

	Diversifier [DiversifierLen]byte
	Pkd         [32]byte
}

// prfExpand is PRF^expand: BLAKE2b-512 personalized with the seed-expand
// string over sk || t.
func prfExpand(sk []byte, t ...byte) ([]byte, error) {
	h, err := personalizedHash(persExpandSeed, 64)
	if err != nil {
		return nil, err
	}
	h.Write(sk)
	h.Write(t)
	return h.Sum(nil), nil
}

// DeriveShieldedKeys derives the full hierarchy from the device seed and
// derivation path. On any failure every intermediate buffer and the
// partially built hierarchy are zeroized before return.
func DeriveShieldedKeys(seed []byte, path []uint32) (*ShieldedKeys, error) {
	if len(seed) == 0 {
		return nil, txn.ErrNoData
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty derivation path", txn.ErrInvalidSettings)
	}

	// Spending key: expand the seed together with the path so distinct
	// accounts get unrelated hierarchies.
	pathBytes := make([]byte, 4*len(path))
	for i, idx := range path {
		binary.LittleEndian.PutUint32(pathBytes[4*i:], idx)
	}
	h, err := personalizedHash(persExpandSeed, 32)
	if err != nil {
		return nil, err
	}
	h.Write(seed)
	h.Write(pathBytes)
	sk := h.Sum(nil)
	defer Zeroize(sk)

	k := &ShieldedKeys{}
	ok := false
	defer func() {
		if !ok {
			k.Wipe()
		}
	}()

	// First level: ask, nsk, ovk, dk.
	askWide, err := prfExpand(sk, 0x00)
	if err != nil {
		return nil, err
	}
	defer Zeroize(askWide)
	k.ask, err = edwards25519.NewScalar().SetUniformBytes(askWide)
	if err != nil {
		return nil, fmt.Errorf("%w: ask reduction: %v", txn.ErrUnknown, err)
	}

	nskWide, err := prfExpand(sk, 0x01)
	if err != nil {
		return nil, err
	}
	defer Zeroize(nskWide)
	k.nsk, err = edwards25519.NewScalar().SetUniformBytes(nskWide)
	if err != nil {
		return nil, fmt.Errorf("%w: nsk reduction: %v", txn.ErrUnknown, err)
	}

	ovkWide, err := prfExpand(sk, 0x02)
	if err != nil {
		return nil, err
	}
	copy(k.Ovk[:], ovkWide[:32])
	Zeroize(ovkWide)

	dkWide, err := prfExpand(sk, 0x10)
	if err != nil {
		return nil, err
	}
	copy(k.Dk[:], dkWide[:32])
	Zeroize(dkWide)

	// Second level: ak, nk, ivk.
	k.akPoint = new(edwards25519.Point).ScalarBaseMult(k.ask)
	copy(k.Ak[:], k.akPoint.Bytes())
	copy(k.Nk[:], new(edwards25519.Point).ScalarMult(k.nsk, proofGenBase).Bytes())

	ivk, err := hashToScalar(persIvk, k.Ak[:], k.Nk[:])
	if err != nil {
		return nil, err
	}
	defer wipeScalar(ivk)

	// Third level: default diversifier and diversified transmission key.
	dh, err := personalizedHash(persDiversifier, 32)
	if err != nil {
		return nil, err
	}
	dh.Write(k.Dk[:])
	dh.Write([]byte{0x00})
	dSum := dh.Sum(nil)
	copy(k.Diversifier[:], dSum[:DiversifierLen])
	Zeroize(dSum)

	gd, err := diversifiedBase(k.Diversifier)
	if err != nil {
		return nil, err
	}
	copy(k.Pkd[:], new(edwards25519.Point).ScalarMult(ivk, gd).Bytes())

	ok = true
	return k, nil
}

// diversifiedBase maps a diversifier to its group base.
func diversifiedBase(d [DiversifierLen]byte) (*edwards25519.Point, error) {
	s, err := hashToScalar(persDivBase, d[:])
	if err != nil {
		return nil, err
	}
	defer wipeScalar(s)
	return new(edwards25519.Point).ScalarBaseMult(s), nil
}

// Wipe zeroizes the hierarchy. Safe to call more than once and on a
// partially derived value.
func (k *ShieldedKeys) Wipe() {
	if k == nil {
		return
	}
	wipeScalar(k.ask)
	wipeScalar(k.nsk)
	Zeroize(k.Ak[:])
	Zeroize(k.Nk[:])
	Zeroize(k.Ovk[:])
	Zeroize(k.Dk[:])
	Zeroize(k.Diversifier[:])
	Zeroize(k.Pkd[:])
	k.akPoint = nil
}

// RandomizedSpendKey derives the per-spend signing scalar rsk = ask +
// alpha. The caller must wipe the result.
func (k *ShieldedKeys) RandomizedSpendKey(alpha *edwards25519.Scalar) (*edwards25519.Scalar, error) {
	if k == nil || k.ask == nil || alpha == nil {
		return nil, txn.ErrNoData
	}
	return edwards25519.NewScalar().Add(k.ask, alpha), nil
}

// RandomizedVerificationKey derives rk = ak + [alpha]G for one spend.
func (k *ShieldedKeys) RandomizedVerificationKey(alpha *edwards25519.Scalar) ([32]byte, error) {
	if k == nil || k.akPoint == nil {
		var zero [32]byte
		return zero, txn.ErrNoData
	}
	return RandomizedKey(k.akPoint, alpha)
}
