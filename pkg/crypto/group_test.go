package crypto

import (
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScalar(t *testing.T, fill byte) *edwards25519.Scalar {
	t.Helper()
	wide := make([]byte, 64)
	for i := range wide {
		wide[i] = fill
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(wide)
	require.NoError(t, err)
	return s
}

func TestValueCommitmentDeterministic(t *testing.T) {
	rcv := testScalar(t, 0x11)
	asset := [32]byte{0xAA}

	a, err := ValueCommitment(1000, rcv, asset)
	require.NoError(t, err)
	b, err := ValueCommitment(1000, rcv, asset)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestValueCommitmentBindsAllInputs(t *testing.T) {
	rcv := testScalar(t, 0x11)
	asset := [32]byte{0xAA}

	base, err := ValueCommitment(1000, rcv, asset)
	require.NoError(t, err)

	diffValue, err := ValueCommitment(1001, rcv, asset)
	require.NoError(t, err)
	assert.NotEqual(t, base, diffValue)

	diffRcv, err := ValueCommitment(1000, testScalar(t, 0x22), asset)
	require.NoError(t, err)
	assert.NotEqual(t, base, diffRcv)

	otherAsset := [32]byte{0xBB}
	diffAsset, err := ValueCommitment(1000, rcv, otherAsset)
	require.NoError(t, err)
	assert.NotEqual(t, base, diffAsset)
}

func TestRandomizedKeyBindsAlpha(t *testing.T) {
	ak := new(edwards25519.Point).ScalarBaseMult(testScalar(t, 0x33))

	a, err := RandomizedKey(ak, testScalar(t, 0x44))
	require.NoError(t, err)
	b, err := RandomizedKey(ak, testScalar(t, 0x55))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = RandomizedKey(nil, testScalar(t, 0x44))
	assert.Error(t, err)
}

func TestSpendSignatureRoundTrip(t *testing.T) {
	ask := testScalar(t, 0x66)
	alpha := testScalar(t, 0x77)

	rsk := edwards25519.NewScalar().Add(ask, alpha)
	ak := new(edwards25519.Point).ScalarBaseMult(ask)
	rk, err := RandomizedKey(ak, alpha)
	require.NoError(t, err)

	msg := []byte("spend signing digest")
	var tRand [80]byte
	for i := range tRand {
		tRand[i] = byte(i)
	}

	sig, err := signSpend(rsk, rk, msg, tRand)
	require.NoError(t, err)

	assert.True(t, VerifySpendSignature(rk, msg, sig))
	assert.False(t, VerifySpendSignature(rk, []byte("other digest"), sig))

	tampered := sig
	tampered[0] ^= 0x01
	assert.False(t, VerifySpendSignature(rk, msg, tampered))

	otherRk, err := RandomizedKey(ak, testScalar(t, 0x78))
	require.NoError(t, err)
	assert.False(t, VerifySpendSignature(otherRk, msg, sig))
}

func TestDerivedBasesAreDistinct(t *testing.T) {
	assert.Equal(t, 0, proofGenBase.Equal(commitRandBase))
	assert.Equal(t, 0, proofGenBase.Equal(spendAuthBase))
	assert.Equal(t, 0, commitRandBase.Equal(spendAuthBase))
}
