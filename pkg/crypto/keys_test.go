package crypto

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

var testSeed = bytes.Repeat([]byte{0x5A}, 64)

func TestDefaultPathIsFullyHardened(t *testing.T) {
	path := DefaultPath()
	require.Len(t, path, 5)
	for _, idx := range path {
		assert.GreaterOrEqual(t, idx, HardenedOffset)
	}
	assert.Equal(t, uint32(44|HardenedOffset), path[0])
	assert.Equal(t, uint32(877|HardenedOffset), path[1])
}

func TestExtractPublicKeyEd25519Deterministic(t *testing.T) {
	a, err := ExtractPublicKeyEd25519(testSeed, DefaultPath())
	require.NoError(t, err)
	b, err := ExtractPublicKeyEd25519(testSeed, DefaultPath())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// A sibling account yields an unrelated key.
	other := DefaultPath()
	other[4] = 1 | HardenedOffset
	c, err := ExtractPublicKeyEd25519(testSeed, other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDeriveRejectsBadInputs(t *testing.T) {
	_, err := ExtractPublicKeyEd25519(nil, DefaultPath())
	assert.ErrorIs(t, err, txn.ErrNoData)

	_, err = ExtractPublicKeyEd25519(testSeed, nil)
	assert.ErrorIs(t, err, txn.ErrInvalidSettings)

	soft := []uint32{44 | HardenedOffset, 877}
	_, err = ExtractPublicKeyEd25519(testSeed, soft)
	assert.ErrorIs(t, err, txn.ErrInvalidSettings)
}

func TestSignEd25519Verifies(t *testing.T) {
	msg := []byte("section hash stand-in, thirty-two")

	sig, err := SignEd25519(testSeed, DefaultPath(), msg)
	require.NoError(t, err)

	pub, err := ExtractPublicKeyEd25519(testSeed, DefaultPath())
	require.NoError(t, err)

	assert.True(t, ed25519.Verify(pub[:], msg, sig[:]))
	assert.False(t, ed25519.Verify(pub[:], append(msg, 0x00), sig[:]))
}

func TestSignEd25519RejectsEmptyMessage(t *testing.T) {
	_, err := SignEd25519(testSeed, DefaultPath(), nil)
	assert.ErrorIs(t, err, txn.ErrUnknown)
}

func TestExtractPublicKeySecp256k1(t *testing.T) {
	pub, err := ExtractPublicKeySecp256k1(testSeed, DefaultPath())
	require.NoError(t, err)

	// The compressed encoding must parse back to a curve point.
	_, err = secp256k1.ParsePubKey(pub[:])
	require.NoError(t, err)

	again, err := ExtractPublicKeySecp256k1(testSeed, DefaultPath())
	require.NoError(t, err)
	assert.Equal(t, pub, again)

	ed, err := ExtractPublicKeyEd25519(testSeed, DefaultPath())
	require.NoError(t, err)
	assert.NotEqual(t, pub[1:], ed[:])
}

func TestZeroize(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zeroize(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}
