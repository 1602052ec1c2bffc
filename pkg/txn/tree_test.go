package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(b byte) [HashLen]byte {
	var h [HashLen]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func TestOwnerWireIndex(t *testing.T) {
	const sectionCount = 4

	assert.Equal(t, uint8(0), Owner{Kind: OwnerHeader}.WireIndex(sectionCount))
	assert.Equal(t, uint8(255), Owner{Kind: OwnerNone}.WireIndex(sectionCount))
	assert.Equal(t, uint8(5), Owner{Kind: OwnerRawSigSection}.WireIndex(sectionCount))
	assert.Equal(t, uint8(2), Owner{Kind: OwnerSection, Section: 2}.WireIndex(sectionCount))
}

func TestHashTreeAppendOrder(t *testing.T) {
	tree := NewHashTree()

	require.NoError(t, tree.Append(hashOf(1), Owner{Kind: OwnerNone}))
	require.NoError(t, tree.Append(hashOf(2), Owner{Kind: OwnerSection, Section: 3}))
	require.NoError(t, tree.Append(hashOf(3), Owner{Kind: OwnerRawSigSection}))

	entries := tree.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, hashOf(1), entries[0].Hash)
	assert.Equal(t, hashOf(2), entries[1].Hash)
	assert.Equal(t, hashOf(3), entries[2].Hash)

	assert.Equal(t, []byte{255, 3, 5}, tree.WireIndices(4))
}

func TestHashTreeCapacity(t *testing.T) {
	tree := NewHashTree()
	for i := 0; i < MaxSignatureHashes; i++ {
		require.NoError(t, tree.Append(hashOf(byte(i)), Owner{Kind: OwnerSection, Section: uint8(i)}))
	}

	err := tree.Append(hashOf(0xFF), Owner{Kind: OwnerSection, Section: 99})
	assert.ErrorIs(t, err, ErrHashTreeFull)

	// The failed append must not have touched the tree.
	assert.Equal(t, MaxSignatureHashes, tree.Len())
	assert.False(t, tree.Contains(hashOf(0xFF)))
}

func TestHashTreeSetSlot(t *testing.T) {
	tree := NewHashTree()
	require.NoError(t, tree.Append(hashOf(1), Owner{Kind: OwnerNone}))
	require.NoError(t, tree.Append(hashOf(2), Owner{Kind: OwnerSection, Section: 1}))

	require.NoError(t, tree.SetSlot(0, hashOf(9), Owner{Kind: OwnerHeader}))

	entries := tree.Entries()
	assert.Equal(t, hashOf(9), entries[0].Hash)
	assert.Equal(t, OwnerHeader, entries[0].Owner.Kind)
	assert.Equal(t, hashOf(2), entries[1].Hash)

	assert.ErrorIs(t, tree.SetSlot(2, hashOf(9), Owner{Kind: OwnerHeader}), ErrInvalidSettings)
	assert.ErrorIs(t, tree.SetSlot(-1, hashOf(9), Owner{Kind: OwnerHeader}), ErrInvalidSettings)
}

func TestHashTreeContains(t *testing.T) {
	tree := NewHashTree()
	require.NoError(t, tree.Append(hashOf(7), Owner{Kind: OwnerSection, Section: 1}))

	assert.True(t, tree.Contains(hashOf(7)))
	assert.False(t, tree.Contains(hashOf(8)))
}

func TestHashTreeEntriesIsACopy(t *testing.T) {
	tree := NewHashTree()
	require.NoError(t, tree.Append(hashOf(1), Owner{Kind: OwnerNone}))

	entries := tree.Entries()
	entries[0].Hash = hashOf(42)

	assert.False(t, tree.Contains(hashOf(42)))
	assert.True(t, tree.Contains(hashOf(1)))
}
