package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListAppendGet(t *testing.T) {
	l := NewMemoryList()

	i0, err := l.Append([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), i0)

	i1, err := l.Append([]byte{4, 5})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), i1)

	got, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)
}

func TestMemoryListGetOutOfRange(t *testing.T) {
	l := NewMemoryList()
	_, err := l.Get(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMemoryListReturnsCopies(t *testing.T) {
	l := NewMemoryList()

	item := []byte{1, 2, 3}
	_, err := l.Append(item)
	require.NoError(t, err)

	// Mutating the caller's slice must not reach the stored item.
	item[0] = 99
	got, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	// Mutating the retrieved slice must not reach the stored item either.
	got[1] = 99
	again, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestMemoryListClear(t *testing.T) {
	l := NewMemoryList()
	_, err := l.Append([]byte{1})
	require.NoError(t, err)

	require.NoError(t, l.Clear())

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)

	_, err = l.Get(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
