package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lists.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestBoltListAppendGet(t *testing.T) {
	db, _ := openTestDB(t)
	l := db.List(RoleSpendRandomness)

	i0, err := l.Append([]byte{0xAA, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), i0)

	i1, err := l.Append([]byte{0xCC})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), i1)

	got, err := l.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC}, got)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)

	_, err = l.Get(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBoltListRolesAreIndependent(t *testing.T) {
	db, _ := openTestDB(t)

	spends := db.List(RoleSpendRandomness)
	sigs := db.List(RoleSpendSignatures)

	_, err := spends.Append([]byte{1})
	require.NoError(t, err)

	n, err := sigs.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)

	require.NoError(t, spends.Clear())

	// Clearing one role must not disturb another.
	_, err = sigs.Append([]byte{2})
	require.NoError(t, err)
	got, err := sigs.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, got)
}

func TestBoltListSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.List(RoleOutputRandomness).Append([]byte{7, 8, 9})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	l := db.List(RoleOutputRandomness)
	got, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9}, got)

	// Indices keep counting from where the previous session stopped.
	idx, err := l.Append([]byte{10})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)
}

func TestBoltListClearResetsIndices(t *testing.T) {
	db, _ := openTestDB(t)
	l := db.List(RoleConvertRandomness)

	_, err := l.Append([]byte{1})
	require.NoError(t, err)
	require.NoError(t, l.Clear())

	idx, err := l.Append([]byte{2})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
