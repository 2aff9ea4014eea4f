package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/exfury/gridiron-core/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("generator/config"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit(common.Hash{}, 0)
	require.NoError(t, err)

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieResetDiscardsUncommittedWrites(t *testing.T) {
	tr, err := NewTrie(storage.NewMemDB(), nil)
	require.NoError(t, err)

	committed := crypto.Keccak256([]byte("committed"))
	require.NoError(t, tr.Update(committed, []byte{1}))
	root, err := tr.Commit(common.Hash{}, 1)
	require.NoError(t, err)

	speculative := crypto.Keccak256([]byte("speculative"))
	require.NoError(t, tr.Update(speculative, []byte{2}))
	require.NoError(t, tr.Delete(committed))
	require.NotEqual(t, root, tr.Hash())

	require.NoError(t, tr.Reset(root))
	require.Equal(t, root, tr.Hash())
	got, err := tr.Get(committed)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, got)
	missing, err := tr.Get(speculative)
	require.NoError(t, err)
	require.Empty(t, missing)
}
