package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDAG(t *testing.T) *LocalDAG {
	t.Helper()
	dag, err := OpenDAG(DAGConfig{WALPath: filepath.Join(t.TempDir(), "dag.wal")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dag.Close() })
	return dag
}

func TestDAGInsertGetAndTips(t *testing.T) {
	dag := openTestDAG(t)
	id := testIdentity(t, ProfileStandard)

	root := CreateRecord([]byte("root"), id.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, root.Sign(id))
	inserted, err := dag.Insert(root, true)
	require.NoError(t, err)
	require.True(t, inserted)

	got, ok := dag.Get(root.ID)
	require.True(t, ok)
	require.Equal(t, root.ID, got.ID)

	require.Equal(t, []string{root.ID}, dag.Tips())

	child := CreateRecord([]byte("child"), id.PrimaryPublicKey, []string{root.ID}, Public, nil)
	require.NoError(t, child.Sign(id))
	_, err = dag.Insert(child, true)
	require.NoError(t, err)

	require.Equal(t, []string{child.ID}, dag.Tips(), "root is no longer a tip once it has a child")
}

func TestDAGInsertIsIdempotentForDuplicateID(t *testing.T) {
	dag := openTestDAG(t)
	id := testIdentity(t, ProfileStandard)

	rec := CreateRecord([]byte("once"), id.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(id))

	first, err := dag.Insert(rec, true)
	require.NoError(t, err)
	require.True(t, first)

	second, err := dag.Insert(rec, true)
	require.NoError(t, err)
	require.False(t, second, "duplicate insert must be a no-op, not an error")
	require.Equal(t, 1, dag.Len())
}

func TestDAGInsertRejectsBadSignature(t *testing.T) {
	dag := openTestDAG(t)
	id := testIdentity(t, ProfileStandard)

	rec := CreateRecord([]byte("content"), id.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(id))
	rec.Signature[0] ^= 0xFF

	_, err := dag.Insert(rec, true)
	require.Error(t, err)
}

func TestDAGQueryByCreator(t *testing.T) {
	dag := openTestDAG(t)
	idA := testIdentity(t, ProfileStandard)
	idB := testIdentity(t, ProfileStandard)

	recA := CreateRecord([]byte("a"), idA.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, recA.Sign(idA))
	_, err := dag.Insert(recA, true)
	require.NoError(t, err)

	recB := CreateRecord([]byte("b"), idB.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, recB.Sign(idB))
	_, err = dag.Insert(recB, true)
	require.NoError(t, err)

	require.Equal(t, []string{recA.ID}, dag.QueryByCreator(idA.PrimaryPublicKey))
}

func TestDAGReplaysWALOnReopen(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "dag.wal")
	id := testIdentity(t, ProfileStandard)

	dag, err := OpenDAG(DAGConfig{WALPath: walPath})
	require.NoError(t, err)

	rec := CreateRecord([]byte("durable"), id.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(id))
	_, err = dag.Insert(rec, true)
	require.NoError(t, err)
	require.NoError(t, dag.Close())

	reopened, err := OpenDAG(DAGConfig{WALPath: walPath})
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, rec.ID, got.ID)
}
