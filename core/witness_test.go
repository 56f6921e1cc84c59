package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestWitnessStore(t *testing.T) *WitnessStore {
	t.Helper()
	s, err := OpenWitnessStore(filepath.Join(t.TempDir(), "witness.wal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWitnessStoreAddAndGet(t *testing.T) {
	s := openTestWitnessStore(t)

	a := &WitnessAttestation{RecordID: "rec1", WitnessIdentityHash: "witnessA", Timestamp: time.Now()}
	added, err := s.Add(a)
	require.NoError(t, err)
	require.True(t, added)

	require.Equal(t, 1, s.Count("rec1"))
	require.Len(t, s.Get("rec1"), 1)
}

func TestWitnessStoreDedupPerWitnessPerRecord(t *testing.T) {
	s := openTestWitnessStore(t)

	a := &WitnessAttestation{RecordID: "rec1", WitnessIdentityHash: "witnessA", Timestamp: time.Now()}
	first, err := s.Add(a)
	require.NoError(t, err)
	require.True(t, first)

	second, err := s.Add(a)
	require.NoError(t, err)
	require.False(t, second, "same witness attesting twice to the same record must be a no-op")
	require.Equal(t, 1, s.Count("rec1"))
}

func TestWitnessStoreDistinctWitnessesAccumulate(t *testing.T) {
	s := openTestWitnessStore(t)

	for _, w := range []string{"witnessA", "witnessB", "witnessC"} {
		_, err := s.Add(&WitnessAttestation{RecordID: "rec1", WitnessIdentityHash: w, Timestamp: time.Now()})
		require.NoError(t, err)
	}
	require.Equal(t, 3, s.Count("rec1"))
}

func TestWitnessStoreReplaysWALOnReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "witness.wal")

	s, err := OpenWitnessStore(path)
	require.NoError(t, err)
	_, err = s.Add(&WitnessAttestation{RecordID: "rec1", WitnessIdentityHash: "witnessA", Timestamp: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenWitnessStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 1, reopened.Count("rec1"))
}
