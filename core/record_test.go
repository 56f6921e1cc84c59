package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testIdentity(t *testing.T, profile Profile) *Identity {
	t.Helper()
	id, err := GenerateIdentity(EntityAI, profile)
	require.NoError(t, err)
	return id
}

func TestRecordSignAndVerify(t *testing.T) {
	id := testIdentity(t, ProfileStandard)

	rec := CreateRecord([]byte("content"), id.PrimaryPublicKey, nil, Sovereign, map[string]interface{}{"k": "v"})
	require.NoError(t, rec.Sign(id))
	require.NotEmpty(t, rec.ID)

	ok, err := rec.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRecordVerifyFailsOnTamperedContent(t *testing.T) {
	id := testIdentity(t, ProfileStandard)

	rec := CreateRecord([]byte("content"), id.PrimaryPublicKey, nil, Sovereign, nil)
	require.NoError(t, rec.Sign(id))

	rec.Content = []byte("tampered")
	ok, err := rec.Verify()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRecordRoundTripToFromBytes(t *testing.T) {
	id := testIdentity(t, ProfileA)

	rec := CreateRecord([]byte("payload"), id.PrimaryPublicKey, []string{"parent1"}, Restricted,
		map[string]interface{}{"artifact_id": "abc123", "confidence": 0.9})
	require.NoError(t, rec.Sign(id))

	wire, err := rec.ToBytes()
	require.NoError(t, err)

	restored, err := RecordFromBytes(wire)
	require.NoError(t, err)

	require.Equal(t, rec.ID, restored.ID)
	require.Equal(t, rec.Content, restored.Content)
	require.Equal(t, rec.Parents, restored.Parents)
	require.Equal(t, rec.Classification, restored.Classification)
	require.Equal(t, rec.Signature, restored.Signature)
	require.Equal(t, rec.SecondarySignature, restored.SecondarySignature)
	require.Equal(t, rec.Metadata(), restored.Metadata())

	ok, err := restored.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIDIsFunctionOfSignableBytesOnly(t *testing.T) {
	id := testIdentity(t, ProfileStandard)

	rec := CreateRecord([]byte("content"), id.PrimaryPublicKey, nil, Public, nil)
	idBefore, err := rec.ComputeID()
	require.NoError(t, err)

	require.NoError(t, rec.Sign(id))
	require.Equal(t, idBefore, rec.ID, "signing must not change the id once computed from signable bytes")
}

func TestMetadataJSONIsIdempotentAndSorted(t *testing.T) {
	id := testIdentity(t, ProfileStandard)
	md := map[string]interface{}{"zebra": 1, "alpha": 2, "mid": 3}
	rec := CreateRecord([]byte("x"), id.PrimaryPublicKey, nil, Shared, md)

	first, err := rec.metadataJSON()
	require.NoError(t, err)
	second, err := rec.metadataJSON()
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(first))
}

func TestClassificationRoundTrip(t *testing.T) {
	for _, c := range []Classification{Sovereign, Restricted, Shared, Public} {
		parsed, ok := ParseClassification(c.String())
		require.True(t, ok)
		require.Equal(t, c, parsed)
	}
}
