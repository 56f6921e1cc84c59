package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrustSimpleThreeWitnesses(t *testing.T) {
	score := TrustSimple(3)
	require.InDelta(t, 0.75, score, 0.01)
	require.Equal(t, LevelStrong, Level(score))
}

func TestTrustSimpleZeroWitnesses(t *testing.T) {
	require.Equal(t, 0.0, TrustSimple(0))
	require.Equal(t, LevelUnwitnessed, Level(TrustSimple(0)))
}

func TestTrustWeightedMonotoneNonDecreasing(t *testing.T) {
	now := time.Now()
	attestations := []*WitnessAttestation{
		{WitnessIdentityHash: "aaaa1111bbbb", Timestamp: now},
	}
	before := TrustWeighted(attestations, now)

	attestations = append(attestations, &WitnessAttestation{WitnessIdentityHash: "cccc2222dddd", Timestamp: now})
	after := TrustWeighted(attestations, now)

	require.GreaterOrEqual(t, after, before)
	require.Less(t, after, 1.0)
}

func TestTrustWeightedDiversityBonus(t *testing.T) {
	now := time.Now()

	diverse := []*WitnessAttestation{
		{WitnessIdentityHash: "aaaa1111bbbb", Timestamp: now},
		{WitnessIdentityHash: "cccc2222dddd", Timestamp: now},
	}
	sameWitness := []*WitnessAttestation{
		{WitnessIdentityHash: "aaaa1111bbbb", Timestamp: now},
		{WitnessIdentityHash: "aaaa1111cccc", Timestamp: now}, // same 8-char prefix
	}

	require.Greater(t, TrustWeighted(diverse, now), TrustWeighted(sameWitness, now))
}

func TestTrustWeightedEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, TrustWeighted(nil, time.Now()))
}

func TestTrustWeightedCappedBelowOne(t *testing.T) {
	now := time.Now()
	var attestations []*WitnessAttestation
	for i := 0; i < 500; i++ {
		attestations = append(attestations, &WitnessAttestation{
			WitnessIdentityHash: randomPrefix(i),
			Timestamp:           now,
		})
	}
	require.Less(t, TrustWeighted(attestations, now), 1.0)
	require.LessOrEqual(t, TrustWeighted(attestations, now), 0.999)
}

func randomPrefix(i int) string {
	const alphabet = "0123456789abcdef"
	b := make([]byte, 8)
	for j := range b {
		b[j] = alphabet[(i+j)%len(alphabet)]
	}
	return string(b)
}
