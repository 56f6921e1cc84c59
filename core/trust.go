package core

import (
	"math"
	"time"
)

// TrustLevel buckets a trust score into a human-meaningful label.
type TrustLevel string

const (
	LevelUnwitnessed TrustLevel = "unwitnessed"
	LevelMinimal     TrustLevel = "minimal"
	LevelModerate    TrustLevel = "moderate"
	LevelStrong      TrustLevel = "strong"
	LevelVeryStrong  TrustLevel = "very_strong"
)

// TrustSimple computes T1(n) = 1 - 1/(1+n) for a witness count n >= 0. It
// is total and side-effect free.
func TrustSimple(witnessCount int) float64 {
	if witnessCount < 0 {
		witnessCount = 0
	}
	return 1 - 1/(1+float64(witnessCount))
}

// TrustWeighted scores an attestation set by exponential time-decay plus a
// diversity bonus over unique witness-identity prefixes, capped below 1.0.
// It is total and side-effect free: an empty set scores 0.
func TrustWeighted(attestations []*WitnessAttestation, now time.Time) float64 {
	if len(attestations) == 0 {
		return 0
	}

	var weightSum float64
	prefixes := make(map[string]struct{}, len(attestations))
	for _, a := range attestations {
		ageDays := now.Sub(a.Timestamp).Seconds() / 86400
		if ageDays < 0 {
			ageDays = 0
		}
		weightSum += math.Exp(-0.03 * ageDays)

		prefix := a.WitnessIdentityHash
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		prefixes[prefix] = struct{}{}
	}

	k := len(prefixes)
	diversity := 0.0
	if k > 1 {
		diversity = 0.20 * float64(k-1) / float64(k)
	}

	base := 1 - 1/(1+weightSum)
	t := base + diversity
	if t > 0.999 {
		t = 0.999
	}
	return t
}

// Level maps a trust score in [0,1) to its bucket.
func Level(score float64) TrustLevel {
	switch {
	case score < 0.1:
		return LevelUnwitnessed
	case score < 0.5:
		return LevelMinimal
	case score < 0.75:
		return LevelModerate
	case score < 0.9:
		return LevelStrong
	default:
		return LevelVeryStrong
	}
}
