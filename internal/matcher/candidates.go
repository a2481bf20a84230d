package matcher

import (
	"sort"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// DuplicateConfig tunes the pairwise scan in DuplicateCandidates.
type DuplicateConfig struct {
	MinSimilarity float64
	MaxPriceDiff  float64
	ExpiryWindow  time.Duration
}

// Pair is two markets judged to describe the same event.
type Pair struct {
	A, B       types.Market
	Similarity float64
}

// DuplicateCandidates pairwise-compares markets and returns those whose
// fingerprints are close enough in entity, expiry, and text similarity to
// be the same underlying event quoted by two venues.
func DuplicateCandidates(markets []types.Market, sim Similarity, cfg DuplicateConfig) []Pair {
	fps := make([]Fingerprint, len(markets))
	for i, m := range markets {
		fps[i] = Fingerprint(m)
	}

	var pairs []Pair
	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			if markets[i].Venue == markets[j].Venue {
				continue
			}
			if fps[i].Entity == "" || fps[i].Entity != fps[j].Entity {
				continue
			}
			if !expiriesClose(fps[i].Expiry, fps[j].Expiry, cfg.ExpiryWindow) {
				continue
			}

			score := sim.Score(fps[i].StableKey, fps[j].StableKey)
			if score < cfg.MinSimilarity {
				continue
			}

			pairs = append(pairs, Pair{A: markets[i], B: markets[j], Similarity: score})
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Similarity > pairs[j].Similarity })
	duplicateCandidatesFound.Add(float64(len(pairs)))
	return pairs
}

func expiriesClose(a, b *time.Time, window time.Duration) bool {
	if a == nil || b == nil {
		return window == 0 // unknown expiries only match when no window is required
	}
	diff := a.Sub(*b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}

// Group is a cluster of markets judged to concern the same entity and
// expiry window — candidates for the consistency and exclusive-sum
// detectors, which need all outcomes for an event in one place.
type Group struct {
	Entity string
	Expiry *time.Time
	Markets []types.Market
}

// GroupRelated buckets markets by (entity, expiry date) and merges buckets
// for the same entity whose expiries fall within window of each other.
func GroupRelated(markets []types.Market, window time.Duration) []Group {
	var groups []Group

	for _, m := range markets {
		fp := Fingerprint(m)
		if fp.Entity == "" {
			continue
		}

		merged := false
		for i := range groups {
			if groups[i].Entity != fp.Entity {
				continue
			}
			if expiriesClose(groups[i].Expiry, fp.Expiry, window) {
				groups[i].Markets = append(groups[i].Markets, m)
				if groups[i].Expiry == nil {
					groups[i].Expiry = fp.Expiry
				}
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, Group{Entity: fp.Entity, Expiry: fp.Expiry, Markets: []types.Market{m}})
		}
	}

	return groups
}
