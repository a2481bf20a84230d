// Package matcher groups markets that plausibly describe the same
// underlying event, across venues and across detectors.
package matcher

import (
	"time"

	"github.com/harborquant/xvenue-arb/internal/normalize"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// Fingerprint is the set of normalized fields used to compare two markets.
type Fingerprint struct {
	MarketID   string
	StableKey  string
	Entity     string
	Expiry     *time.Time
	Comparator string
	Threshold  *float64
}

// Fingerprint derives a Fingerprint from a market, falling back to the
// extractors whenever the market doesn't already carry a structured field.
func Fingerprint(m types.Market) Fingerprint {
	fp := Fingerprint{
		MarketID:  m.ID,
		StableKey: normalize.StableKey(m.Question),
		Entity:    m.Asset,
		Expiry:    m.EndDate,
		Comparator: m.Comparator,
		Threshold:  m.Threshold,
	}

	if fp.Entity == "" {
		fp.Entity = normalize.ExtractEntity(m.Question)
	}
	if fp.Comparator == "" || fp.Threshold == nil {
		if comp, thresh, ok := normalize.ExtractThreshold(m.Question); ok {
			fp.Comparator = comp
			fp.Threshold = &thresh
		}
	}
	if fp.Expiry == nil {
		if t, ok := normalize.ExtractExpiry(m.Question); ok {
			fp.Expiry = &t
		}
	}

	return fp
}
