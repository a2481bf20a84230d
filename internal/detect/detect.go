// Package detect implements the arbitrage detector suite: pure functions
// (except TimeLag) over a market snapshot that emit candidate Opportunity
// records for the risk gate to judge.
package detect

import (
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// Detector discovers mispricings in a market snapshot.
type Detector interface {
	Name() types.OpportunityType
	Detect(markets []types.Market) []types.Opportunity
}

// Config carries every detector's tunable thresholds. A single struct
// mirrors the flat, comment-grouped config object the rest of the engine
// already uses.
type Config struct {
	ParityThreshold     float64 // e.g. 0.99
	FeeBPS              float64
	SlippageBPS         float64
	ExclusiveSumEpsilon float64 // tolerance around 1.0
	LadderMinGap        float64 // tolerance before a ladder violation counts
	DuplicatePriceDiff  float64
	DuplicateSimilarity float64
	TimeLagWindow       time.Duration // persistence_minutes equivalent
	TimeLagJumpBPS      float64
	ConsistencyTolerance float64
}

func bps(v float64) float64 { return v / 10000 }
