package detect

import (
	"math"
	"time"

	"github.com/harborquant/xvenue-arb/internal/matcher"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// DuplicateDetector finds the same event quoted at two different prices
// across venues.
type DuplicateDetector struct {
	Cfg        Config
	Similarity matcher.Similarity
}

func (d DuplicateDetector) Name() types.OpportunityType { return types.Duplicate }

func (d DuplicateDetector) Detect(markets []types.Market) []types.Opportunity {
	sim := d.Similarity
	if sim == nil {
		sim = matcher.LexicalSimilarity{}
	}

	pairs := matcher.DuplicateCandidates(markets, sim, matcher.DuplicateConfig{
		MinSimilarity: d.Cfg.DuplicateSimilarity,
		ExpiryWindow:  24 * time.Hour,
	})

	var opps []types.Opportunity
	now := time.Now()

	for _, pair := range pairs {
		oa := firstComparableOutcome(pair.A)
		ob := firstComparableOutcome(pair.B)
		if oa == nil || ob == nil {
			continue
		}

		diff := math.Abs(oa.Price - ob.Price)
		if diff < d.Cfg.DuplicatePriceDiff {
			continue
		}

		high, low := pair.A, pair.B
		highOutcome, lowOutcome := oa, ob
		if ob.Price > oa.Price {
			high, low = pair.B, pair.A
			highOutcome, lowOutcome = ob, oa
		}

		actions := []types.TradeAction{
			{MarketID: low.ID, OutcomeID: lowOutcome.ID, Venue: low.Venue, Side: types.Buy, Amount: 1, LimitPrice: lowOutcome.Price},
			{MarketID: high.ID, OutcomeID: highOutcome.ID, Venue: high.Venue, Side: types.Sell, Amount: 1, LimitPrice: highOutcome.Price},
		}

		opps = append(opps, types.NewOpportunity(
			types.Duplicate,
			[]string{low.ID, high.ID},
			"same event priced differently across venues",
			diff,
			actions,
			map[string]any{"similarity": pair.Similarity},
			now,
		))
	}

	return opps
}

func firstComparableOutcome(m types.Market) *types.Outcome {
	if yes := m.OutcomeByLabel("yes"); yes != nil {
		return yes
	}
	if len(m.Outcomes) > 0 {
		return &m.Outcomes[0]
	}
	return nil
}
