package detect

import (
	"math"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// ExclusiveSumDetector finds categorical markets (3+ mutually exclusive
// outcomes) whose prices don't sum to 1.
type ExclusiveSumDetector struct {
	Cfg Config
}

func (d ExclusiveSumDetector) Name() types.OpportunityType { return types.ExclusiveSum }

func (d ExclusiveSumDetector) Detect(markets []types.Market) []types.Opportunity {
	var opps []types.Opportunity
	now := time.Now()

	for _, m := range markets {
		if len(m.Outcomes) < 3 {
			continue
		}

		total := 0.0
		for _, o := range m.Outcomes {
			total += o.Price
		}

		deviation := 1 - total
		if math.Abs(deviation) <= d.Cfg.ExclusiveSumEpsilon {
			continue
		}

		n := float64(len(m.Outcomes))
		qty := 1 / n
		side := types.Buy
		if total >= 1 {
			side = types.Sell
		}

		actions := make([]types.TradeAction, 0, len(m.Outcomes))
		for _, o := range m.Outcomes {
			actions = append(actions, types.TradeAction{
				MarketID: m.ID, OutcomeID: o.ID, Venue: m.Venue,
				Side: side, Amount: qty, LimitPrice: o.Price,
			})
		}

		opps = append(opps, types.NewOpportunity(
			types.ExclusiveSum,
			[]string{m.ID},
			"outcome prices do not sum to 1 within tolerance",
			math.Abs(deviation),
			actions,
			map[string]any{"total": total},
			now,
		))
	}

	return opps
}
