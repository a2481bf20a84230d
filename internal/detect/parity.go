package detect

import (
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// ParityDetector finds binary markets whose YES+NO sum trades below parity
// after modeled fees and slippage.
type ParityDetector struct {
	Cfg Config
}

func (d ParityDetector) Name() types.OpportunityType { return types.Parity }

func (d ParityDetector) Detect(markets []types.Market) []types.Opportunity {
	var opps []types.Opportunity
	now := time.Now()

	for _, m := range markets {
		if !m.Binary() {
			continue
		}
		yes := m.OutcomeByLabel("yes")
		no := m.OutcomeByLabel("no")
		if yes == nil || no == nil {
			continue
		}

		gross := yes.Price + no.Price
		if gross >= d.Cfg.ParityThreshold {
			continue
		}

		frictionRate := bps(d.Cfg.FeeBPS) + bps(d.Cfg.SlippageBPS)
		friction := gross * frictionRate
		netEdge := 1 - (gross + friction)
		if netEdge <= 0 {
			continue
		}

		actions := []types.TradeAction{
			{MarketID: m.ID, OutcomeID: yes.ID, Venue: m.Venue, Side: types.Buy, Amount: 1, LimitPrice: yes.Price},
			{MarketID: m.ID, OutcomeID: no.ID, Venue: m.Venue, Side: types.Buy, Amount: 1, LimitPrice: no.Price},
		}

		opps = append(opps, types.NewOpportunity(
			types.Parity,
			[]string{m.ID},
			"yes+no trades below parity after fees and slippage",
			netEdge,
			actions,
			map[string]any{"gross": gross, "friction": friction},
			now,
		))
	}

	return opps
}
