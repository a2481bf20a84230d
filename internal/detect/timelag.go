package detect

import (
	"math"
	"sync"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

type priceObservation struct {
	price     float64
	observed  time.Time
}

// TimeLagDetector is the only stateful detector: it remembers each
// market's last observed price and flags a delayed repricing once that
// observation is stale and the jump crosses threshold. Its Detect method
// is the sole mutator of its history table and must be invoked from a
// single goroutine per spec's concurrency model.
type TimeLagDetector struct {
	Cfg Config

	mu      sync.Mutex
	history map[string]priceObservation
}

func NewTimeLagDetector(cfg Config) *TimeLagDetector {
	return &TimeLagDetector{Cfg: cfg, history: make(map[string]priceObservation)}
}

func (d *TimeLagDetector) Name() types.OpportunityType { return types.TimeLag }

func (d *TimeLagDetector) Detect(markets []types.Market) []types.Opportunity {
	d.mu.Lock()
	defer d.mu.Unlock()

	var opps []types.Opportunity
	now := time.Now()
	jumpThreshold := bps(d.Cfg.TimeLagJumpBPS)

	for _, m := range markets {
		outcome := firstComparableOutcome(m)
		if outcome == nil {
			continue
		}

		prior, seen := d.history[m.ID]
		d.history[m.ID] = priceObservation{price: outcome.Price, observed: now}

		if !seen {
			continue
		}
		if now.Sub(prior.observed) < d.Cfg.TimeLagWindow {
			continue
		}

		jump := outcome.Price - prior.price
		if math.Abs(jump) < jumpThreshold {
			continue
		}

		side := types.Sell
		if jump < 0 {
			side = types.Buy
		}

		actions := []types.TradeAction{
			{MarketID: m.ID, OutcomeID: outcome.ID, Venue: m.Venue, Side: side, Amount: 1, LimitPrice: outcome.Price},
		}

		opps = append(opps, types.NewOpportunity(
			types.TimeLag,
			[]string{m.ID},
			"price moved significantly since last observation",
			math.Abs(jump),
			actions,
			map[string]any{"prior_price": prior.price, "prior_observed": prior.observed},
			now,
		))
	}

	return opps
}
