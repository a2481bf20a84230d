package detect

import (
	"math"
	"sort"
	"time"

	"github.com/harborquant/xvenue-arb/internal/matcher"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// ConsistencyDetector checks pairs of markets on the same entity for two
// kinds of logical inconsistency: complementary thresholds that should sum
// to 1 (rule A), and dominance ordering across an ascending/descending
// threshold family (rule B).
type ConsistencyDetector struct {
	Cfg Config
}

func (d ConsistencyDetector) Name() types.OpportunityType { return types.Consistency }

type consistencyCandidate struct {
	market     types.Market
	yes        types.Outcome
	comparator string
	threshold  float64
}

func (d ConsistencyDetector) Detect(markets []types.Market) []types.Opportunity {
	var candidates []consistencyCandidate
	for _, m := range markets {
		fp := matcher.Fingerprint(m)
		if fp.Entity == "" || fp.Comparator == "" || fp.Threshold == nil {
			continue
		}
		yes := m.OutcomeByLabel("yes")
		if yes == nil {
			continue
		}
		candidates = append(candidates, consistencyCandidate{m, *yes, fp.Comparator, *fp.Threshold})
	}

	// Stable order: by entity (carried implicitly via fingerprint grouping
	// upstream), then threshold, so emitted opportunities are reproducible.
	sort.Slice(candidates, func(i, j int) bool {
		ei := matcher.Fingerprint(candidates[i].market).Entity
		ej := matcher.Fingerprint(candidates[j].market).Entity
		if ei != ej {
			return ei < ej
		}
		return candidates[i].threshold < candidates[j].threshold
	})

	var opps []types.Opportunity
	now := time.Now()

	for i := 0; i < len(candidates); i++ {
		ei := matcher.Fingerprint(candidates[i].market).Entity
		for j := i + 1; j < len(candidates); j++ {
			ej := matcher.Fingerprint(candidates[j].market).Entity
			if ei != ej {
				continue
			}

			a, b := candidates[i], candidates[j]
			if opp, ok := d.ruleA(a, b, now); ok {
				opps = append(opps, opp)
			}
			if opp, ok := d.ruleB(a, b, now); ok {
				opps = append(opps, opp)
			}
		}
	}

	return opps
}

func isUpper(c string) bool  { return c == ">" || c == ">=" }
func isLower(c string) bool  { return c == "<" || c == "<=" }

// ruleA: equal thresholds, opposite comparator direction -> prices should
// complement to 1.
func (d ConsistencyDetector) ruleA(a, b consistencyCandidate, now time.Time) (types.Opportunity, bool) {
	if a.threshold != b.threshold {
		return types.Opportunity{}, false
	}
	if !((isUpper(a.comparator) && isLower(b.comparator)) || (isLower(a.comparator) && isUpper(b.comparator))) {
		return types.Opportunity{}, false
	}

	sum := a.yes.Price + b.yes.Price
	deviation := 1 - sum
	if math.Abs(deviation) <= d.Cfg.ConsistencyTolerance {
		return types.Opportunity{}, false
	}

	side := types.Buy
	if sum > 1 {
		side = types.Sell
	}

	actions := []types.TradeAction{
		{MarketID: a.market.ID, OutcomeID: a.yes.ID, Venue: a.market.Venue, Side: side, Amount: 1, LimitPrice: a.yes.Price},
		{MarketID: b.market.ID, OutcomeID: b.yes.ID, Venue: b.market.Venue, Side: side, Amount: 1, LimitPrice: b.yes.Price},
	}
	return types.NewOpportunity(types.Consistency, []string{a.market.ID, b.market.ID},
		"complementary thresholds do not sum to 1", math.Abs(deviation), actions, nil, now), true
}

// ruleB: both comparators in the same direction family with t1 < t2 ->
// dominance must hold between the probabilities.
func (d ConsistencyDetector) ruleB(a, b consistencyCandidate, now time.Time) (types.Opportunity, bool) {
	lo, hi := a, b
	if lo.threshold > hi.threshold {
		lo, hi = hi, lo
	}
	if lo.threshold == hi.threshold {
		return types.Opportunity{}, false
	}

	switch {
	case isUpper(lo.comparator) && isUpper(hi.comparator):
		if lo.yes.Price >= hi.yes.Price {
			return types.Opportunity{}, false
		}
		actions := []types.TradeAction{
			{MarketID: lo.market.ID, OutcomeID: lo.yes.ID, Venue: lo.market.Venue, Side: types.Buy, Amount: 1, LimitPrice: lo.yes.Price},
			{MarketID: hi.market.ID, OutcomeID: hi.yes.ID, Venue: hi.market.Venue, Side: types.Sell, Amount: 1, LimitPrice: hi.yes.Price},
		}
		return types.NewOpportunity(types.Consistency, []string{lo.market.ID, hi.market.ID},
			"dominance violated: lower threshold priced below higher threshold", hi.yes.Price-lo.yes.Price, actions, nil, now), true

	case isLower(lo.comparator) && isLower(hi.comparator):
		if lo.yes.Price <= hi.yes.Price {
			return types.Opportunity{}, false
		}
		actions := []types.TradeAction{
			{MarketID: lo.market.ID, OutcomeID: lo.yes.ID, Venue: lo.market.Venue, Side: types.Sell, Amount: 1, LimitPrice: lo.yes.Price},
			{MarketID: hi.market.ID, OutcomeID: hi.yes.ID, Venue: hi.market.Venue, Side: types.Buy, Amount: 1, LimitPrice: hi.yes.Price},
		}
		return types.NewOpportunity(types.Consistency, []string{lo.market.ID, hi.market.ID},
			"dominance violated: lower threshold priced above higher threshold", lo.yes.Price-hi.yes.Price, actions, nil, now), true
	}

	return types.Opportunity{}, false
}
