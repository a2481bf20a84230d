package detect

import (
	"sort"
	"time"

	"github.com/harborquant/xvenue-arb/internal/matcher"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// LadderDetector finds monotonicity violations across a family of markets
// on the same entity and comparator, ordered by threshold.
type LadderDetector struct {
	Cfg Config
}

func (d LadderDetector) Name() types.OpportunityType { return types.Ladder }

type ladderRung struct {
	market    types.Market
	threshold float64
	yes       types.Outcome
}

type ladderGroupKey struct {
	entity     string
	comparator string
}

func (d LadderDetector) Detect(markets []types.Market) []types.Opportunity {
	groups := map[ladderGroupKey][]ladderRung{}

	for _, m := range markets {
		fp := matcher.Fingerprint(m)
		if fp.Entity == "" || fp.Comparator == "" || fp.Threshold == nil {
			continue
		}
		if fp.Comparator != ">" && fp.Comparator != ">=" && fp.Comparator != "<" && fp.Comparator != "<=" {
			continue
		}
		yes := m.OutcomeByLabel("yes")
		if yes == nil {
			continue
		}
		key := ladderGroupKey{entity: fp.Entity, comparator: fp.Comparator}
		groups[key] = append(groups[key], ladderRung{market: m, threshold: *fp.Threshold, yes: *yes})
	}

	var opps []types.Opportunity
	now := time.Now()

	keys := make([]ladderGroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entity != keys[j].entity {
			return keys[i].entity < keys[j].entity
		}
		return keys[i].comparator < keys[j].comparator
	})

	for _, key := range keys {
		rungs := groups[key]
		sort.Slice(rungs, func(i, j int) bool { return rungs[i].threshold < rungs[j].threshold })

		ascendingFamily := key.comparator == ">" || key.comparator == ">="

		for i := 0; i+1 < len(rungs); i++ {
			lo, hi := rungs[i], rungs[i+1]

			if ascendingFamily {
				// probability of ">t" must be non-increasing as t grows.
				if lo.yes.Price+d.Cfg.LadderMinGap < hi.yes.Price {
					opps = append(opps, d.emit(lo, hi, now))
				}
			} else {
				// probability of "<t" must be non-decreasing as t grows.
				if lo.yes.Price-d.Cfg.LadderMinGap > hi.yes.Price {
					opps = append(opps, d.emitDescending(lo, hi, now))
				}
			}
		}
	}

	return opps
}

func (d LadderDetector) emit(lo, hi ladderRung, now time.Time) types.Opportunity {
	netEdge := hi.yes.Price - lo.yes.Price
	actions := []types.TradeAction{
		{MarketID: lo.market.ID, OutcomeID: lo.yes.ID, Venue: lo.market.Venue, Side: types.Buy, Amount: 1, LimitPrice: lo.yes.Price},
		{MarketID: hi.market.ID, OutcomeID: hi.yes.ID, Venue: hi.market.Venue, Side: types.Sell, Amount: 1, LimitPrice: hi.yes.Price},
	}
	return types.NewOpportunity(types.Ladder, []string{lo.market.ID, hi.market.ID},
		"ladder monotonicity violated across ascending thresholds", netEdge, actions, nil, now)
}

func (d LadderDetector) emitDescending(lo, hi ladderRung, now time.Time) types.Opportunity {
	netEdge := lo.yes.Price - hi.yes.Price
	actions := []types.TradeAction{
		{MarketID: lo.market.ID, OutcomeID: lo.yes.ID, Venue: lo.market.Venue, Side: types.Sell, Amount: 1, LimitPrice: lo.yes.Price},
		{MarketID: hi.market.ID, OutcomeID: hi.yes.ID, Venue: hi.market.Venue, Side: types.Buy, Amount: 1, LimitPrice: hi.yes.Price},
	}
	return types.NewOpportunity(types.Ladder, []string{lo.market.ID, hi.market.ID},
		"ladder monotonicity violated across descending thresholds", netEdge, actions, nil, now)
}
