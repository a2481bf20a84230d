package detect

import (
	"math"
	"testing"
	"time"

	"github.com/harborquant/xvenue-arb/internal/matcher"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

func TestDuplicateDetector_SeedScenario(t *testing.T) {
	now := time.Now()
	a := types.Market{
		ID: "a1", Venue: types.VenueA, Asset: "btc", Question: "will btc hit 100k by march",
		EndDate:  &now,
		Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.60}, {ID: "no", Label: "No", Price: 0.40}},
	}
	laterExpiry := now.Add(time.Hour)
	b := types.Market{
		ID: "b1", Venue: types.VenueB, Asset: "btc", Question: "will btc hit 100k by march",
		EndDate:  &laterExpiry,
		Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.68}, {ID: "no", Label: "No", Price: 0.32}},
	}

	d := DuplicateDetector{
		Cfg:        Config{DuplicateSimilarity: 0.85, DuplicatePriceDiff: 0.05},
		Similarity: matcher.LexicalSimilarity{},
	}

	opps := d.Detect([]types.Market{a, b})
	if len(opps) != 1 {
		t.Fatalf("expected exactly 1 duplicate opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if math.Abs(opp.NetEdge-0.08) > 0.0001 {
		t.Errorf("net_edge = %f, want 0.08", opp.NetEdge)
	}

	var buyLeg, sellLeg *types.TradeAction
	for i := range opp.Actions {
		switch opp.Actions[i].Side {
		case types.Buy:
			buyLeg = &opp.Actions[i]
		case types.Sell:
			sellLeg = &opp.Actions[i]
		}
	}
	if buyLeg == nil || sellLeg == nil {
		t.Fatalf("expected one BUY and one SELL leg, got %+v", opp.Actions)
	}
	if buyLeg.LimitPrice != 0.60 {
		t.Errorf("expected BUY leg at 0.60, got %f", buyLeg.LimitPrice)
	}
	if sellLeg.LimitPrice != 0.68 {
		t.Errorf("expected SELL leg at 0.68, got %f", sellLeg.LimitPrice)
	}
}
