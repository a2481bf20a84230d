package detect

import (
	"math"
	"testing"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func TestExclusiveSumDetector_SeedScenario(t *testing.T) {
	m := types.Market{
		ID: "m1",
		Outcomes: []types.Outcome{
			{ID: "a", Price: 0.20}, {ID: "b", Price: 0.25}, {ID: "c", Price: 0.30}, {ID: "d", Price: 0.10},
		},
	}
	d := ExclusiveSumDetector{Cfg: Config{ExclusiveSumEpsilon: 0.02}}

	opps := d.Detect([]types.Market{m})
	if len(opps) != 1 {
		t.Fatalf("expected exactly 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if math.Abs(opp.NetEdge-0.15) > 0.0001 {
		t.Errorf("net_edge = %f, want 0.15", opp.NetEdge)
	}
	if len(opp.Actions) != 4 {
		t.Fatalf("expected 4 legs, got %d", len(opp.Actions))
	}
	for _, a := range opp.Actions {
		if a.Side != types.Buy {
			t.Errorf("expected all BUY legs for undersummed market, got %s", a.Side)
		}
		if math.Abs(a.Amount-0.25) > 0.0001 {
			t.Errorf("expected amount 0.25, got %f", a.Amount)
		}
	}
}

func TestExclusiveSumDetector_NoOpportunityWithinTolerance(t *testing.T) {
	m := types.Market{
		ID: "m1",
		Outcomes: []types.Outcome{
			{ID: "a", Price: 0.33}, {ID: "b", Price: 0.33}, {ID: "c", Price: 0.34},
		},
	}
	d := ExclusiveSumDetector{Cfg: Config{ExclusiveSumEpsilon: 0.02}}

	if opps := d.Detect([]types.Market{m}); len(opps) != 0 {
		t.Errorf("expected no opportunity within tolerance, got %d", len(opps))
	}
}

func TestExclusiveSumDetector_SellsWhenOversummed(t *testing.T) {
	m := types.Market{
		ID: "m1",
		Outcomes: []types.Outcome{
			{ID: "a", Price: 0.40}, {ID: "b", Price: 0.40}, {ID: "c", Price: 0.40},
		},
	}
	d := ExclusiveSumDetector{Cfg: Config{ExclusiveSumEpsilon: 0.02}}

	opps := d.Detect([]types.Market{m})
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	for _, a := range opps[0].Actions {
		if a.Side != types.Sell {
			t.Errorf("expected all SELL legs for oversummed market, got %s", a.Side)
		}
	}
}
