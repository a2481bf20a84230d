package detect

import (
	"testing"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func TestCompositeDetector_FlagsCompositePricedAboveComponent(t *testing.T) {
	final := types.Market{ID: "final", Question: "Will Team X win the final?", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.5}}}
	semi := types.Market{ID: "semi", Question: "Will Team X win the semifinal?", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.4}}}

	d := CompositeDetector{}
	opps := d.Detect([]types.Market{final, semi})

	if len(opps) != 1 {
		t.Fatalf("expected exactly 1 composite opportunity, got %d", len(opps))
	}
	if opps[0].Actions[0].Side != types.Sell || opps[0].Actions[0].MarketID != "final" {
		t.Errorf("expected SELL on the composite leg, got %+v", opps[0].Actions[0])
	}
}

func TestCompositeDetector_SilentWhenNoHierarchyMatch(t *testing.T) {
	m1 := types.Market{ID: "m1", Question: "Will it rain tomorrow?", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.5}}}
	m2 := types.Market{ID: "m2", Question: "Will the stock go up?", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.4}}}

	d := CompositeDetector{}
	if opps := d.Detect([]types.Market{m1, m2}); len(opps) != 0 {
		t.Errorf("expected no opportunities absent a hierarchy match, got %d", len(opps))
	}
}
