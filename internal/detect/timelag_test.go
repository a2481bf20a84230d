package detect

import (
	"testing"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func TestTimeLagDetector_FirstObservationNeverEmits(t *testing.T) {
	d := NewTimeLagDetector(Config{TimeLagWindow: time.Minute, TimeLagJumpBPS: 100})
	m := types.Market{ID: "m1", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.5}}}

	if opps := d.Detect([]types.Market{m}); len(opps) != 0 {
		t.Errorf("expected no opportunity on first observation, got %d", len(opps))
	}
}

func TestTimeLagDetector_EmitsOnStaleJump(t *testing.T) {
	d := &TimeLagDetector{Cfg: Config{TimeLagWindow: 0, TimeLagJumpBPS: 100}, history: map[string]priceObservation{
		"m1": {price: 0.50, observed: time.Now().Add(-time.Hour)},
	}}

	m := types.Market{ID: "m1", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.65}}}
	opps := d.Detect([]types.Market{m})
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].Actions[0].Side != types.Sell {
		t.Errorf("expected SELL on a price rise, got %s", opps[0].Actions[0].Side)
	}
}

func TestTimeLagDetector_BuysOnPriceDrop(t *testing.T) {
	d := &TimeLagDetector{Cfg: Config{TimeLagWindow: 0, TimeLagJumpBPS: 100}, history: map[string]priceObservation{
		"m1": {price: 0.50, observed: time.Now().Add(-time.Hour)},
	}}

	m := types.Market{ID: "m1", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.35}}}
	opps := d.Detect([]types.Market{m})
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].Actions[0].Side != types.Buy {
		t.Errorf("expected BUY on a price drop, got %s", opps[0].Actions[0].Side)
	}
}

func TestTimeLagDetector_AlwaysUpdatesHistory(t *testing.T) {
	d := NewTimeLagDetector(Config{TimeLagWindow: time.Hour, TimeLagJumpBPS: 100})
	m := types.Market{ID: "m1", Outcomes: []types.Outcome{{ID: "yes", Label: "Yes", Price: 0.5}}}

	d.Detect([]types.Market{m})
	d.mu.Lock()
	obs, ok := d.history["m1"]
	d.mu.Unlock()
	if !ok || obs.price != 0.5 {
		t.Errorf("expected history to be recorded after first observation, got %+v ok=%v", obs, ok)
	}
}
