package broker

import (
	"math"
	"testing"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func sampleConfig() Config {
	return Config{
		InitialCash:  1000,
		FeeBPS:       100,  // 1%
		SlippageBPS:  25,   // 0.25%
		DepthFrac:    0.5,
		PriceEpsilon: 1e-6,
	}
}

func twoOutcomeMarket(liquidity float64) map[string]*types.Market {
	return map[string]*types.Market{
		"m1": {
			ID:        "m1",
			Liquidity: liquidity,
			Outcomes:  []types.Outcome{{ID: "yes", Price: 0.4}, {ID: "no", Price: 0.6}},
		},
	}
}

func TestBroker_BuyFillsWithinDepthAndCash(t *testing.T) {
	b := New(sampleConfig(), nil)
	opp := types.Opportunity{
		ID: "opp-1",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, Amount: 10, LimitPrice: 0.4},
		},
	}

	result := b.Execute(opp, twoOutcomeMarket(1000))
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.AmountFilled != 10 {
		t.Errorf("expected full fill of 10, got %f", trade.AmountFilled)
	}

	wantFee := 0.4 * 10 * 100 / 10000
	wantSlip := 0.4 * 10 * 25 / 10000
	wantCost := 0.4*10 + wantFee + wantSlip
	if math.Abs(b.Cash()-(1000-wantCost)) > 0.0001 {
		t.Errorf("cash = %f, want %f", b.Cash(), 1000-wantCost)
	}
	if b.Inventory(types.VenueA, "m1", "yes") != 10 {
		t.Errorf("expected position of 10, got %f", b.Inventory(types.VenueA, "m1", "yes"))
	}
}

func TestBroker_BuySkippedWhenCostExceedsCash(t *testing.T) {
	cfg := sampleConfig()
	cfg.InitialCash = 1
	b := New(cfg, nil)

	opp := types.Opportunity{
		ID: "opp-1",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, Amount: 10, LimitPrice: 0.4},
		},
	}

	result := b.Execute(opp, twoOutcomeMarket(1000))
	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if !result.Actions[0].Skipped {
		t.Errorf("expected action to be marked skipped")
	}
	if result.FullyFilled {
		t.Errorf("expected FullyFilled=false")
	}
}

func TestBroker_SellCappedAtHeldInventory(t *testing.T) {
	b := New(sampleConfig(), nil)
	buyOpp := types.Opportunity{
		ID: "opp-buy",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueB, Side: types.Buy, Amount: 5, LimitPrice: 0.4},
		},
	}
	b.Execute(buyOpp, twoOutcomeMarket(1000))

	sellOpp := types.Opportunity{
		ID: "opp-sell",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueB, Side: types.Sell, Amount: 100, LimitPrice: 0.45},
		},
	}
	result := b.Execute(sellOpp, twoOutcomeMarket(1000))
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].AmountFilled != 5 {
		t.Errorf("expected sell capped at held 5, got %f", result.Trades[0].AmountFilled)
	}
	if b.Inventory(types.VenueB, "m1", "yes") != 0 {
		t.Errorf("expected position fully closed, got %f", b.Inventory(types.VenueB, "m1", "yes"))
	}
}

func TestBroker_DepthFractionLimitsFillQuantity(t *testing.T) {
	b := New(sampleConfig(), nil)
	opp := types.Opportunity{
		ID: "opp-1",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, Amount: 1000, LimitPrice: 0.4},
		},
	}

	// liquidity=10, depth_frac=0.5, 2 outcomes => per_outcome_liquidity = 2.5
	// max_qty = 2.5 / 0.4 = 6.25
	result := b.Execute(opp, twoOutcomeMarket(10))
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if math.Abs(result.Trades[0].AmountFilled-6.25) > 0.0001 {
		t.Errorf("expected depth-limited fill of 6.25, got %f", result.Trades[0].AmountFilled)
	}
	if result.FullyFilled {
		t.Errorf("expected FullyFilled=false for a partial fill")
	}
}

func TestBroker_EquityReflectsMarkedPositions(t *testing.T) {
	b := New(sampleConfig(), nil)
	opp := types.Opportunity{
		ID: "opp-1",
		Actions: []types.TradeAction{
			{MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, Amount: 5, LimitPrice: 0.4},
		},
	}
	markets := twoOutcomeMarket(1000)
	b.Execute(opp, markets)

	equity := b.Equity(markets)
	wantEquity := b.Cash() + 5*0.4
	if math.Abs(equity-wantEquity) > 0.0001 {
		t.Errorf("equity = %f, want %f", equity, wantEquity)
	}
}
