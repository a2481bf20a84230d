// Package broker simulates order execution against a paper account: no
// network call ever leaves this package. It tracks cash, per-outcome
// positions, and a running trade/equity history for the life of the
// process, optionally mirroring both to an on-disk ledger.
package broker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// EquitySample is one point on the account's mark-to-market curve.
type EquitySample struct {
	At     time.Time
	Equity float64
}

// Broker is a paper-trading account. All state is guarded by a single
// mutex; the engine calls Execute once per approved opportunity, serially,
// so contention is not a concern.
type Broker struct {
	Cfg    Config
	Ledger *SQLiteLedger

	mu        sync.Mutex
	cash      float64
	positions map[string]float64
	trades    []types.Trade
	equity    []EquitySample
}

// New creates a Broker seeded with Cfg.InitialCash.
func New(cfg Config, ledger *SQLiteLedger) *Broker {
	return &Broker{
		Cfg:       cfg,
		Ledger:    ledger,
		cash:      cfg.InitialCash,
		positions: make(map[string]float64),
	}
}

func positionKey(venue types.Venue, marketID, outcomeID string) string {
	return string(venue) + "|" + marketID + "|" + outcomeID
}

// Inventory implements PositionLookup.
func (b *Broker) Inventory(venue types.Venue, marketID, outcomeID string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions[positionKey(venue, marketID, outcomeID)]
}

// Cash reports the current uncommitted cash balance.
func (b *Broker) Cash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// Equity marks the account to market using each open position's latest
// known price from marketLookup; positions whose market or outcome is absent
// from marketLookup add nothing to equity.
func (b *Broker) Equity(marketLookup map[string]*types.Market) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.equityLocked(marketLookup)
}

func (b *Broker) equityLocked(marketLookup map[string]*types.Market) float64 {
	equity := b.cash
	for key, qty := range b.positions {
		if qty == 0 {
			continue
		}
		marketID, outcomeID := splitPositionKey(key)
		market := marketLookup[marketID]
		if market == nil {
			continue
		}
		outcome := market.OutcomeByID(outcomeID)
		if outcome == nil {
			continue
		}
		equity += qty * outcome.Price
	}
	return equity
}

func splitPositionKey(key string) (marketID, outcomeID string) {
	first := indexByte(key, '|')
	if first < 0 {
		return key, ""
	}
	rest := key[first+1:]
	second := indexByte(rest, '|')
	if second < 0 {
		return rest, ""
	}
	return rest[:second], rest[second+1:]
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// NonZeroPositions counts open positions for the risk gate's max-open-
// positions rule.
func (b *Broker) NonZeroPositions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, qty := range b.positions {
		if qty != 0 {
			count++
		}
	}
	return count
}

// Execute fills each action in opp against the paper account, in order,
// per the depth-fraction fill model: unfillable or unaffordable legs are
// marked Skipped rather than erroring, since a partial fill is a normal
// outcome, not a failure.
func (b *Broker) Execute(opp types.Opportunity, marketLookup map[string]*types.Market) types.ExecutionResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	result := types.ExecutionResult{
		OpportunityID: opp.ID,
		ExecutedAt:    now,
		FullyFilled:   true,
	}

	epsilon := b.Cfg.PriceEpsilon
	if epsilon <= 0 {
		epsilon = 1e-6
	}

	for _, action := range opp.Actions {
		market := marketLookup[action.MarketID]
		if market == nil {
			action.Skipped = true
			action.SkippedReason = "unknown market"
			result.Actions = append(result.Actions, action)
			result.FullyFilled = false
			continue
		}

		outcomeCount := len(market.Outcomes)
		if outcomeCount == 0 {
			outcomeCount = 1
		}
		perOutcomeLiquidity := market.Liquidity * b.Cfg.DepthFrac / float64(outcomeCount)
		price := action.LimitPrice
		if price < epsilon {
			price = epsilon
		}
		maxQty := perOutcomeLiquidity / price
		q := action.Amount
		if maxQty < q {
			q = maxQty
		}

		key := positionKey(action.Venue, action.MarketID, action.OutcomeID)

		switch action.Side {
		case types.Buy:
			q = b.fillBuy(action, key, q, now, &result)
		case types.Sell:
			q = b.fillSell(action, key, q, now, &result)
		}

		if q <= 0 {
			result.FullyFilled = false
		} else if q < action.Amount {
			result.FullyFilled = false
		}
	}

	result.RealizedPnL = sumRealizedPnL(result.Trades)
	sample := EquitySample{At: now, Equity: b.equityLocked(marketLookup)}
	b.equity = append(b.equity, sample)
	if b.Ledger != nil {
		_ = b.Ledger.RecordEquitySample(sample)
	}

	return result
}

func (b *Broker) fillBuy(action types.TradeAction, key string, q float64, now time.Time, result *types.ExecutionResult) float64 {
	if q <= 0 {
		action.Skipped = true
		action.SkippedReason = "no fillable depth"
		result.Actions = append(result.Actions, action)
		return 0
	}

	fee := action.LimitPrice * q * b.Cfg.FeeBPS / 10000
	slippage := action.LimitPrice * q * b.Cfg.SlippageBPS / 10000
	cost := action.LimitPrice*q + fee + slippage

	if cost > b.cash {
		action.Skipped = true
		action.SkippedReason = "insufficient cash"
		result.Actions = append(result.Actions, action)
		return 0
	}

	b.cash -= cost
	b.positions[key] += q
	result.Actions = append(result.Actions, action)
	trade := b.recordTrade(action, q, fee, slippage, -cost, now)
	result.Trades = append(result.Trades, trade)
	return q
}

func (b *Broker) fillSell(action types.TradeAction, key string, q float64, now time.Time, result *types.ExecutionResult) float64 {
	held := b.positions[key]
	if q > held {
		q = held
	}
	if q <= 0 {
		action.Skipped = true
		action.SkippedReason = "no inventory to sell"
		result.Actions = append(result.Actions, action)
		return 0
	}

	fee := action.LimitPrice * q * b.Cfg.FeeBPS / 10000
	slippage := action.LimitPrice * q * b.Cfg.SlippageBPS / 10000
	proceeds := action.LimitPrice*q - fee - slippage

	b.cash += proceeds
	b.positions[key] -= q
	result.Actions = append(result.Actions, action)
	trade := b.recordTrade(action, q, fee, slippage, proceeds, now)
	result.Trades = append(result.Trades, trade)
	return q
}

func (b *Broker) recordTrade(action types.TradeAction, filled, fee, slippage, realizedPnL float64, now time.Time) types.Trade {
	trade := types.Trade{
		ID:           uuid.New().String(),
		Timestamp:    now,
		MarketID:     action.MarketID,
		OutcomeID:    action.OutcomeID,
		Venue:        action.Venue,
		Side:         action.Side,
		AmountFilled: filled,
		Price:        action.LimitPrice,
		Fees:         fee,
		Slippage:     slippage,
		RealizedPnL:  realizedPnL,
	}
	b.trades = append(b.trades, trade)
	tradesTotal.WithLabelValues(string(action.Side)).Inc()
	if b.Ledger != nil {
		_ = b.Ledger.RecordTrade(trade)
	}
	return trade
}

func sumRealizedPnL(trades []types.Trade) float64 {
	var total float64
	for _, t := range trades {
		total += t.RealizedPnL
	}
	return total
}

// Trades returns a copy of the trade log accumulated so far.
func (b *Broker) Trades() []types.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// EquityCurve returns a copy of the equity samples recorded so far.
func (b *Broker) EquityCurve() []EquitySample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EquitySample, len(b.equity))
	copy(out, b.equity)
	return out
}
