// Package risk gates candidate opportunities before they reach the paper
// broker. Rules run in a fixed order; the first failure wins and is
// reported both as a structured Decision and as a counted metric.
package risk

import (
	"sync"
	"time"

	"github.com/harborquant/xvenue-arb/internal/broker"
	"github.com/harborquant/xvenue-arb/pkg/types"
	"go.uber.org/zap"
)

// ApprovalContext carries the per-call state the gate needs but does not
// own: the market snapshot, current broker positions, and portfolio-level
// aggregates computed by the engine for this iteration.
type ApprovalContext struct {
	Markets          map[string]*types.Market
	Positions        broker.PositionLookup
	TotalEquity      float64
	NonZeroPositions int
	RealizedPnLToday float64
	LastApprovalAt   time.Time
	Now              time.Time
}

// Decision is the outcome of one Approve call.
type Decision struct {
	Approved bool
	Reason   types.RejectReason
	Detail   string
}

func approved() Decision { return Decision{Approved: true} }

func denied(reason types.RejectReason, detail string) Decision {
	return Decision{Approved: false, Reason: reason, Detail: detail}
}

// Gate evaluates opportunities against Config and tracks how many it has
// approved this process lifetime. The enable check a caller performs before
// calling Approve (is the gate even active) is expected to be lock-free;
// the session counters it maintains internally are mutex-guarded, mirroring
// the lock-free-check/mutex-counter split of a typical balance breaker.
type Gate struct {
	Cfg    Config
	Logger *zap.Logger

	mu                    sync.Mutex
	approvalsThisSession  int
	rejectionsThisSession map[types.RejectReason]int
}

// NewGate builds a Gate ready to approve opportunities.
func NewGate(cfg Config, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{Cfg: cfg, Logger: logger, rejectionsThisSession: make(map[types.RejectReason]int)}
}

// Approve runs the ordered rule set against opp. Rejections are logged at
// Warn and counted; approvals increment the session counter used by rule 9
// on subsequent calls.
func (g *Gate) Approve(opp types.Opportunity, ctx ApprovalContext) Decision {
	if decision := g.evaluate(opp, ctx); !decision.Approved {
		g.recordRejection(opp, decision)
		return decision
	}

	g.mu.Lock()
	g.approvalsThisSession++
	g.mu.Unlock()

	return approved()
}

func (g *Gate) evaluate(opp types.Opportunity, ctx ApprovalContext) Decision {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Rule 1: DUPLICATE opportunities require short-selling to be available
	// system-wide; absent it, a duplicate arbitrage cannot be closed out.
	if opp.Type == types.Duplicate && (!g.Cfg.DuplicateEnabled || !g.Cfg.ShortSellingAvailable) {
		return denied(types.RejectDuplicateDisabled, "duplicate detector requires short-selling to be available")
	}

	// Rule 2: every SELL action must be covered by inventory.
	for _, action := range opp.Actions {
		if action.Side != types.Sell {
			continue
		}
		if ctx.Positions == nil {
			continue
		}
		held := ctx.Positions.Inventory(action.Venue, action.MarketID, action.OutcomeID)
		if held < action.Amount {
			return denied(types.RejectInsufficientInventory, "sell action exceeds held inventory")
		}
	}

	// Rule 3: no same-outcome BUY and SELL within one opportunity.
	bought := map[string]bool{}
	for _, action := range opp.Actions {
		if action.Side == types.Buy {
			bought[action.MarketID+"|"+action.OutcomeID] = true
		}
	}
	for _, action := range opp.Actions {
		if action.Side == types.Sell && bought[action.MarketID+"|"+action.OutcomeID] {
			return denied(types.RejectWashTrade, "opportunity buys and sells the same outcome")
		}
	}

	// Rule 4: minimum net edge.
	if opp.NetEdge < g.Cfg.MinNetEdge {
		return denied(types.RejectBelowMinEdge, "net edge below minimum threshold")
	}

	// Rule 5: minimum gross edge, if configured. Detectors that compute a
	// gross edge distinct from net attach it as metadata; absent that, net
	// edge stands in for gross.
	if g.Cfg.MinGrossEdge > 0 {
		grossEdge := opp.NetEdge
		if v, ok := opp.Metadata["gross_edge"].(float64); ok {
			grossEdge = v
		}
		if grossEdge < g.Cfg.MinGrossEdge {
			return denied(types.RejectBelowMinGrossEdge, "gross edge below minimum threshold")
		}
	}

	for _, action := range opp.Actions {
		if action.Side != types.Buy {
			continue
		}

		// Rule 6: micro-price filter.
		if action.LimitPrice < g.Cfg.MinBuyPrice {
			return denied(types.RejectPriceTooLow, "buy limit price below minimum")
		}

		market := ctx.Markets[action.MarketID]
		if market == nil {
			return denied(types.RejectUnknownMarket, "action references a market outside the current snapshot")
		}

		// Rule 7: buy-side liquidity.
		outcomeCount := len(market.Outcomes)
		if outcomeCount == 0 {
			outcomeCount = 1
		}
		perOutcomeLiquidity := market.Liquidity / float64(outcomeCount)
		required := g.Cfg.MinLiquidityMultiple * action.LimitPrice * action.Amount
		if perOutcomeLiquidity < required {
			return denied(types.RejectInsufficientLiquidity, "buy-side liquidity below required multiple")
		}
	}

	// Rule 8: expiry horizon, checked across every referenced market.
	for _, marketID := range opp.MarketIDs {
		market := ctx.Markets[marketID]
		if market == nil || market.EndDate == nil {
			continue
		}
		hoursToExpiry := market.EndDate.Sub(now).Hours()
		if hoursToExpiry < g.Cfg.MinExpiryHours {
			return denied(types.RejectExpiryTooSoon, "market expires before the minimum horizon")
		}
	}

	// Rule 9: max open positions, counting this session's approvals against
	// positions already open.
	g.mu.Lock()
	approvalsSoFar := g.approvalsThisSession
	g.mu.Unlock()
	if ctx.NonZeroPositions+approvalsSoFar >= g.Cfg.MaxOpenPositions {
		return denied(types.RejectMaxOpenPositions, "max open positions reached")
	}

	// Rule 10: max allocation per market.
	if g.Cfg.MaxAllocationPerMkt > 0 && ctx.TotalEquity > 0 {
		costByMarket := map[string]float64{}
		for _, action := range opp.Actions {
			costByMarket[action.MarketID] += action.LimitPrice * action.Amount
		}
		allocationCap := ctx.TotalEquity * g.Cfg.MaxAllocationPerMkt
		for _, cost := range costByMarket {
			if cost > allocationCap {
				return denied(types.RejectMaxAllocationExceeded, "estimated cost exceeds per-market allocation cap")
			}
		}
	}

	// Supplementary safety nets layered on top of the ten ordered rules,
	// mirroring a balance breaker's daily-loss and cooldown guards.
	if g.Cfg.DailyLossLimitUSD > 0 && ctx.RealizedPnLToday <= -g.Cfg.DailyLossLimitUSD {
		return denied(types.RejectDailyLossLimitHit, "daily realized loss limit reached")
	}
	if g.Cfg.Cooldown > 0 && !ctx.LastApprovalAt.IsZero() && now.Sub(ctx.LastApprovalAt) < g.Cfg.Cooldown {
		return denied(types.RejectCooldownActive, "approval cooldown still active")
	}

	return approved()
}

func (g *Gate) recordRejection(opp types.Opportunity, decision Decision) {
	g.mu.Lock()
	g.rejectionsThisSession[decision.Reason]++
	g.mu.Unlock()

	rejectionsTotal.WithLabelValues(string(opp.Type), string(decision.Reason)).Inc()
	g.Logger.Warn("opportunity rejected",
		zap.String("opportunity_id", opp.ID),
		zap.String("type", string(opp.Type)),
		zap.String("reason", string(decision.Reason)),
		zap.String("detail", decision.Detail),
	)
}

// ApprovalsThisSession reports how many opportunities this gate has let
// through since it was constructed.
func (g *Gate) ApprovalsThisSession() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.approvalsThisSession
}
