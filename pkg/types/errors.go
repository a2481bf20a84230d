package types

import "fmt"

// RejectReason is a closed set of reasons the strict validator or risk gate
// can refuse an opportunity.
type RejectReason string

const (
	RejectNone                   RejectReason = ""
	RejectInsufficientVenues     RejectReason = "insufficient_venues"
	RejectTooManyVenues          RejectReason = "too_many_venues"
	RejectSingleVenueType        RejectReason = "single_venue_type"
	RejectForbiddenAction        RejectReason = "forbidden_action"
	RejectForbiddenOpportunity   RejectReason = "forbidden_opportunity_type"
	RejectBelowMinEdge           RejectReason = "below_min_edge"
	RejectAboveMaxExposure       RejectReason = "above_max_exposure"
	RejectStaleMarket            RejectReason = "stale_market"
	RejectUnknownMarket          RejectReason = "unknown_market"
	RejectDuplicateDisabled      RejectReason = "duplicate_type_disabled"
	RejectMaxOpenPositions       RejectReason = "max_open_positions"
	RejectCooldownActive         RejectReason = "cooldown_active"
	RejectDailyLossLimitHit      RejectReason = "daily_loss_limit_hit"
	RejectLowConfidence          RejectReason = "low_confidence"
	RejectInsufficientLiquidity  RejectReason = "insufficient_liquidity"
	RejectInsufficientInventory  RejectReason = "insufficient_inventory"
	RejectWashTrade              RejectReason = "wash_trade"
	RejectBelowMinGrossEdge      RejectReason = "below_min_gross_edge"
	RejectPriceTooLow            RejectReason = "price_too_low"
	RejectExpiryTooSoon          RejectReason = "expiry_too_soon"
	RejectMaxAllocationExceeded  RejectReason = "max_allocation_exceeded"
)

// RejectError is a structured rejection implementing error, modeled on the
// closed-code error type venues return for order failures.
type RejectError struct {
	Reason        RejectReason
	OpportunityID string
	Detail        string
}

func (e *RejectError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("opportunity %s rejected (%s): %s", e.OpportunityID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("opportunity %s rejected (%s)", e.OpportunityID, e.Reason)
}

// OpportunityType enumerates the detector that produced an opportunity.
type OpportunityType string

const (
	Parity       OpportunityType = "PARITY"
	Ladder       OpportunityType = "LADDER"
	Duplicate    OpportunityType = "DUPLICATE"
	ExclusiveSum OpportunityType = "EXCLUSIVE_SUM"
	TimeLag      OpportunityType = "TIMELAG"
	Consistency  OpportunityType = "CONSISTENCY"
	Composite    OpportunityType = "COMPOSITE"
)
