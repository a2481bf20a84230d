// Package validate enforces the cross-venue legality of an opportunity
// before it reaches the risk gate: every approved trade must have legs on
// both venue A and venue B and on no other venue, and venue B must never be
// asked to sell more than it holds.
package validate

import (
	"github.com/harborquant/xvenue-arb/internal/broker"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// ValidationResult carries the outcome of Validate along with enough
// metadata for the reporter to explain a rejection.
type ValidationResult struct {
	Allowed bool
	Reason  types.RejectReason
	Detail  string
	Venues  []types.Venue
}

func allow(venues []types.Venue) ValidationResult {
	return ValidationResult{Allowed: true, Venues: venues}
}

func reject(reason types.RejectReason, detail string) ValidationResult {
	return ValidationResult{Allowed: false, Reason: reason, Detail: detail}
}

// Validator is a pure function of (opportunity, market lookup, broker
// positions); it holds no state of its own across calls.
type Validator struct {
	// AllowedTypes, if non-empty, is the optional whitelist from rule 4.
	// An empty set means every opportunity type is permitted.
	AllowedTypes map[types.OpportunityType]bool
}

// Validate runs the ordered rules from the dual-venue contract. Rules are
// checked in order and the first failure wins.
func (v Validator) Validate(opp types.Opportunity, markets map[string]*types.Market, positions broker.PositionLookup) ValidationResult {
	if len(opp.Actions) < 2 {
		return reject(types.RejectInsufficientVenues, "opportunity does not have enough legs to span two venues")
	}

	venueSet := map[types.Venue]bool{}
	for _, action := range opp.Actions {
		venueSet[action.Venue] = true
	}

	switch len(venueSet) {
	case 1:
		return reject(types.RejectSingleVenueType, "both actions reference the same venue")
	case 2:
		// continue to rule 2
	default:
		return reject(types.RejectTooManyVenues, "opportunity references more than two venues")
	}

	venues := make([]types.Venue, 0, 2)
	for venue := range venueSet {
		venues = append(venues, venue)
	}
	if !venueSet[types.VenueA] || !venueSet[types.VenueB] {
		return reject(types.RejectSingleVenueType, "the two venues used must be one venue A and one venue B")
	}

	for _, action := range opp.Actions {
		if action.Venue != types.VenueB {
			continue
		}
		if action.Side != types.Sell {
			continue
		}
		inventory := positions.Inventory(action.Venue, action.MarketID, action.OutcomeID)
		if inventory <= 0 || action.Amount > inventory {
			return reject(types.RejectForbiddenAction, "venue B cannot sell without sufficient inventory")
		}
	}

	if len(v.AllowedTypes) > 0 && !v.AllowedTypes[opp.Type] {
		return reject(types.RejectForbiddenOpportunity, "opportunity type is not on the whitelist")
	}

	return allow(venues)
}
