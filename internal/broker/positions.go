package broker

import "github.com/harborquant/xvenue-arb/pkg/types"

// PositionLookup answers how much of a given outcome the paper broker
// currently holds, so the validator can enforce venue B's long-only rule
// without reaching into the broker's internal state directly.
type PositionLookup interface {
	Inventory(venue types.Venue, marketID, outcomeID string) float64
}
