// Package source defines the narrow contract the engine uses to pull
// market snapshots, plus a fixture implementation for tests.
package source

import (
	"context"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// Metadata describes a venue's execution characteristics.
type Metadata struct {
	Venue             types.Venue
	FeeBPS            float64
	TickSize          float64
	SupportsOrderbook bool
}

// MarketSource is implemented once per venue. Implementations normalize
// prices to [0,1], tag each market with its venue, and filter markets that
// cannot be traded (missing outcomes, already expired) before returning.
type MarketSource interface {
	Fetch(ctx context.Context) ([]types.Market, error)
	Metadata() Metadata
}

// Static is a fixed-snapshot MarketSource, useful for tests and for
// replaying a captured set of markets without live I/O.
type Static struct {
	Markets []types.Market
	Meta    Metadata
}

func (s Static) Fetch(_ context.Context) ([]types.Market, error) {
	return s.Markets, nil
}

func (s Static) Metadata() Metadata {
	return s.Meta
}
