package detect

import (
	"strings"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// hierarchyPair names a component event that is a logical prerequisite of
// a composite event — e.g. a team must win its semifinal before it can
// win the final. First match in the table wins; order matters.
type hierarchyPair struct {
	composite string
	component string
}

var hierarchyTable = []hierarchyPair{
	{composite: "championship", component: "semifinal"},
	{composite: "final", component: "semifinal"},
	{composite: "semifinal", component: "quarterfinal"},
	{composite: "playoffs", component: "regular season"},
}

// CompositeDetector finds markets whose hierarchical relationship implies
// P(composite) <= P(component), using a closed keyword table. It is
// intentionally conservative: absent a keyword match, it emits nothing,
// which is safe per the detector's own contract.
type CompositeDetector struct {
	Cfg Config
}

func (d CompositeDetector) Name() types.OpportunityType { return types.Composite }

func (d CompositeDetector) Detect(markets []types.Market) []types.Opportunity {
	var opps []types.Opportunity
	now := time.Now()
	matched := map[[2]string]bool{}

	for _, pair := range hierarchyTable {
		for _, composite := range markets {
			if !strings.Contains(strings.ToLower(composite.Question), pair.composite) {
				continue
			}
			compositeOutcome := firstComparableOutcome(composite)
			if compositeOutcome == nil {
				continue
			}

			for _, component := range markets {
				if component.ID == composite.ID {
					continue
				}
				if !strings.Contains(strings.ToLower(component.Question), pair.component) {
					continue
				}
				componentOutcome := firstComparableOutcome(component)
				if componentOutcome == nil {
					continue
				}
				key := [2]string{composite.ID, component.ID}
				if matched[key] {
					continue
				}
				matched[key] = true

				if compositeOutcome.Price <= componentOutcome.Price {
					continue
				}

				netEdge := compositeOutcome.Price - componentOutcome.Price
				actions := []types.TradeAction{
					{MarketID: composite.ID, OutcomeID: compositeOutcome.ID, Venue: composite.Venue, Side: types.Sell, Amount: 1, LimitPrice: compositeOutcome.Price},
					{MarketID: component.ID, OutcomeID: componentOutcome.ID, Venue: component.Venue, Side: types.Buy, Amount: 1, LimitPrice: componentOutcome.Price},
				}
				opps = append(opps, types.NewOpportunity(types.Composite,
					[]string{composite.ID, component.ID},
					"composite event priced above its own prerequisite",
					netEdge, actions, map[string]any{"hierarchy": pair.composite + ">" + pair.component}, now))
			}
		}
	}

	return opps
}
