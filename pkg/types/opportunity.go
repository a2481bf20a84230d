package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Opportunity is a candidate arbitrage identified by a detector.
type Opportunity struct {
	ID          string          `json:"id"`
	Type        OpportunityType `json:"type"`
	MarketIDs   []string        `json:"market_ids"`
	Description string          `json:"description"`
	NetEdge     float64         `json:"net_edge"`
	Actions     []TradeAction   `json:"actions"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	DetectedAt  time.Time       `json:"detected_at"`
}

// DeriveOpportunityID computes a deterministic id from the opportunity's
// content so the same arbitrage reported in two consecutive iterations
// collapses to one id. Prices round to 4 decimal places before hashing so
// noise below a basis point does not mint a new id.
func DeriveOpportunityID(typ OpportunityType, marketIDs []string, actions []TradeAction) string {
	ids := append([]string(nil), marketIDs...)
	sort.Strings(ids)

	type actionKey struct {
		outcomeID string
		side      string
		price     float64
	}
	keys := make([]actionKey, 0, len(actions))
	for _, a := range actions {
		keys = append(keys, actionKey{
			outcomeID: a.OutcomeID,
			side:      string(a.Side),
			price:     math.Round(a.LimitPrice*10000) / 10000,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].outcomeID != keys[j].outcomeID {
			return keys[i].outcomeID < keys[j].outcomeID
		}
		if keys[i].side != keys[j].side {
			return keys[i].side < keys[j].side
		}
		return keys[i].price < keys[j].price
	})

	var sb strings.Builder
	sb.WriteString(string(typ))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(ids, ","))
	sb.WriteByte('|')
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s:%s:%.4f,", k.outcomeID, k.side, k.price)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// NewOpportunity builds an Opportunity with a content-derived id.
func NewOpportunity(typ OpportunityType, marketIDs []string, description string, netEdge float64, actions []TradeAction, metadata map[string]any, detectedAt time.Time) Opportunity {
	return Opportunity{
		ID:          DeriveOpportunityID(typ, marketIDs, actions),
		Type:        typ,
		MarketIDs:   marketIDs,
		Description: description,
		NetEdge:     netEdge,
		Actions:     actions,
		Metadata:    metadata,
		DetectedAt:  detectedAt,
	}
}

// String renders a one-line summary suitable for a log line.
func (o Opportunity) String() string {
	return fmt.Sprintf("opportunity[%s] type=%s markets=%s edge=%.4f legs=%d",
		o.ID, o.Type, strings.Join(o.MarketIDs, ","), o.NetEdge, len(o.Actions))
}

// TraceID is a deterministic identifier for the execution-trace log: the
// SHA-256 hex of the opportunity id and its DetectedAt timestamp.
func (o Opportunity) TraceID() string {
	sum := sha256.Sum256([]byte(o.ID + "|" + o.DetectedAt.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
