package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// TraceStatus is the closed set of outcomes an execution trace records.
type TraceStatus string

const (
	StatusSuccess   TraceStatus = "success"
	StatusPartial   TraceStatus = "partial"
	StatusCancelled TraceStatus = "cancelled"
	StatusError     TraceStatus = "error"
)

// RiskApproval mirrors the risk gate's decision for this opportunity.
type RiskApproval struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ExecutionTrace is one record of the JSONL execution-trace log: a full
// account of what a single opportunity was, what the risk gate decided,
// and what actually filled.
type ExecutionTrace struct {
	TraceID         string             `json:"trace_id"`
	TimestampUTC    time.Time          `json:"timestamp_utc"`
	OpportunityID   string             `json:"opportunity_id"`
	Detector        types.OpportunityType `json:"detector"`
	Markets         []string           `json:"markets"`
	PricesBefore    map[string]float64 `json:"prices_before"`
	IntendedActions []types.TradeAction `json:"intended_actions"`
	RiskApproval    RiskApproval       `json:"risk_approval"`
	Executions      []types.Trade      `json:"executions"`
	Hedge           *string            `json:"hedge,omitempty"`
	Status          TraceStatus        `json:"status"`
	RealizedPnL     float64            `json:"realized_pnl"`
	LatencyMS       float64            `json:"latency_ms"`
}

// DeriveTraceID computes the deterministic trace id from an opportunity's
// own derived id and detection time, matching the opportunity's own
// content-addressed identity scheme.
func DeriveTraceID(opportunityID string, detectedAt time.Time) string {
	sum := sha256.Sum256([]byte(opportunityID + "|" + detectedAt.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

const traceFileName = "execution_trace.jsonl"

// TraceLog appends execution traces to a JSON-Lines file, one record per
// line, using the same directory as the CSV summary.
type TraceLog struct {
	path string
	mu   sync.Mutex
}

// NewTraceLog opens (creating if necessary) the trace log under dir.
func NewTraceLog(dir string) (*TraceLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	return &TraceLog{path: filepath.Join(dir, traceFileName)}, nil
}

// Append writes one trace record as a single JSON line.
func (t *TraceLog) Append(trace ExecutionTrace) error {
	payload, err := gojson.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal execution trace: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open trace log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write trace line: %w", err)
	}
	return nil
}
