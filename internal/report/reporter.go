// Package report persists an append-only, restart-safe summary of each
// engine iteration plus a per-opportunity execution trace. Writes to both
// the CSV and the state file are atomic (temp file + rename) so a crash
// mid-write never corrupts the CSV or the hashes a restart depends on.
package report

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

const (
	summaryFileName = "live_summary.csv"
	stateFileName   = ".last_report_state.json"
)

var csvHeader = []string{
	"TIMESTAMP", "READABLE_TIME", "ITERATION", "MARKETS", "MARKETS_Δ",
	"DETECTED", "DETECTED_Δ", "APPROVED", "APPROVED_Δ", "APPROVAL%",
	"STATUS", "MARKET_HASH", "OPP_HASH",
}

var csvUnitsRow = []string{
	"unix_seconds", "iso8601_utc", "count", "count", "delta",
	"count", "delta", "count", "delta", "percent",
	"enum", "sha256_hex", "sha256_hex",
}

// state is the persisted restart-safe fingerprint of the last write.
type state struct {
	MarketIDsHash      string    `json:"market_ids_hash"`
	ApprovedOppIDsHash string    `json:"approved_opp_ids_hash"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Reporter writes the incremental summary CSV and tracks the hashes that
// make repeated calls with unchanged inputs a no-op.
type Reporter struct {
	dir string

	mu             sync.Mutex
	lastMarkets    int
	lastDetected   int
	lastApproved   int
	haveLastCounts bool
}

// NewReporter prepares a Reporter writing into dir, creating it if needed.
func NewReporter(dir string) (*Reporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Reporter{dir: dir}, nil
}

func hashIDs(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}

// Report writes one data row summarizing an iteration, unless both the
// market-id set and the approved-opportunity-id set are unchanged from the
// last write and the CSV file already exists — in which case it is a no-op,
// making repeated calls with identical inputs idempotent.
func (r *Reporter) Report(iteration int, markets []types.Market, detected, approved []types.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marketIDs := make([]string, len(markets))
	for i, m := range markets {
		marketIDs[i] = m.ID
	}
	approvedIDs := make([]string, len(approved))
	for i, o := range approved {
		approvedIDs[i] = o.ID
	}

	marketHash := hashIDs(marketIDs)
	oppHash := hashIDs(approvedIDs)

	csvPath := filepath.Join(r.dir, summaryFileName)
	prev, havePrev, err := r.loadState()
	if err != nil {
		return fmt.Errorf("load report state: %w", err)
	}

	_, statErr := os.Stat(csvPath)
	csvExists := statErr == nil

	unchanged := havePrev && csvExists && prev.MarketIDsHash == marketHash && prev.ApprovedOppIDsHash == oppHash
	if unchanged {
		return nil
	}

	now := time.Now().UTC()
	marketsDelta := 0
	detectedDelta := 0
	approvedDelta := 0
	if r.haveLastCounts {
		marketsDelta = len(markets) - r.lastMarkets
		detectedDelta = len(detected) - r.lastDetected
		approvedDelta = len(approved) - r.lastApproved
	}

	approvalPct := 0.0
	if len(detected) > 0 {
		approvalPct = 100 * float64(len(approved)) / float64(len(detected))
	}

	row := []string{
		strconv.FormatInt(now.Unix(), 10),
		now.Format(time.RFC3339),
		strconv.Itoa(iteration),
		strconv.Itoa(len(markets)),
		strconv.Itoa(marketsDelta),
		strconv.Itoa(len(detected)),
		strconv.Itoa(detectedDelta),
		strconv.Itoa(len(approved)),
		strconv.Itoa(approvedDelta),
		strconv.FormatFloat(approvalPct, 'f', 2, 64),
		"ok",
		marketHash,
		oppHash,
	}

	if err := appendCSVRow(csvPath, row, !csvExists); err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}

	if err := r.saveState(state{MarketIDsHash: marketHash, ApprovedOppIDsHash: oppHash, LastUpdated: now}); err != nil {
		return fmt.Errorf("persist report state: %w", err)
	}

	r.lastMarkets = len(markets)
	r.lastDetected = len(detected)
	r.lastApproved = len(approved)
	r.haveLastCounts = true

	return nil
}

// appendCSVRow appends row to the CSV at path atomically: it reads the
// existing content (if any), builds the new content in memory, then writes
// to a temp file in the same directory and renames over the target — the
// same pattern saveState uses — so a crash mid-write never leaves a
// truncated or partially-written CSV behind.
func appendCSVRow(path string, row []string, writeHeader bool) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".live-summary-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if len(existing) > 0 {
		if _, err := tmp.Write(existing); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	w := csv.NewWriter(tmp)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := w.Write(csvUnitsRow); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := w.Write(row); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func (r *Reporter) loadState() (state, bool, error) {
	path := filepath.Join(r.dir, stateFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return state{}, false, nil
	}
	if err != nil {
		return state{}, false, err
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return state{}, false, err
	}
	return s, true, nil
}

// saveState writes the state file atomically: it writes to a temp file in
// the same directory, then renames over the target, so a crash mid-write
// never leaves a half-written state file behind.
func (r *Reporter) saveState(s state) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(r.dir, stateFileName)
	tmp, err := os.CreateTemp(r.dir, ".report-state-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
