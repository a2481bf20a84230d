package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}

func TestReporter_WritesHeaderAndRowOnFirstCall(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	markets := []types.Market{{ID: "m1"}, {ID: "m2"}}
	approved := []types.Opportunity{{ID: "o1"}}

	if err := r.Report(1, markets, approved, approved); err != nil {
		t.Fatalf("report: %v", err)
	}

	lines := countLines(t, filepath.Join(dir, summaryFileName))
	if lines != 3 {
		t.Fatalf("expected 2 header rows + 1 data row = 3 lines, got %d", lines)
	}
}

func TestReporter_IdempotentUnderUnchangedInputs(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	markets := []types.Market{{ID: "m1"}, {ID: "m2"}}
	approved := []types.Opportunity{{ID: "o1"}}

	if err := r.Report(1, markets, approved, approved); err != nil {
		t.Fatalf("report 1: %v", err)
	}
	if err := r.Report(2, markets, approved, approved); err != nil {
		t.Fatalf("report 2: %v", err)
	}

	lines := countLines(t, filepath.Join(dir, summaryFileName))
	if lines != 3 {
		t.Fatalf("expected no new row for unchanged input, got %d lines", lines)
	}
}

func TestReporter_WritesNewRowWhenApprovedSetGrows(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	markets := []types.Market{{ID: "m1"}, {ID: "m2"}}
	approved := []types.Opportunity{{ID: "o1"}}

	if err := r.Report(1, markets, approved, approved); err != nil {
		t.Fatalf("report 1: %v", err)
	}
	if err := r.Report(2, markets, approved, approved); err != nil {
		t.Fatalf("report 2 (unchanged): %v", err)
	}

	grown := append(append([]types.Opportunity(nil), approved...), types.Opportunity{ID: "o2"})
	if err := r.Report(3, markets, grown, grown); err != nil {
		t.Fatalf("report 3 (grown): %v", err)
	}

	lines := countLines(t, filepath.Join(dir, summaryFileName))
	if lines != 4 {
		t.Fatalf("expected 2 header rows + 2 data rows = 4 lines, got %d", lines)
	}
}

func TestReporter_StateFileSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	r1, err := NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	markets := []types.Market{{ID: "m1"}}
	approved := []types.Opportunity{{ID: "o1"}}
	if err := r1.Report(1, markets, approved, approved); err != nil {
		t.Fatalf("report: %v", err)
	}

	r2, err := NewReporter(dir)
	if err != nil {
		t.Fatalf("reopen reporter: %v", err)
	}
	if err := r2.Report(2, markets, approved, approved); err != nil {
		t.Fatalf("report after restart: %v", err)
	}

	lines := countLines(t, filepath.Join(dir, summaryFileName))
	if lines != 3 {
		t.Fatalf("expected the restart to see state and skip a duplicate row, got %d lines", lines)
	}
}
