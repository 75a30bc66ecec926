package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage/memory"
)

// fakeReserveFetcher serves a canned snapshot set filtered to the window.
type fakeReserveFetcher struct {
	snapshots []*domain.ReserveSnapshot
	calls     int
}

func (f *fakeReserveFetcher) FetchReserveHistory(_ context.Context, _ domain.Version, timestampMin, timestampMax int64) ([]*domain.ReserveSnapshot, error) {
	f.calls++
	var out []*domain.ReserveSnapshot
	for _, snap := range f.snapshots {
		if snap.Timestamp > timestampMin && snap.Timestamp < timestampMax {
			snapCopy := *snap
			out = append(out, &snapCopy)
		}
	}
	return out, nil
}

// januarySnapshots builds a clean one-month series: an observation in the
// first and in the last hour of 2024-01, so the gap-filled grid spans the
// whole month.
func januarySnapshots(asset string) []*domain.ReserveSnapshot {
	monthStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	lastHour := monthStart + int64(31*24-1)*3600

	mk := func(ts int64, idx float64) *domain.ReserveSnapshot {
		return &domain.ReserveSnapshot{
			Asset:                    asset,
			Pool:                     "0xpool",
			Timestamp:                ts,
			Decimals:                 18,
			LiquidityIndex:           idx,
			VariableBorrowIndex:      idx + 0.01,
			LiquidityRate:            0.01,
			VariableBorrowRate:       0.03,
			UtilizationRate:          0.5,
			TotalATokenSupply:        1000,
			AccruedToTreasury:        10,
			AvailableLiquidity:       600,
			TotalCurrentVariableDebt: 410,
		}
	}
	return []*domain.ReserveSnapshot{
		mk(monthStart+1800, 1.01),
		mk(lastHour+1800, 1.02),
	}
}

func TestReserveRunner_FullMonth(t *testing.T) {
	fetcher := &fakeReserveFetcher{snapshots: januarySnapshots("Wrapped Ether")}
	panels := memory.NewPanelStore()
	outDir := t.TempDir()

	runner, err := NewReserveRunner(ReserveRunnerOptions{
		Fetcher:   fetcher,
		Version:   domain.V3,
		Panels:    panels,
		Strategy:  "cummax",
		OutputDir: outDir,
		Workers:   2,
	})
	if err != nil {
		t.Fatalf("NewReserveRunner failed: %v", err)
	}

	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	result, err := runner.Run(context.Background(), day, day)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Failures) != 0 {
		t.Fatalf("Expected no failures, got %v", result.Failures)
	}
	if result.PanelsWritten != 1 {
		t.Errorf("Expected 1 panel written, got %d", result.PanelsWritten)
	}
	if len(result.QualityReports) != 1 {
		t.Fatalf("Expected 1 quality report, got %d", len(result.QualityReports))
	}
	if !result.QualityReports[0].Passed {
		t.Errorf("Expected panel to pass, score=%f", result.QualityReports[0].Score)
	}

	rows, err := panels.GetByAsset(context.Background(), "Wrapped Ether")
	if err != nil {
		t.Fatalf("GetByAsset failed: %v", err)
	}
	if len(rows) != 31*24 {
		t.Errorf("Expected 744 panel rows, got %d", len(rows))
	}

	// Contiguity: every consecutive pair is exactly one hour apart.
	for i := 1; i < len(rows); i++ {
		if rows[i].Hour-rows[i-1].Hour != 3600 {
			t.Fatalf("Panel not contiguous at row %d: %d -> %d", i, rows[i-1].Hour, rows[i].Hour)
		}
	}

	// Only the two genuinely observed hours carry the flag.
	observed := 0
	for _, row := range rows {
		if row.Observed {
			observed++
		}
	}
	if observed != 2 {
		t.Errorf("Expected 2 observed rows, got %d", observed)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "reserves_v3_2024-01.csv"))
	if err != nil {
		t.Fatalf("Expected panel CSV written: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 31*24+1 {
		t.Errorf("Expected 745 CSV lines (header + rows), got %d", lines)
	}
	if _, err := os.Stat(filepath.Join(outDir, "quality_v3_2024-01.txt")); err != nil {
		t.Errorf("Expected quality report written: %v", err)
	}
}

func TestReserveRunner_AssetFilter(t *testing.T) {
	snapshots := append(januarySnapshots("Wrapped Ether"), januarySnapshots("Fake Coin")...)
	fetcher := &fakeReserveFetcher{snapshots: snapshots}
	panels := memory.NewPanelStore()

	runner, err := NewReserveRunner(ReserveRunnerOptions{
		Fetcher:   fetcher,
		Version:   domain.V3,
		Panels:    panels,
		Strategy:  "cummax",
		Assets:    []string{"Wrapped Ether"},
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewReserveRunner failed: %v", err)
	}

	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	result, err := runner.Run(context.Background(), day, day)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.PanelsWritten != 1 {
		t.Errorf("Expected 1 panel (filtered), got %d", result.PanelsWritten)
	}

	other, _ := panels.GetByAsset(context.Background(), "Fake Coin")
	if len(other) != 0 {
		t.Errorf("Filtered asset must not reach the panel store, got %d rows", len(other))
	}
}

func TestReserveRunner_ShortPanelIsolatedAsFailure(t *testing.T) {
	// A single observation yields a one-row panel, which the quality gate
	// rejects without failing the month.
	fetcher := &fakeReserveFetcher{snapshots: januarySnapshots("Wrapped Ether")[:1]}

	runner, err := NewReserveRunner(ReserveRunnerOptions{
		Fetcher:   fetcher,
		Version:   domain.V3,
		Strategy:  "cummax",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewReserveRunner failed: %v", err)
	}

	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	result, err := runner.Run(context.Background(), day, day)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Errorf("Quality rejection must not fail the month: %v", result.Failures)
	}
	if result.PanelsWritten != 0 {
		t.Errorf("Expected no panel written, got %d", result.PanelsWritten)
	}
}

func TestReserveRunner_UnknownStrategy(t *testing.T) {
	_, err := NewReserveRunner(ReserveRunnerOptions{
		Fetcher:  &fakeReserveFetcher{},
		Version:  domain.V3,
		Strategy: "median-of-vibes",
	})
	if err == nil {
		t.Fatal("Expected error for unknown strategy")
	}
}
