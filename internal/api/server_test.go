package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage/memory"
)

func seedPanels(t *testing.T) *memory.PanelStore {
	t.Helper()
	store := memory.NewPanelStore()

	base := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC).Unix()
	rows := []*domain.RegularRow{
		{Asset: "USDC", Hour: base, LiquidityIndex: 1.01, Observed: true},
		{Asset: "USDC", Hour: base + 3600, LiquidityIndex: 1.02},
		{Asset: "USDC", Hour: base + 86400, LiquidityIndex: 1.03, Observed: true},
		{Asset: "WETH", Hour: base, LiquidityIndex: 1.10},
	}
	if err := store.InsertBulk(context.Background(), rows); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}
	return store
}

func getRows(t *testing.T, handler http.Handler, url string) []balanceSheetRow {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d, body %q", url, rec.Code, rec.Body.String())
	}
	var rows []balanceSheetRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rows
}

func TestBalanceSheetsFullHistory(t *testing.T) {
	handler := NewServer(seedPanels(t), nil).Handler()

	rows := getRows(t, handler, "/balance-sheets?asset=USDC")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Datetime != "2024-01-15 00:00:00" {
		t.Errorf("datetime = %q", rows[0].Datetime)
	}
	if !rows[0].Observed || rows[1].Observed {
		t.Errorf("observed flags wrong: %v %v", rows[0].Observed, rows[1].Observed)
	}
}

func TestBalanceSheetsDayWindow(t *testing.T) {
	handler := NewServer(seedPanels(t), nil).Handler()

	rows := getRows(t, handler, "/balance-sheets?asset=USDC&year=2024&month=1&day=15")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Asset != "USDC" {
			t.Errorf("asset = %q", row.Asset)
		}
	}
}

func TestBalanceSheetsHourWindow(t *testing.T) {
	handler := NewServer(seedPanels(t), nil).Handler()

	rows := getRows(t, handler, "/balance-sheets?asset=USDC&year=2024&month=1&day=15&hour=1")
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].LiquidityIndex != 1.02 {
		t.Errorf("liquidityIndex = %v", rows[0].LiquidityIndex)
	}
}

func TestBalanceSheetsBadRequest(t *testing.T) {
	handler := NewServer(seedPanels(t), nil).Handler()

	cases := []string{
		"/balance-sheets",
		"/balance-sheets?asset=USDC&year=abc",
		"/balance-sheets?asset=USDC&year=2024&month=13",
		"/balance-sheets?asset=USDC&year=2024&month=1&day=15&hour=24",
	}
	for _, url := range cases {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status %d, want 400", url, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	handler := NewServer(seedPanels(t), nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
}
