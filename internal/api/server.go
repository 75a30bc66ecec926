// Package api serves the finished hourly panel over HTTP: balance-sheet
// lookups by asset and hour, plus health and metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
)

// Server exposes the reserve panel.
type Server struct {
	panels storage.PanelStore
	logger *runlog.Logger
}

// NewServer creates a Server reading from the given panel store.
func NewServer(panels storage.PanelStore, logger *runlog.Logger) *Server {
	return &Server{panels: panels, logger: logger}
}

// Handler builds the HTTP mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/balance-sheets", s.handleBalanceSheets)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logf("listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// balanceSheetRow is the JSON shape of one panel row.
type balanceSheetRow struct {
	Asset    string `json:"asset"`
	Datetime string `json:"datetime"`
	Hour     int64  `json:"hour"`

	LiquidityIndex      float64 `json:"liquidityIndex"`
	VariableBorrowIndex float64 `json:"variableBorrowIndex"`
	LiquidityRate       float64 `json:"liquidityRate"`
	VariableBorrowRate  float64 `json:"variableBorrowRate"`
	UtilizationRate     float64 `json:"utilizationRate"`

	TotalATokenSupply        float64 `json:"totalATokenSupply"`
	AvailableLiquidity       float64 `json:"availableLiquidity"`
	TotalCurrentVariableDebt float64 `json:"totalCurrentVariableDebt"`
	AccruedToTreasury        float64 `json:"accruedToTreasury"`
	PriceInUsd               float64 `json:"priceInUsd"`

	FixedLiquidityIndex      float64 `json:"fixed_liquidityIndex"`
	FixedVariableBorrowIndex float64 `json:"fixed_variableBorrowIndex"`
	Observed                 bool    `json:"true_value"`
}

// handleBalanceSheets returns panel rows for one asset. With year/month/
// day/hour parameters the window narrows accordingly; omitted finer
// components widen it (a year alone returns the whole year).
func (s *Server) handleBalanceSheets(w http.ResponseWriter, r *http.Request) {
	asset := r.URL.Query().Get("asset")
	if asset == "" {
		http.Error(w, "missing asset parameter", http.StatusBadRequest)
		return
	}

	start, end, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rows []*domain.RegularRow
	if start == 0 && end == 0 {
		rows, err = s.panels.GetByAsset(r.Context(), asset)
	} else {
		rows, err = s.panels.GetByAssetRange(r.Context(), asset, start, end)
	}
	if err != nil {
		s.logf("balance-sheets query failed: %v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	out := make([]balanceSheetRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, balanceSheetRow{
			Asset:                    row.Asset,
			Datetime:                 time.Unix(row.Hour, 0).UTC().Format("2006-01-02 15:04:05"),
			Hour:                     row.Hour,
			LiquidityIndex:           row.LiquidityIndex,
			VariableBorrowIndex:      row.VariableBorrowIndex,
			LiquidityRate:            row.LiquidityRate,
			VariableBorrowRate:       row.VariableBorrowRate,
			UtilizationRate:          row.UtilizationRate,
			TotalATokenSupply:        row.TotalATokenSupply,
			AvailableLiquidity:       row.AvailableLiquidity,
			TotalCurrentVariableDebt: row.TotalCurrentVariableDebt,
			AccruedToTreasury:        row.AccruedToTreasury,
			PriceInUsd:               row.PriceInUsd,
			FixedLiquidityIndex:      row.FixedLiquidityIndex,
			FixedVariableBorrowIndex: row.FixedVariableBorrowIndex,
			Observed:                 row.Observed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// parseWindow derives the [start, end] hour window from year/month/day/hour
// query parameters. No year means the full history.
func parseWindow(r *http.Request) (int64, int64, error) {
	q := r.URL.Query()

	year, err := intParam(q.Get("year"), 0)
	if err != nil {
		return 0, 0, errors.New("invalid year parameter")
	}
	if year == 0 {
		return 0, 0, nil
	}

	month, err := intParam(q.Get("month"), 0)
	if err != nil || month < 0 || month > 12 {
		return 0, 0, errors.New("invalid month parameter")
	}
	day, err := intParam(q.Get("day"), 0)
	if err != nil || day < 0 || day > 31 {
		return 0, 0, errors.New("invalid day parameter")
	}
	hour, err := intParam(q.Get("hour"), -1)
	if err != nil || hour < -1 || hour > 23 {
		return 0, 0, errors.New("invalid hour parameter")
	}

	var from, to time.Time
	switch {
	case month == 0:
		from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	case day == 0:
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	case hour < 0:
		from = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 0, 1)
	default:
		from = time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
		to = from.Add(time.Hour)
	}

	// The store range is inclusive on both ends.
	return from.Unix(), to.Unix() - 1, nil
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
