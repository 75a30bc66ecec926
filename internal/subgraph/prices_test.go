package subgraph

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDecodePriceItemRemapsReserveName(t *testing.T) {
	item := &priceSnapshotItem{
		ID:          "0xmarket-473232",
		Hours:       473232,
		Timestamp:   "1703635261",
		BlockNumber: "18870000",
	}
	item.Market.Name = "Aave Ethereum WETH"
	item.Protocol.Protocol = "aave"
	item.Protocol.Name = "Aave v3"
	item.InputTokenPriceUSD = "2512.340000000000001"
	item.OutputTokenPriceUSD = "2512.98"

	price, err := decodePriceItem(item)
	if err != nil {
		t.Fatalf("decodePriceItem: %v", err)
	}
	if price.Asset != "Wrapped Ether" {
		t.Errorf("asset = %q, want %q", price.Asset, "Wrapped Ether")
	}
	if price.SnapshotTimestamp != 1703635261 {
		t.Errorf("snapshot timestamp = %d, want 1703635261", price.SnapshotTimestamp)
	}
	if price.BlockNumber != 18870000 {
		t.Errorf("block number = %d, want 18870000", price.BlockNumber)
	}
	if math.Abs(price.InputTokenPriceUSD-2512.34) > 1e-9 {
		t.Errorf("input price = %v, want 2512.34", price.InputTokenPriceUSD)
	}
	if got := price.Hour().Format("2006-01-02 15:04:05"); got != "2023-12-27 00:00:00" {
		t.Errorf("hour bucket = %q, want 2023-12-27 00:00:00", got)
	}
}

func TestDecodePriceItemUnknownMarket(t *testing.T) {
	item := &priceSnapshotItem{
		ID:          "0xother-473232",
		Hours:       473232,
		Timestamp:   "1703635261",
		BlockNumber: "18870000",
	}
	item.Market.Name = "Aave Ethereum SOMETOKEN"
	item.InputTokenPriceUSD = "1.0"
	item.OutputTokenPriceUSD = "1.0"

	price, err := decodePriceItem(item)
	if err != nil {
		t.Fatalf("decodePriceItem: %v", err)
	}
	if price.Asset != "" {
		t.Errorf("asset = %q, want empty for unmapped market", price.Asset)
	}
}

func TestDecodePriceItemBadNumber(t *testing.T) {
	item := &priceSnapshotItem{
		ID:          "0xbad",
		Timestamp:   "not-a-number",
		BlockNumber: "1",
	}
	if _, err := decodePriceItem(item); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}

func TestFetchHourlyPricesPaging(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"data":{"marketHourlySnapshots":[{
				"id":"0xmarket-473232",
				"hours":473232,
				"timestamp":"1703635261",
				"blockNumber":"18870000",
				"market":{"name":"Aave Ethereum USDC"},
				"protocol":{"protocol":"aave","name":"Aave v3"},
				"inputTokenPriceUSD":"0.9998",
				"outputTokenPriceUSD":"1.0001"
			}]}}`))
			return
		}
		w.Write([]byte(`{"data":{"marketHourlySnapshots":[]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil).WithPaging(1, 5)

	prices, err := client.FetchHourlyPrices(context.Background(), 1703635200, 1703638800)
	if err != nil {
		t.Fatalf("FetchHourlyPrices: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("got %d prices, want 1", len(prices))
	}
	if prices[0].Asset != "USD Coin" {
		t.Errorf("asset = %q, want %q", prices[0].Asset, "USD Coin")
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", calls.Load())
	}
}
