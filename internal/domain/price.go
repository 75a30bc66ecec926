package domain

import "time"

// HourlyPrice is one market-hour USD price observation from the Messari
// schema subgraph, remapped to the reserve names used across the panel.
type HourlyPrice struct {
	ID           string
	Asset        string // canonical reserve name, empty when the market is unmapped
	Protocol     string
	ProtocolName string

	// HourIndex is the snapshot bucket as whole hours since the Unix epoch.
	HourIndex int64
	// SnapshotTimestamp is the raw snapshot time in Unix seconds.
	SnapshotTimestamp int64
	BlockNumber       int64

	InputTokenPriceUSD  float64
	OutputTokenPriceUSD float64
}

// Hour returns the snapshot bucket as a UTC time.
func (p *HourlyPrice) Hour() time.Time {
	return time.Unix(p.HourIndex*3600, 0).UTC()
}
