// Package resample reduces irregular reserve snapshots to one canonical
// observation per (asset, hour) bucket.
package resample

import (
	"sort"

	"aave-reserves-lab/internal/domain"
)

// Mode selects how the canonical row of an hour bucket is chosen.
type Mode string

const (
	// ModeSimple keeps the row with the maximum raw timestamp.
	ModeSimple Mode = "simple"

	// ModeIndexValidated additionally checks each row's monotonic indices
	// against the neighbouring hour groups and prefers rows whose indices
	// are consistent with them. Used for the protocol variant whose
	// indexer occasionally reorders snapshots.
	ModeIndexValidated Mode = "index-validated"
)

// Default envelope bounds applied at the edges of the series, where no
// previous or next hour group exists.
const (
	DefaultPrevFill = 1.0
	DefaultNextFill = 1000.0
)

// Selector resamples snapshots to hourly granularity.
type Selector struct {
	mode     Mode
	prevFill float64
	nextFill float64
}

// NewSelector creates a Selector with the default envelope bounds.
func NewSelector(mode Mode) *Selector {
	return &Selector{mode: mode, prevFill: DefaultPrevFill, nextFill: DefaultNextFill}
}

// WithEnvelopeBounds overrides the sentinel bounds used where a previous or
// next hour group is missing.
func (s *Selector) WithEnvelopeBounds(prevFill, nextFill float64) *Selector {
	s.prevFill = prevFill
	s.nextFill = nextFill
	return s
}

// Resample deduplicates the raw snapshots and keeps exactly one row per
// (asset, hour). The returned rows are ordered by (asset, timestamp) and an
// hour bucket that contains any input row is never dropped.
func (s *Selector) Resample(snapshots []*domain.ReserveSnapshot) []*domain.ReserveSnapshot {
	deduped := dropExactDuplicates(snapshots)

	byAsset := make(map[string][]*domain.ReserveSnapshot)
	var assets []string
	for _, snap := range deduped {
		if _, ok := byAsset[snap.Asset]; !ok {
			assets = append(assets, snap.Asset)
		}
		byAsset[snap.Asset] = append(byAsset[snap.Asset], snap)
	}
	sort.Strings(assets)

	var result []*domain.ReserveSnapshot
	for _, asset := range assets {
		result = append(result, s.resampleAsset(byAsset[asset])...)
	}
	return result
}

// resampleAsset selects one row per hour for a single asset's snapshots.
func (s *Selector) resampleAsset(snapshots []*domain.ReserveSnapshot) []*domain.ReserveSnapshot {
	// Stable sort keeps input order for equal timestamps, which pins the
	// tie-break rule: among equal candidates the first input row wins.
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp < snapshots[j].Timestamp
	})

	groups := groupByHour(snapshots)

	var virtual map[*domain.ReserveSnapshot]int64
	if s.mode == ModeIndexValidated {
		virtual = s.virtualTimestamps(groups)
	}

	var result []*domain.ReserveSnapshot
	for _, g := range groups {
		result = append(result, selectRow(g.rows, virtual))
	}
	return result
}

// hourGroup holds the rows of one hour bucket in stable time order.
type hourGroup struct {
	hour int64
	rows []*domain.ReserveSnapshot
}

// groupByHour splits time-sorted snapshots into consecutive hour groups.
func groupByHour(snapshots []*domain.ReserveSnapshot) []hourGroup {
	var groups []hourGroup
	for _, snap := range snapshots {
		hour := domain.FloorHour(snap.Timestamp)
		if n := len(groups); n > 0 && groups[n-1].hour == hour {
			groups[n-1].rows = append(groups[n-1].rows, snap)
			continue
		}
		groups = append(groups, hourGroup{hour: hour, rows: []*domain.ReserveSnapshot{snap}})
	}
	return groups
}

// virtualTimestamps computes the index-validated virtual timestamp of every
// row. A row keeps its real timestamp only when both monotonic indices fall
// inside the [previous group min, next group max] envelope; otherwise its
// virtual timestamp is zero and it loses the last-writer selection.
func (s *Selector) virtualTimestamps(groups []hourGroup) map[*domain.ReserveSnapshot]int64 {
	n := len(groups)
	liqMin := make([]float64, n)
	liqMax := make([]float64, n)
	borMin := make([]float64, n)
	borMax := make([]float64, n)
	for i, g := range groups {
		liqMin[i], liqMax[i] = minMax(g.rows, func(r *domain.ReserveSnapshot) float64 { return r.LiquidityIndex })
		borMin[i], borMax[i] = minMax(g.rows, func(r *domain.ReserveSnapshot) float64 { return r.VariableBorrowIndex })
	}

	virtual := make(map[*domain.ReserveSnapshot]int64)
	for i, g := range groups {
		liqLo, borLo := s.prevFill, s.prevFill
		if i > 0 {
			liqLo, borLo = liqMin[i-1], borMin[i-1]
		}
		liqHi, borHi := s.nextFill, s.nextFill
		if i < n-1 {
			liqHi, borHi = liqMax[i+1], borMax[i+1]
		}
		for _, r := range g.rows {
			liqValid := r.LiquidityIndex >= liqLo && r.LiquidityIndex <= liqHi
			borValid := r.VariableBorrowIndex >= borLo && r.VariableBorrowIndex <= borHi
			if liqValid && borValid {
				virtual[r] = r.Timestamp
			} else {
				virtual[r] = 0
			}
		}
	}
	return virtual
}

// selectRow picks the canonical row of one hour bucket. With virtual
// timestamps the maximum virtual timestamp wins; when every row of the
// bucket is invalid, selection degrades to the maximum real timestamp so a
// populated hour is never dropped.
func selectRow(rows []*domain.ReserveSnapshot, virtual map[*domain.ReserveSnapshot]int64) *domain.ReserveSnapshot {
	if virtual != nil {
		best := rows[0]
		for _, r := range rows[1:] {
			if virtual[r] > virtual[best] {
				best = r
			}
		}
		if virtual[best] > 0 {
			return best
		}
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.Timestamp > best.Timestamp {
			best = r
		}
	}
	return best
}

// dropExactDuplicates removes rows that are field-for-field identical,
// ignoring the storage id. Input order of first occurrences is preserved.
func dropExactDuplicates(snapshots []*domain.ReserveSnapshot) []*domain.ReserveSnapshot {
	seen := make(map[domain.ReserveSnapshot]struct{}, len(snapshots))
	result := make([]*domain.ReserveSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		key := *snap
		key.ID = 0
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, snap)
	}
	return result
}

// minMax returns the minimum and maximum of f over rows.
func minMax(rows []*domain.ReserveSnapshot, f func(*domain.ReserveSnapshot) float64) (lo, hi float64) {
	lo, hi = f(rows[0]), f(rows[0])
	for _, r := range rows[1:] {
		v := f(r)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
