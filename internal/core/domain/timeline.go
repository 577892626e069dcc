package domain

import "slices"

// canonicalOrder is the forward progression of a shipment.
var canonicalOrder = []ShipmentStatus{
	StatusPending,
	StatusProcessing,
	StatusConfirmed,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

// CollapsedWindow is the number of history entries shown when collapsed.
const CollapsedWindow = 3

// Steps returns the canonical statuses in forward order.
func Steps() []ShipmentStatus {
	return slices.Clone(canonicalOrder)
}

// IsOutOfBand reports whether s is Cancelled or On Hold.
func (s ShipmentStatus) IsOutOfBand() bool {
	return s == StatusCancelled || s == StatusOnHold
}

// IsTerminal reports whether no further progress is shown for s.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s.IsOutOfBand()
}

// StepIndex returns the 0-based position of status in the canonical order,
// -1 for out-of-band statuses and 0 for anything unrecognised, so statuses
// introduced upstream still render.
func StepIndex(status ShipmentStatus) int {
	if status.IsOutOfBand() {
		return -1
	}
	if i := slices.Index(canonicalOrder, status); i >= 0 {
		return i
	}
	return 0
}

// ProgressPercent maps status to a completion percentage in [0, 100].
func ProgressPercent(status ShipmentStatus) float64 {
	idx := StepIndex(status)
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(canonicalOrder)) * 100
}

type historyKey struct {
	status ShipmentStatus
	at     int64
}

// MergeHistory combines existing and incoming entries, dropping duplicates by
// (status, timestamp) and ordering the result most recent first. The first
// occurrence of a duplicate wins. Merging the same incoming set again yields
// the same result.
func MergeHistory(existing, incoming []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(existing)+len(incoming))
	seen := make(map[historyKey]struct{}, len(existing)+len(incoming))

	for _, batch := range [][]HistoryEntry{existing, incoming} {
		for _, e := range batch {
			k := historyKey{status: e.Status, at: e.Timestamp.UnixNano()}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b HistoryEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// VisibleWindow returns the first CollapsedWindow entries, or all of them when
// expanded. The input is never modified.
func VisibleWindow(history []HistoryEntry, expanded bool) []HistoryEntry {
	if expanded || len(history) <= CollapsedWindow {
		return history
	}
	return history[:CollapsedWindow:CollapsedWindow]
}

// IsKnown reports whether s is a canonical or out-of-band status.
func (s ShipmentStatus) IsKnown() bool {
	return s.IsOutOfBand() || slices.Contains(canonicalOrder, s)
}
