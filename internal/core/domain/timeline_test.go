package domain

import (
	"math"
	"testing"
	"time"
)

func TestStepIndex(t *testing.T) {
	tests := []struct {
		status ShipmentStatus
		want   int
	}{
		{StatusPending, 0},
		{StatusPickedUp, 3},
		{StatusInTransit, 4},
		{StatusDelivered, 6},
		{StatusCancelled, -1},
		{StatusOnHold, -1},
		{ShipmentStatus("Returned to Sender"), 0},
	}
	for _, tt := range tests {
		if got := StepIndex(tt.status); got != tt.want {
			t.Errorf("StepIndex(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(StatusDelivered); got != 100 {
		t.Errorf("Delivered = %v, want 100", got)
	}
	if got := ProgressPercent(StatusCancelled); got != 0 {
		t.Errorf("Cancelled = %v, want 0", got)
	}
	want := 5.0 / 7.0 * 100
	if got := ProgressPercent(StatusInTransit); math.Abs(got-want) > 1e-9 {
		t.Errorf("In Transit = %v, want %v", got, want)
	}
	if got := ProgressPercent(StatusPending); math.Abs(got-100.0/7.0) > 1e-9 {
		t.Errorf("Pending = %v", got)
	}
}

func TestMergeHistory_DeduplicatesAndSorts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1, t2, t3 := base, base.Add(time.Hour), base.Add(2*time.Hour)

	existing := []HistoryEntry{
		{Status: StatusPending, Timestamp: t1},
		{Status: StatusPickedUp, Timestamp: t2},
	}
	incoming := []HistoryEntry{
		{Status: StatusPickedUp, Timestamp: t2, Note: "duplicate"},
		{Status: StatusInTransit, Timestamp: t3},
	}

	got := MergeHistory(existing, incoming)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []ShipmentStatus{StatusInTransit, StatusPickedUp, StatusPending}
	for i, s := range want {
		if got[i].Status != s {
			t.Errorf("entry %d = %s, want %s", i, got[i].Status, s)
		}
	}
	if got[1].Note == "duplicate" {
		t.Error("first occurrence of a duplicate must win")
	}
}

func TestMergeHistory_Idempotent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := []HistoryEntry{{Status: StatusPending, Timestamp: base}}
	incoming := []HistoryEntry{
		{Status: StatusProcessing, Timestamp: base.Add(time.Minute)},
		{Status: StatusConfirmed, Timestamp: base.Add(2 * time.Minute)},
	}

	once := MergeHistory(existing, incoming)
	twice := MergeHistory(once, incoming)
	if len(once) != len(twice) {
		t.Fatalf("len once = %d, twice = %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestMergeHistory_DoesNotMutateInputs(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := []HistoryEntry{
		{Status: StatusPending, Timestamp: base},
		{Status: StatusConfirmed, Timestamp: base.Add(time.Hour)},
	}
	_ = MergeHistory(existing, nil)
	if existing[0].Status != StatusPending {
		t.Error("input slice was reordered")
	}
}

func TestVisibleWindow(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var history []HistoryEntry
	for i := range 5 {
		history = append(history, HistoryEntry{Status: StatusInTransit, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	collapsed := VisibleWindow(history, false)
	if len(collapsed) != CollapsedWindow {
		t.Errorf("collapsed = %d, want %d", len(collapsed), CollapsedWindow)
	}
	if got := VisibleWindow(history, true); len(got) != 5 {
		t.Errorf("expanded = %d, want 5", len(got))
	}
	if got := VisibleWindow(history[:2], false); len(got) != 2 {
		t.Errorf("short history = %d, want 2", len(got))
	}

	// Appending to the window must not overwrite the caller's history.
	_ = append(collapsed, HistoryEntry{Status: StatusDelivered})
	if history[3].Status != StatusInTransit {
		t.Error("window aliases the input beyond its length")
	}
}

func TestBuildTrackingView(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := BuildTrackingView(Shipment{
		TrackingNumber: "TRK-1",
		Status:         StatusCancelled,
		History: []HistoryEntry{
			{Status: StatusPending, Timestamp: base},
			{Status: StatusCancelled, Timestamp: base.Add(time.Hour)},
		},
	}, false)

	if v.Step != -1 || v.Progress != 0 || !v.Terminal || !v.OutOfBand {
		t.Errorf("unexpected view: %+v", v)
	}
	if v.History[0].Status != StatusCancelled {
		t.Error("history should be most recent first")
	}
}

func TestShipmentStatus_IsKnown(t *testing.T) {
	for _, s := range append(Steps(), StatusCancelled, StatusOnHold) {
		if !s.IsKnown() {
			t.Errorf("%q should be known", s)
		}
	}
	if ShipmentStatus("in_transit").IsKnown() {
		t.Error("snake_case status should not be known")
	}
}
