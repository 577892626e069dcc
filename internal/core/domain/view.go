package domain

// TrackingView is the timeline summary of a shipment projection.
type TrackingView struct {
	Shipment  Shipment       `json:"shipment"`
	History   []HistoryEntry `json:"history"`
	Visible   []HistoryEntry `json:"visible"`
	Step      int            `json:"step"`
	Progress  float64        `json:"progress"`
	Terminal  bool           `json:"terminal"`
	OutOfBand bool           `json:"out_of_band"`
	Expanded  bool           `json:"expanded"`
}

// BuildTrackingView reduces a shipment into its timeline summary. The
// shipment's history is merged so callers may pass unsorted input.
func BuildTrackingView(s Shipment, expanded bool) TrackingView {
	history := MergeHistory(nil, s.History)
	snap := s.Clone()
	snap.History = history
	return TrackingView{
		Shipment:  snap,
		History:   history,
		Visible:   VisibleWindow(history, expanded),
		Step:      StepIndex(s.Status),
		Progress:  ProgressPercent(s.Status),
		Terminal:  s.Status.IsTerminal(),
		OutOfBand: s.Status.IsOutOfBand(),
		Expanded:  expanded,
	}
}
