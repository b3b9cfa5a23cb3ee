package journal

import (
	"sort"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary is a read model of one conversion run.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	Status         string        `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
	HopsCompleted  int           `json:"hops_completed"`
	Validations    int           `json:"validations"`
	PendingMarkers int           `json:"pending_markers"`
	ErrorStage     string        `json:"error_stage,omitempty"`
	ErrorHop       string        `json:"error_hop,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// Summarize folds events, in append order, into one summary per run, newest first.
// Events with undecodable payloads still count toward their run.
func Summarize(events []Event) []RunSummary {
	byRun := make(map[string]*RunSummary)
	var order []string

	for _, e := range events {
		id := e.RunID()
		if id == "" {
			continue
		}
		s, ok := byRun[id]
		if !ok {
			s = &RunSummary{RunID: id, Status: StatusRunning, StartedAt: e.Timestamp()}
			byRun[id] = s
			order = append(order, id)
		}

		switch e.Type() {
		case TypeRunStarted:
			var p RunStarted
			if Decode(e, &p) == nil {
				s.From, s.To = p.From, p.To
			}
			s.StartedAt = e.Timestamp()
		case TypeHopCompleted:
			s.HopsCompleted++
		case TypeValidationPassed:
			s.Validations++
		case TypeRunCompleted:
			var p RunCompleted
			if Decode(e, &p) == nil {
				s.Duration = time.Duration(p.DurationMS) * time.Millisecond
				s.PendingMarkers = p.PendingMarkers
			}
			s.finish(StatusCompleted, e.Timestamp())
		case TypeRunFailed:
			var p RunFailed
			if Decode(e, &p) == nil {
				s.ErrorStage, s.ErrorHop, s.ErrorMessage = p.Stage, p.Hop, p.Error
			}
			s.finish(StatusFailed, e.Timestamp())
		}
	}

	out := make([]RunSummary, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, *byRun[order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (s *RunSummary) finish(status string, at time.Time) {
	s.Status = status
	t := at
	s.CompletedAt = &t
	if s.Duration == 0 {
		s.Duration = at.Sub(s.StartedAt)
	}
}
