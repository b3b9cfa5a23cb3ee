package journal

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

// Event type names.
const (
	TypeRunStarted        = "run_started"
	TypeHopCompleted      = "hop_completed"
	TypeValidationPassed  = "validation_passed"
	TypeValidationSkipped = "validation_skipped"
	TypeRunCompleted      = "run_completed"
	TypeRunFailed         = "run_failed"
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RunStarted is the payload of run_started.
type RunStarted struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Route  []string `json:"route,omitempty"`
	Strict bool     `json:"strict"`
	Input  string   `json:"input,omitempty"`
}

// HopCompleted is the payload of hop_completed.
type HopCompleted struct {
	From       string `json:"from"`
	To         string `json:"to"`
	DurationMS int64  `json:"duration_ms"`
}

// Validation is the payload of validation_passed and validation_skipped.
type Validation struct {
	Version string `json:"version"`
	Reason  string `json:"reason,omitempty"`
}

// RunCompleted is the payload of run_completed.
type RunCompleted struct {
	DurationMS     int64 `json:"duration_ms"`
	PendingMarkers int   `json:"pending_markers"`
}

// RunFailed is the payload of run_failed.
type RunFailed struct {
	Stage string `json:"stage"`
	Hop   string `json:"hop,omitempty"`
	Error string `json:"error"`
}

// Record marshals payload to JSON and appends it as one event of runID.
func Record(ctx context.Context, s Store, runID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.JournalError("failed to marshal event payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return s.Append(ctx, runID, eventType, data, nil)
}

// Decode unmarshals the payload of e into out.
func Decode(e Event, out any) error {
	if err := json.Unmarshal(e.Payload(), out); err != nil {
		return errors.JournalError("failed to unmarshal event payload").
			WithCause(err).
			WithContext("run_id", e.RunID()).
			WithContext("event_type", e.Type()).
			Build()
	}
	return nil
}
