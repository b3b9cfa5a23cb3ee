package pipeline

import (
	"log/slog"

	"git.home.luguber.info/inful/ojsconvert/internal/journal"
	"git.home.luguber.info/inful/ojsconvert/internal/metrics"
)

// PipelineOption configures pipeline behavior.
type PipelineOption func(*Pipeline)

// WithStrictValidation turns validation around every hop on or off.
func WithStrictValidation(strict bool) PipelineOption {
	return func(p *Pipeline) {
		p.strict = strict
	}
}

// WithValidator sets the validator used in strict mode.
func WithValidator(v Validator) PipelineOption {
	return func(p *Pipeline) {
		p.validator = v
	}
}

// WithTraceLogger sets the logger that receives per-hop trace output. Stages log to it
// as well.
func WithTraceLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.trace = l
		}
	}
}

// WithLogger sets the diagnostics logger used for problems outside the document itself,
// such as journal write failures.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithJournal records run events to s.
func WithJournal(s journal.Store) PipelineOption {
	return func(p *Pipeline) {
		p.journal = s
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) PipelineOption {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// WithSchemaFile sets the file named in xsi:schemaLocation.
func WithSchemaFile(name string) PipelineOption {
	return func(p *Pipeline) {
		if name != "" {
			p.schemaFile = name
		}
	}
}
