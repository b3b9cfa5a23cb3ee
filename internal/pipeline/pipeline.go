package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/beevik/etree"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/hopgraph"
	"git.home.luguber.info/inful/ojsconvert/internal/instruction"
	"git.home.luguber.info/inful/ojsconvert/internal/journal"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/metrics"
	"git.home.luguber.info/inful/ojsconvert/internal/schema"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// Steps reported when a run aborts.
const (
	StepValidateInput  = "validate_input"
	StepRoute          = "route"
	StepHop            = "hop"
	StepValidate       = "validate"
	StepValidateOutput = "validate_output"
)

// Validator checks a document against the grammar of one version. Returning an error
// that wraps schema.ErrNoGrammar means nothing could be checked; the run goes on.
type Validator interface {
	Validate(ctx context.Context, doc *etree.Document, version string, log *slog.Logger) error
}

// Pipeline runs documents through a hop graph. It keeps no per-run state and can be
// reused.
type Pipeline struct {
	graph      *hopgraph.Graph
	strict     bool
	validator  Validator
	trace      *slog.Logger
	log        *slog.Logger
	recorder   metrics.Recorder
	journal    journal.Store
	runID      string
	schemaFile string
}

// New creates a pipeline over graph. By default it is lenient, traces nowhere and
// records nothing.
func New(graph *hopgraph.Graph, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		graph:      graph,
		trace:      slog.New(slog.DiscardHandler),
		log:        slog.Default(),
		recorder:   metrics.NoopRecorder{},
		schemaFile: xmltree.DefaultSchemaFile,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	id    string
	trace *slog.Logger
	start time.Time
}

// Run converts doc from version from to version to and returns the converted document.
// The input document is rewritten in place.
func (p *Pipeline) Run(ctx context.Context, doc *etree.Document, from, to string) (*etree.Document, error) {
	id := p.runID
	if id == "" {
		id = journal.NewRunID()
	}
	r := &run{Pipeline: p, id: id, trace: p.trace.With(logfields.RunID(id)), start: time.Now()}
	return r.execute(ctx, doc, from, to)
}

func (r *run) execute(ctx context.Context, doc *etree.Document, from, to string) (*etree.Document, error) {
	r.record(ctx, journal.TypeRunStarted, journal.RunStarted{From: from, To: to, Strict: r.strict})
	r.trace.Info("Starting conversion", logfields.From(from), logfields.To(to), slog.Bool("strict", r.strict))

	if doc == nil || doc.Root() == nil {
		return r.fail(ctx, StepValidateInput, "", ferrors.TransformError("document has no root element").Build())
	}
	if r.strict && r.validator == nil {
		return r.fail(ctx, StepValidateInput, "", ferrors.ConfigError("strict validation requires a validator").Build())
	}

	if r.strict {
		if err := r.validate(ctx, doc, from); err != nil {
			return r.fail(ctx, StepValidateInput, "", err)
		}
	}

	route, err := r.graph.FindRoute(from, to)
	if err != nil {
		return r.fail(ctx, StepRoute, "", err)
	}
	r.trace.Info("Resolved route", logfields.Route(route), logfields.Depth(route.Hops()))

	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		hop := a + "->" + b

		if err := ctx.Err(); err != nil {
			return r.fail(ctx, StepHop, hop, err)
		}

		stage, err := r.graph.EdgeFor(a, b)
		if err != nil {
			return r.fail(ctx, StepHop, hop, err)
		}

		hopLog := r.trace.With(logfields.Hop(a, b))
		hopLog.Debug("Applying hop", logfields.Stage(stage.Name()), logfields.Depth(i+1))
		hopStart := time.Now()

		out := stage.Transform(doc, hopLog)
		if out == nil || out.Root() == nil {
			r.recorder.IncHopResult(hop, metrics.ResultFailed)
			return r.fail(ctx, StepHop, hop, ferrors.TransformError("hop produced no document").
				WithContext("hop", hop).
				Build())
		}
		doc = out
		xmltree.EnsureRootNamespace(doc, r.schemaFile)

		elapsed := time.Since(hopStart)
		r.recorder.ObserveHopDuration(hop, elapsed)
		r.recorder.IncHopResult(hop, metrics.ResultSuccess)
		r.record(ctx, journal.TypeHopCompleted, journal.HopCompleted{From: a, To: b, DurationMS: elapsed.Milliseconds()})
		hopLog.Debug("Hop applied", logfields.DurationMS(float64(elapsed.Microseconds())/1000))

		if r.strict {
			if err := r.validate(ctx, doc, b); err != nil {
				return r.fail(ctx, StepValidate, hop, err)
			}
		}
	}

	if r.strict {
		if err := r.validate(ctx, doc, to); err != nil {
			return r.fail(ctx, StepValidateOutput, "", err)
		}
	}

	pending := instruction.Pending(doc.Root())
	if len(pending) > 0 {
		keys := make([]string, 0, len(pending))
		for _, m := range pending {
			keys = append(keys, m.Key)
		}
		r.trace.Warn("Instruction markers left unconsumed", logfields.Count(len(pending)), slog.Any("keys", keys))
	}

	elapsed := time.Since(r.start)
	r.recorder.ObserveRunDuration(elapsed)
	r.recorder.IncRunOutcome(metrics.RunSuccess)
	r.record(ctx, journal.TypeRunCompleted, journal.RunCompleted{DurationMS: elapsed.Milliseconds(), PendingMarkers: len(pending)})
	r.trace.Info("Conversion complete", logfields.Route(route), logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return doc, nil
}

// validate runs the validator for version. A missing grammar counts as skipped.
func (r *run) validate(ctx context.Context, doc *etree.Document, version string) error {
	err := r.validator.Validate(ctx, doc, version, r.trace)
	switch {
	case err == nil:
		r.recorder.IncValidation(version, metrics.ResultSuccess)
		r.record(ctx, journal.TypeValidationPassed, journal.Validation{Version: version})
		r.trace.Debug("Validation passed", logfields.Version(version))
		return nil
	case errors.Is(err, schema.ErrNoGrammar):
		r.recorder.IncValidation(version, metrics.ResultSkipped)
		r.record(ctx, journal.TypeValidationSkipped, journal.Validation{Version: version, Reason: err.Error()})
		r.trace.Debug("Validation skipped", logfields.Version(version), logfields.Error(err))
		return nil
	default:
		r.recorder.IncValidation(version, metrics.ResultFailed)
		return err
	}
}

func (r *run) fail(ctx context.Context, step, hop string, err error) (*etree.Document, error) {
	attrs := []any{logfields.Stage(step), logfields.Error(err)}
	if hop != "" {
		attrs = append(attrs, slog.String(logfields.KeyHop, hop))
	}
	r.trace.Error("Pipeline aborted", attrs...)

	r.recorder.ObserveRunDuration(time.Since(r.start))
	r.recorder.IncRunOutcome(metrics.RunFailed)
	r.record(ctx, journal.TypeRunFailed, journal.RunFailed{Stage: step, Hop: hop, Error: err.Error()})
	return nil, err
}

// record appends a journal event. Journal failures are logged and never fail the run.
func (r *run) record(ctx context.Context, eventType string, payload any) {
	if r.journal == nil {
		return
	}
	if err := journal.Record(context.WithoutCancel(ctx), r.journal, r.id, eventType, payload); err != nil {
		r.log.Warn("Failed to write journal event",
			logfields.RunID(r.id),
			slog.String("event_type", eventType),
			logfields.Error(err))
	}
}
