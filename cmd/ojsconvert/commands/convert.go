package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/ojsconvert/internal/config"
	"git.home.luguber.info/inful/ojsconvert/internal/hops"
	"git.home.luguber.info/inful/ojsconvert/internal/journal"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/metrics"
	"git.home.luguber.info/inful/ojsconvert/internal/pipeline"
	"git.home.luguber.info/inful/ojsconvert/internal/schema"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	From           string   `required:"" help:"Schema version of the input document"`
	To             string   `required:"" help:"Schema version to produce"`
	In             string   `required:"" help:"Input XML file"`
	Out            string   `required:"" help:"Output XML file, written only when the conversion succeeds"`
	Trace          bool     `help:"Print a per-hop trace on stdout"`
	ValidateStrict bool     `help:"Validate the input, every intermediate result and the output"`
	SchemaBase     []string `help:"Directory holding per-version grammars (repeatable)"`
	Journal        string   `help:"SQLite journal recording this run"`
	MetricsFile    string   `help:"Write Prometheus metrics for this run to a textfile"`
}

// Run executes the convert command.
func (c *ConvertCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return c.convert(ctx, g)
}

func (c *ConvertCmd) convert(ctx context.Context, g *Global) error {
	cfg := g.settings()
	log := g.logger()
	strict := c.ValidateStrict || cfg.Pipeline.Strict
	trace := c.Trace || cfg.Pipeline.Trace

	doc, err := xmltree.ReadFile(c.In)
	if err != nil {
		return err
	}

	runID := journal.NewRunID()
	recorder := metrics.NewPrometheusRecorder(nil)
	opts := []pipeline.PipelineOption{
		pipeline.WithRunID(runID),
		pipeline.WithStrictValidation(strict),
		pipeline.WithLogger(log),
		pipeline.WithRecorder(recorder),
		pipeline.WithSchemaFile(cfg.Schema.File),
	}
	if trace {
		opts = append(opts, pipeline.WithTraceLogger(newTraceLogger(g.out())))
	}
	if strict {
		opts = append(opts, pipeline.WithValidator(newValidator(c.SchemaBase, cfg)))
	}
	if path := firstNonEmpty(c.Journal, cfg.Journal.Path); path != "" {
		store, err := journal.NewSQLiteStore(path)
		if err != nil {
			log.Warn("Journal unavailable; run will not be recorded", logfields.Path(path), logfields.Error(err))
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					log.Warn("Failed to close journal", logfields.Error(err))
				}
			}()
			opts = append(opts, pipeline.WithJournal(store))
		}
	}

	start := time.Now()
	out, runErr := pipeline.New(hops.DefaultGraph(), opts...).Run(ctx, doc, c.From, c.To)
	if runErr == nil {
		runErr = xmltree.WriteFile(c.Out, out)
	}

	if path := firstNonEmpty(c.MetricsFile, cfg.Metrics.Textfile); path != "" {
		if err := metrics.WriteTextfile(path, recorder.Registry()); err != nil {
			log.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	log.Info("Conversion complete",
		logfields.RunID(runID),
		logfields.From(c.From),
		logfields.To(c.To),
		logfields.Path(c.Out),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// newTraceLogger returns the per-hop trace logger. It always logs at debug level.
func newTraceLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newValidator searches flag directories first, then configured ones.
func newValidator(flagDirs []string, cfg *config.Config) *schema.Validator {
	dirs := append(append([]string{}, flagDirs...), cfg.Schema.BaseDirs...)
	return schema.NewValidator(schema.NewLocator(schema.DefaultRoots(dirs...)...))
}
