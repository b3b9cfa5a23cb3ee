package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/journal"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Journal string `help:"SQLite journal to read (default: journal.path from configuration)"`
	RunID   string `name:"run" help:"Show the events of one run instead of the run list"`
	Format  string `short:"f" help:"Output format: text, json" default:"text" enum:"text,json"`
}

// Run lists recorded runs, or the events of one run.
func (c *HistoryCmd) Run(g *Global, _ *CLI) error {
	return c.history(context.Background(), g)
}

func (c *HistoryCmd) history(ctx context.Context, g *Global) error {
	path := firstNonEmpty(c.Journal, g.settings().Journal.Path)
	if path == "" {
		return ferrors.ConfigError("no journal configured; pass --journal or set journal.path").Build()
	}
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if c.RunID != "" {
		return c.printEvents(ctx, g, store)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return encodeJSON(g, runs)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tFROM\tTO\tSTATUS\tHOPS\tDURATION\tDETAIL")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID, r.StartedAt.Format(time.RFC3339), r.From, r.To, r.Status,
			r.HopsCompleted, r.Duration.Round(time.Millisecond), detail(r))
	}
	return tw.Flush()
}

func (c *HistoryCmd) printEvents(ctx context.Context, g *Global, store journal.Store) error {
	events, err := store.ByRun(ctx, c.RunID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ferrors.JournalError("run not found in journal").WithContext("run_id", c.RunID).Build()
	}

	if c.Format == "json" {
		type eventView struct {
			Type      string          `json:"type"`
			Timestamp time.Time       `json:"timestamp"`
			Payload   json.RawMessage `json:"payload"`
		}
		views := make([]eventView, 0, len(events))
		for _, e := range events {
			views = append(views, eventView{Type: e.Type(), Timestamp: e.Timestamp(), Payload: e.Payload()})
		}
		return encodeJSON(g, views)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Format(time.RFC3339Nano), e.Type(), e.Payload())
	}
	return tw.Flush()
}

func detail(r journal.RunSummary) string {
	switch r.Status {
	case journal.StatusFailed:
		if r.ErrorHop != "" {
			return fmt.Sprintf("%s %s: %s", r.ErrorStage, r.ErrorHop, r.ErrorMessage)
		}
		return fmt.Sprintf("%s: %s", r.ErrorStage, r.ErrorMessage)
	case journal.StatusCompleted:
		if r.PendingMarkers > 0 {
			return fmt.Sprintf("%d pending markers", r.PendingMarkers)
		}
	}
	return ""
}

func encodeJSON(g *Global, v any) error {
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
