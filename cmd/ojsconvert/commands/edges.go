package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/ojsconvert/internal/hops"
)

// EdgesCmd implements the 'edges' command.
type EdgesCmd struct {
	Format string `short:"f" help:"Output format: text, adjacency, json" default:"text" enum:"text,adjacency,json"`
}

type edgeView struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Stage string `json:"stage"`
}

// Run lists the registered hops in registration order.
func (c *EdgesCmd) Run(g *Global, _ *CLI) error {
	graph := hops.DefaultGraph()
	out := g.out()

	switch c.Format {
	case "adjacency":
		_, err := fmt.Fprintln(out, graph.Dump())
		return err
	case "json":
		views := make([]edgeView, 0, len(graph.Edges()))
		for _, e := range graph.Edges() {
			views = append(views, edgeView{From: e.From, To: e.To, Stage: e.Stage.Name()})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	default:
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "FROM\tTO\tSTAGE")
		for _, e := range graph.Edges() {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.From, e.To, e.Stage.Name())
		}
		return tw.Flush()
	}
}
