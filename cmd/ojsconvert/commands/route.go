package commands

import (
	"fmt"

	"git.home.luguber.info/inful/ojsconvert/internal/hops"
)

// RouteCmd implements the 'route' command.
type RouteCmd struct {
	From string `required:"" help:"Source schema version"`
	To   string `required:"" help:"Target schema version"`
}

// Run prints the shortest hop route from From to To.
func (c *RouteCmd) Run(g *Global, _ *CLI) error {
	route, err := hops.DefaultGraph().FindRoute(c.From, c.To)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.out(), "%s (%d hops)\n", route, route.Hops())
	return err
}
