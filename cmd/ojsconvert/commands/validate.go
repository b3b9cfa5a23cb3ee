package commands

import (
	"context"
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/schema"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// ValidateCmd implements the 'validate' command. The version flag is named
// --schema-version since --version is taken by the root command.
type ValidateCmd struct {
	SchemaVersion string   `short:"s" required:"" help:"Schema version to validate against"`
	In            string   `required:"" help:"XML file to validate"`
	SchemaBase    []string `help:"Directory holding per-version grammars (repeatable)"`
}

// Run validates In and lists every violation.
func (c *ValidateCmd) Run(g *Global, _ *CLI) error {
	return c.validate(context.Background(), g)
}

func (c *ValidateCmd) validate(ctx context.Context, g *Global) error {
	doc, err := xmltree.ReadFile(c.In)
	if err != nil {
		return err
	}

	out := g.out()
	err = newValidator(c.SchemaBase, g.settings()).Validate(ctx, doc, c.SchemaVersion, g.logger())
	switch {
	case err == nil:
		_, err = fmt.Fprintf(out, "%s: valid against %s\n", c.In, c.SchemaVersion)
		return err
	case errors.Is(err, schema.ErrNoGrammar):
		return ferrors.ConfigError("nothing to validate against").
			WithCause(err).
			WithContext("version", c.SchemaVersion).
			Build()
	}

	for _, v := range schema.Violations(err) {
		_, _ = fmt.Fprintf(out, "%s: %s\n", c.In, v)
	}
	return err
}
