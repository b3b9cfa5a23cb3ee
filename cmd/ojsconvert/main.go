package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/ojsconvert/cmd/ojsconvert/commands"
	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}

	parser, err := kong.New(cli,
		kong.Name("ojsconvert"),
		kong.Description("Migrate OJS native XML exports between schema versions."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		if ferrors.IsClassified(err) {
			os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose).Report(err))
		}
		parser.FatalIfErrorf(err)
	}

	if err := ctx.Run(cli); err != nil {
		os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose).Report(err))
	}
}
