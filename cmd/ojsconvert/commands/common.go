package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/ojsconvert/internal/config"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
)

// Global is shared by all subcommands. AfterApply fills it in.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	// Out receives command output and the trace log.
	Out io.Writer
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) settings() *config.Config {
	if g.Config == nil {
		g.Config = config.Default()
	}
	return g.Config
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ./ojsconvert.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Convert  ConvertCmd  `cmd:"" help:"Convert a native XML export from one schema version to another"`
	Route    RouteCmd    `cmd:"" help:"Show the hop route between two versions"`
	Edges    EdgesCmd    `cmd:"" help:"List the registered hops"`
	Validate ValidateCmd `cmd:"" help:"Validate a document against the grammar of one version"`
	History  HistoryCmd  `cmd:"" help:"Show conversion runs recorded in the journal"`
}

// AfterApply runs after flag parsing; loads configuration and sets up logging once.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	g.Config = cfg
	g.Logger = cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(g.Logger)

	if cfg.Source != "" {
		g.Logger.Debug("Loaded configuration", logfields.Path(cfg.Source))
	}
	for _, f := range cfg.EnvFiles {
		g.Logger.Debug("Loaded environment file", logfields.Path(f))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
