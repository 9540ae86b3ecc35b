package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/aql/cli/cmd"
	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
	"github.com/ardnew/aql/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// CLI is the top-level command-line interface for aql.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Pprof   pprofConfig   `embed:"" group:"pprof"   prefix:"pprof-"`
	Metrics metricsConfig `embed:"" group:"metrics" prefix:"metrics-"`

	Include   []string         `help:"Directory searched for query files before ${pathEnv}." placeholder:"DIR" short:"I" type:"path"`
	MaxDepth  int              `default:"100"                                                help:"Maximum nesting depth of a query."`
	CacheSize int              `default:"256"                                                help:"Number of parsed queries kept in memory; 0 disables the cache."`
	Version   kong.VersionFlag `help:"Print version and exit."                               short:"V"`

	Init cmd.Init `cmd:"" help:"Write the current flag values to the configuration file."`
	Fmt  cmd.Fmt  `cmd:"" help:"Print queries in canonical form or as a syntax tree."`
	Repl cmd.Repl `cmd:"" help:"Evaluate queries interactively."`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate queries and print their rows."`
}

// stdio are the streams a command reads and writes.
type stdio struct {
	in       io.Reader
	out, err io.Writer
}

// Run executes the aql CLI with the given context and arguments.
// The exit function is called with the appropriate exit code when kong
// terminates early, as for --help and --version.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	return run(ctx, exit, stdio{os.Stdin, os.Stdout, os.Stderr}, pkg.ConfigPath(), args)
}

func run(
	ctx context.Context,
	exit func(code int),
	std stdio,
	configDir string,
	args []string,
) (err error) {
	var cli CLI

	configFile := filepath.Join(configDir, baseConfig+".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFile,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"pathEnv":            pkg.EnvPath,
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	log.Config(log.WithOutput(std.err))

	// Logger flags take effect before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(std.out, std.err),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Metrics.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, filepath.Join(configDir, baseConfig+".json")),
		kong.Configuration(loadYAML, configFile),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	rt, err := cli.runtime(std, configFile)
	if err != nil {
		return err
	}

	recorder := cli.Metrics.recorder(ctx)
	if recorder != nil {
		rt.Options = append(rt.Options, lang.WithObserver(recorder))

		defer func() {
			if werr := cli.Metrics.flush(ctx, recorder); err == nil {
				err = werr
			}
		}()
	}

	ktx.Bind(rt)

	return ktx.Run()
}

// runtime builds the state shared by every command from the global flags.
func (c *CLI) runtime(std stdio, configFile string) (*cmd.Runtime, error) {
	logger := log.Default()

	opts := []lang.Option{
		lang.WithLogger(logger),
		lang.WithMaxDepth(c.MaxDepth),
	}

	if c.CacheSize > 0 {
		cache, err := lang.NewCache(c.CacheSize)
		if err != nil {
			return nil, err
		}

		opts = append(opts, lang.WithCache(cache))
	}

	return &cmd.Runtime{
		Stdin:      std.in,
		Stdout:     std.out,
		Stderr:     std.err,
		Logger:     logger,
		Options:    opts,
		Path:       pkg.SearchPath(os.Getenv(pkg.EnvPath), c.Include...),
		CacheDir:   pkg.CacheDir(),
		ConfigFile: configFile,
	}, nil
}
