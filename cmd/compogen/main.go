package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/compogen/compogen/pkg/cmd/analyze"
	"github.com/compogen/compogen/pkg/cmd/compose"
	"github.com/compogen/compogen/pkg/cmd/serve"
	"github.com/compogen/compogen/pkg/storage"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// Build flags
var version = ""
var commit = ""
var date = ""

func main() {
	// Create signal based context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Launch command
	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("compogen", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "compogen [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(),
			newComposeCommand(),
			newServeCommand(),
			newAnalyzeCommand(),
			newMigrateCommand(),
		},
	}
}

func newVersionCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "compogen version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newComposeCommand() *ffcli.Command {
	cmd := "compose"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &compose.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "database type (optional)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "database connection string (optional)")
	fs.StringVar(&cfg.Output, "output", "", "output file base name")

	fs.IntVar(&cfg.Generation.Tempo, "tempo", 120, "tempo in bpm (40-240)")
	fs.StringVar(&cfg.Generation.Key, "key", "C", "key, e.g. C, F#m, Bb minor")
	fs.StringVar(&cfg.Generation.TimeSignature, "time-signature", "4/4", "time signature")
	fs.StringVar(&cfg.Generation.Genre, "genre", "pop", "genre")
	fs.StringVar(&cfg.Generation.Mood, "mood", "happy", "mood")
	fs.Float64Var(&cfg.Generation.Complexity, "complexity", 0.5, "complexity (0-1)")
	fs.StringVar(&cfg.Generation.Instruments, "instruments", "", "comma separated instruments")
	fs.StringVar(&cfg.Generation.Style, "style", "normal", "style: normal, staccato, legato, arpeggio")
	fs.IntVar(&cfg.Generation.Bars, "bars", 8, "number of bars")
	fs.Int64Var(&cfg.Generation.Seed, "seed", 0, "random seed (0 for non-reproducible)")
	fs.StringVar(&cfg.Generation.Profiles, "profiles", "", "genre profile overrides yaml (optional)")
	fs.IntVar(&cfg.Generation.SampleRate, "sample-rate", 0, "wav sample rate")
	fs.IntVar(&cfg.Generation.Channels, "channels", 0, "wav channels")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("compogen %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithEnvVarPrefix("compogen"),
		},
		ShortHelp: fmt.Sprintf("compogen %s command", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return compose.Run(ctx, cfg)
		},
	}
}

func newServeCommand() *ffcli.Command {
	cmd := "serve"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &serve.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "database type")
	fs.StringVar(&cfg.DBConn, "db-conn", "compogen.db", "database connection string")
	fs.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	fs.StringVar(&cfg.Profiles, "profiles", "", "genre profile overrides yaml (optional)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("compogen %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithEnvVarPrefix("compogen"),
		},
		ShortHelp: fmt.Sprintf("compogen %s command", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return serve.Serve(ctx, cfg)
		},
	}
}

func newAnalyzeCommand() *ffcli.Command {
	cmd := "analyze"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &analyze.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Input, "input", "", "input .mid, .wav or .mp3 file")
	fs.StringVar(&cfg.Plot, "plot", "", "waveform plot output file (optional)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("compogen %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithEnvVarPrefix("compogen"),
		},
		ShortHelp: fmt.Sprintf("compogen %s command", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return analyze.Run(ctx, cfg)
		},
	}
}

func newMigrateCommand() *ffcli.Command {
	cmd := "migrate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	var debug bool
	var dbType, dbConn string
	fs.BoolVar(&debug, "debug", false, "debug mode")
	fs.StringVar(&dbType, "db-type", "sqlite", "database type")
	fs.StringVar(&dbConn, "db-conn", "compogen.db", "database connection string")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("compogen %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithEnvVarPrefix("compogen"),
		},
		ShortHelp: fmt.Sprintf("compogen %s command", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			store, err := storage.New(dbType, dbConn, debug)
			if err != nil {
				return err
			}
			if err := store.Start(ctx); err != nil {
				return err
			}
			return store.Migrate(ctx)
		},
	}
}
