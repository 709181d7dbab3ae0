package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/dima-ingest/internal/config"
	_ "github.com/JonMunkholm/dima-ingest/internal/core/entities" // Register all entity types
	"github.com/JonMunkholm/dima-ingest/internal/extract"
	"github.com/JonMunkholm/dima-ingest/internal/logging"
)

// app carries state shared by the subcommands.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	out      io.Writer
	closeLog func() error

	// newEngine connects to Docker. Tests replace it.
	newEngine func() (extract.Engine, func() error, error)
}

func newApp(out io.Writer) *app {
	v := viper.New()
	v.AutomaticEnv()
	return &app{
		v:         v,
		out:       out,
		closeLog:  func() error { return nil },
		newEngine: dockerEngine,
	}
}

// rootCommand creates and returns the root command.
func rootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "dimaingest",
		Short:        "Extract and ingest DIMA field survey exports",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("data-dir", "", "Directory of exported CSV files (env DATA_DIR)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.String("log-format", "", "Log format: text, json (env LOG_FORMAT)")
	a.bind(pf, map[string]string{
		"data-dir":   "DATA_DIR",
		"log-level":  "LOG_LEVEL",
		"log-format": "LOG_FORMAT",
	})

	root.AddCommand(
		extractCommand(a),
		ingestCommand(a),
		classifyCommand(a),
		entitiesCommand(a),
	)

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}

	return root
}

// bind maps flags to config keys. Changed flags take precedence over the
// environment; unchanged ones fall through to it and then to config
// defaults, since every flag default is the zero value.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

// setup loads configuration through viper and configures logging.
func (a *app) setup() error {
	cfg, err := config.LoadWith(a.v.GetString)
	if err != nil {
		return err
	}
	a.cfg = cfg

	closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

func (a *app) close() {
	if err := a.closeLog(); err != nil {
		slog.Error("failed to close log file", "error", err)
	}
}

func dockerEngine() (extract.Engine, func() error, error) {
	cli, err := extract.NewClient()
	if err != nil {
		return nil, nil, err
	}
	return cli, cli.Close, nil
}
