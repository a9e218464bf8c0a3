// Package cli implements the unistroke command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/config"
	"github.com/ayusman/unistroke/internal/store"
)

// env carries the resolved configuration to subcommands.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree. Flags override UNISTROKE_*
// environment variables.
func NewRootCmd() *cobra.Command {
	e := &env{}

	var (
		dbPath    string
		pluginDir string
		logLevel  string
	)

	root := &cobra.Command{
		Use:           "unistroke",
		Short:         "Single-stroke gesture recognizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("plugins") {
				cfg.PluginDir = pluginDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := cfg.Level()
			e.cfg = cfg
			e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(e.logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "template database path (env UNISTROKE_DB_PATH)")
	pf.StringVar(&pluginDir, "plugins", "", "plugin directory (env UNISTROKE_PLUGIN_DIR)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error (env UNISTROKE_LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(e),
		newListCmd(e),
		newImportCmd(e),
		newExportCmd(e),
		newRemoveCmd(e),
		newRecognizeCmd(e),
		newRetrainCmd(e),
		newCompletionCmd(),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// openApp opens the template store and loads the library. The returned
// function closes the store.
func (e *env) openApp() (*app.App, func(), error) {
	if err := os.MkdirAll(filepath.Dir(e.cfg.DBPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(e.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	a := app.New(app.Config{
		Store:         st,
		PluginDir:     e.cfg.PluginDir,
		PluginTimeout: e.cfg.PluginTimeout,
		Recognizer:    e.cfg.Recognizer(),
		MaxDistance:   e.cfg.MaxDistance,
		Logger:        e.logger,
	})
	if err := a.LoadTemplates(); err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := a.DiscoverPlugins(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("discover plugins: %w", err)
	}

	return a, func() { st.Close() }, nil
}

// openInput opens path for reading; "-" is stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
