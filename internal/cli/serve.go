package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/unistroke/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr      string
		staticDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				e.cfg.Addr = addr
			}
			if cmd.Flags().Changed("static") {
				e.cfg.StaticDir = staticDir
			}
			if e.cfg.StaticDir == "" {
				e.cfg.StaticDir = findWebDir()
			}

			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			e.logger.Info("library loaded",
				"templates", a.Recognizer().Len(),
				"plugins", len(a.PluginManager().List()),
				"db", e.cfg.DBPath,
			)
			if e.cfg.StaticDir != "" {
				e.logger.Info("serving static files", "dir", e.cfg.StaticDir)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				App:       a,
				StaticDir: e.cfg.StaticDir,
				Logger:    e.logger,
			})
			return srv.Run(ctx, e.cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (env UNISTROKE_ADDR)")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory of static files to serve (env UNISTROKE_STATIC_DIR)")
	return cmd
}

// findWebDir returns the first existing web directory among "web",
// "../web" and ~/.unistroke/web, or "" if none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".unistroke", "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
