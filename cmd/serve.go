package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapfiredev/snapfire/internal/app"
	"github.com/snapfiredev/snapfire/internal/config"
	"github.com/snapfiredev/snapfire/internal/logging"
	"github.com/snapfiredev/snapfire/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development server with live reload",
	Long: `Start the development server. Templates matching the configured glob are
served by name ("/" maps to index.html) and watched for changes together
with any static directories. Connected browsers reload automatically.

Examples:
  snapfire serve
  snapfire serve --templates 'templates/**/*.html' --static static
  snapfire serve --port 8080 --ws-path /_dev/ws`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 3000, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringP("templates", "t", "templates/**/*.html", "Template glob pattern")
	serveCmd.Flags().StringSliceP("static", "s", nil, "Static directory to watch (repeatable)")
	serveCmd.Flags().String("ws-path", "/_snapfire/ws", "WebSocket endpoint path")
	serveCmd.Flags().Bool("no-inject", false, "Don't inject the reload client into HTML responses")

	bindFlags(serveCmd.Flags(), map[string]string{
		"server.port":        "port",
		"server.host":        "host",
		"templates.glob":     "templates",
		"reload.static_dirs": "static",
		"reload.ws_path":     "ws-path",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	noInject, _ := cmd.Flags().GetBool("no-inject")
	if noInject {
		cfg.Reload.AutoInject = false
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	builder := app.New(cfg.Templates.Glob).
		WSPath(cfg.Reload.WSPath).
		AutoInjectScript(cfg.Reload.AutoInject).
		Logger(logger)
	for key, value := range cfg.Templates.Globals {
		builder.AddGlobal(key, value)
	}
	for _, dir := range cfg.Reload.StaticDirs {
		builder.WatchStatic(dir)
	}

	application, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer application.Close()

	mux := http.NewServeMux()
	application.MountRoutes(mux)

	// The session endpoint mounts outside the page chain: the rewriter
	// buffers responses and must not sit in front of a websocket upgrade.
	pages := http.NewServeMux()
	for _, dir := range cfg.Reload.StaticDirs {
		prefix := "/" + path.Base(dir) + "/"
		pages.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
	}
	pages.HandleFunc("/", pageHandler(application))

	chain := middleware.NewChain(middleware.Logging(logger), application.Middleware())
	mux.Handle("/", chain.Apply(pages))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error(shutdownCtx, shutdownErr, "error during server shutdown")
		}
	}()

	fmt.Printf("Starting snapfire server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// pageHandler maps request paths to template names: "/" renders index.html,
// anything else renders the path relative to the template root.
func pageHandler(application *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			name = "index.html"
		}

		application.HandlePage(name, nil)(w, r)
	}
}
