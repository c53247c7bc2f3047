// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/moodify/internal/api/web"
	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/app/session"
	"github.com/osa030/moodify/internal/infra/config"
	"github.com/osa030/moodify/internal/infra/logger"
	"github.com/osa030/moodify/internal/infra/playlist"
)

var (
	app        = kingpin.New("moodify-server", "Moodify mood playlist page")
	configPath = app.Flag("config", "Path to config file (defaults only when empty)").Default("config/moodify.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listMoodsCmd = app.Command("list-moods", "List configured moods and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == listMoodsCmd.FullCommand() {
		if err := printMoods(cfg); err != nil {
			zlog.Fatal().Msgf("Failed to list moods: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closeLog()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		zlog.Info().Msg("No config file given, using defaults")
		return config.Default()
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	moods, err := cfg.MoodSet()
	if err != nil {
		return errors.Wrap(err, "invalid moods")
	}

	ordering, err := moodview.ParseOrdering(cfg.Fetch.Ordering)
	if err != nil {
		return err
	}

	client, err := playlist.New(playlist.Config{
		BaseURL:      cfg.Backend.BaseURL,
		PlaylistPath: cfg.Backend.PlaylistPath,
		Timeout:      cfg.Backend.Timeout,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create playlist client")
	}

	if ordering == moodview.LastResolvedWins {
		zlog.Warn().Msg("Fetch ordering is last_resolved: a slow superseded request can replace newer results")
	}

	reducer := moodview.NewReducer(ordering, cfg.Messages.FetchError, cfg.CallbackURL())
	registry := session.NewRegistry(client, reducer, cfg.Server.SessionTTL)
	registry.StartPruning(time.Minute)

	handler, err := web.NewHandler(web.Config{
		Registry: registry,
		View: moodview.Options{
			Moods:         moods,
			Title:         cfg.Messages.Title,
			LoadingText:   cfg.Messages.Loading,
			NoPreviewText: cfg.Messages.NoPreview,
		},
		SessionCookie: cfg.Server.SessionCookie,
		SessionTTL:    cfg.Server.SessionTTL,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create web handler")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(web.AccessLog(handler), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s playlist=%s ordering=%s moods=%d",
			cfg.Server.Addr, client.Endpoint(), ordering, moods.Len())
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		registry.Close()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	// Let outstanding fetches finish within the shutdown deadline, then cancel the rest.
	drained := make(chan struct{})
	go func() {
		registry.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		zlog.Warn().Msg("Cancelling outstanding playlist fetches")
	}
	registry.Close()

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printMoods prints the configured moods in display order.
func printMoods(cfg *config.Config) error {
	moods, err := cfg.MoodSet()
	if err != nil {
		return err
	}
	fmt.Println("Configured Moods:")
	for i, opt := range moods.Options() {
		fmt.Printf("  %d. %-12s %s\n", i+1, opt.Mood, opt.DisplayLabel())
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
