// Package main provides the terminal client entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/infra/config"
	"github.com/osa030/moodify/internal/infra/logger"
	"github.com/osa030/moodify/internal/infra/playlist"
	"github.com/osa030/moodify/internal/tui"
)

var (
	app        = kingpin.New("moodify-tui", "Moodify mood playlist picker for the terminal")
	configPath = app.Flag("config", "Path to config file (defaults only when empty)").Default("").String()
	cookies    = app.Flag("cookie", "Cookie sent to the playlist service (name=value, repeatable)").Envar("MOODIFY_COOKIE").Strings()
	logfile    = app.Flag("logfile", "Path to log file").Default("moodify-tui.log").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
)

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal is owned by the UI, so logs always go to a file.
	level := "info"
	if *verbose {
		level = "debug"
	}
	closeLog, err := logger.Init(logger.Config{Output: *logfile, Level: level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(); err != nil {
		zlog.Error().Msgf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run() error {
	var (
		cfg *config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	moods, err := cfg.MoodSet()
	if err != nil {
		return err
	}
	ordering, err := moodview.ParseOrdering(cfg.Fetch.Ordering)
	if err != nil {
		return err
	}

	jar, err := parseCookies(*cookies)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.New(tui.Options{
		Context: ctx,
		Fetcher: client,
		Reducer: moodview.NewReducer(ordering, cfg.Messages.FetchError, cfg.CallbackURL()),
		View: moodview.Options{
			Moods:         moods,
			Title:         cfg.Messages.Title,
			LoadingText:   cfg.Messages.Loading,
			NoPreviewText: cfg.Messages.NoPreview,
		},
		Cookies: jar,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return errors.Wrap(err, "failed to run terminal UI")
	}

	if m, ok := final.(tui.Model); ok && m.Redirect() != "" {
		fmt.Println("Your playlist session has expired.")
		fmt.Println("Log in again by visiting:")
		fmt.Println("")
		fmt.Println(m.Redirect())
	}
	return nil
}

// parseCookies parses name=value pairs given on the command line.
func parseCookies(values []string) ([]*http.Cookie, error) {
	var out []*http.Cookie
	for _, v := range values {
		for _, part := range strings.Split(v, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parsed, err := http.ParseCookie(part)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid cookie %q", part)
			}
			out = append(out, parsed...)
		}
	}
	return out, nil
}
