package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"

	"github.com/mmcdole/kanshi/internal/adapter"
	"github.com/mmcdole/kanshi/internal/adapter/backend"
	"github.com/mmcdole/kanshi/internal/adapter/catalog/jikan"
	"github.com/mmcdole/kanshi/internal/catalog"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/mylist"
	"github.com/mmcdole/kanshi/internal/store"
	"github.com/mmcdole/kanshi/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		setup       bool
		report      bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&setup, "setup", false, "choose where your list is stored and save the config")
	flag.BoolVar(&report, "report", false, "print a plain-text summary instead of starting the UI")
	flag.Parse()

	if showVersion {
		fmt.Printf("kanshi %s\n", Version)
		return
	}

	if err := run(setup, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(setup, forceReport bool) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if setup {
		return runSetupFlow(cfg, os.Stdin, os.Stdout)
	}

	// Setup logger
	logger, logCloser, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer logCloser.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting kanshi", "version", Version, "backend", cfg.Backend.Type)

	clock := clockwork.NewRealClock()

	repo, repoCloser, err := backend.Open(cfg.Backend, clock, logger)
	if err != nil {
		return fmt.Errorf("failed to open list backend: %w", err)
	}
	defer repoCloser.Close()

	client := jikan.NewClient(jikan.Config{
		BaseURL:     cfg.Catalog.BaseURL,
		MinInterval: cfg.Catalog.MinInterval,
		RetryDelay:  cfg.Catalog.RetryDelay,
		Timeout:     cfg.Catalog.Timeout,
		PageLimit:   cfg.Catalog.PageLimit,
		SFW:         cfg.Catalog.SFW,
	}, clock, logger)

	// Create services
	st := store.New()
	notifier := tui.NewChannelNotifier(32)
	commands := mylist.NewCommands(repo, st, mylist.Options{
		RequestTimeout:  cfg.Sync.RequestTimeout,
		RefreshOnCommit: cfg.Sync.RefreshOnCommit,
		Clock:           clock,
		Notifier:        notifier,
	}, logger)
	queries := mylist.NewQueries(st)
	catalogSvc := catalog.NewService(client, logger)

	interactive := !forceReport && term.IsTerminal(int(os.Stdout.Fd()))

	// Initial list load; the UI can still browse the catalog without it
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sync.RequestTimeout)
	err = commands.Refresh(ctx)
	cancel()
	if err != nil {
		if !interactive {
			return fmt.Errorf("failed to load list: %w", err)
		}
		notifier.Notify(domain.Notification{Text: fmt.Sprintf("Could not load your list: %v", err), Error: true})
	}

	if !interactive {
		return printReport(context.Background(), os.Stdout, queries, catalogSvc)
	}

	model := tui.NewModel(tui.Services{
		Commands: commands,
		Queries:  queries,
		Catalog:  catalogSvc,
		Store:    st,
		Notifier: notifier,
		Browser:  adapter.NewBrowser(cfg.UI.Browser, cfg.UI.BrowserArgs, logger),
	})

	// Run the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	// Let queued writes reach the backend before the store closes
	commands.Wait()

	logger.Info("shutting down")
	return nil
}
