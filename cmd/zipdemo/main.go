// Command zipdemo is an interactive terminal demo of the zip operator.
//
// Usage:
//
//	zipdemo                          # interactive demo
//	zipdemo -script "a a b reset b"  # run steps headless, print the final state as JSON
//	zipdemo -config path/to.toml     # use another config file
//	zipdemo -version                 # print version and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jask/zipdemo/internal/config"
	"github.com/jask/zipdemo/internal/database"
	"github.com/jask/zipdemo/internal/database/repository"
	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/engine"
	"github.com/jask/zipdemo/internal/logger"
	"github.com/jask/zipdemo/internal/service"
	"github.com/jask/zipdemo/internal/tui"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "zipdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("zipdemo", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default $ZIPDEMO_CONFIG or ~/.config/zipdemo/config.toml)")
	script := fs.String("script", "", `run steps headless, e.g. "a a b reset b", and print the final snapshot`)
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "zipdemo %s\n", version)
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.Open(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, "zipdemo")
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []engine.Option{engine.WithClock(database.Now)}
	var journal *service.Journal
	if cfg.Journal.Enabled {
		db, err := database.Open(database.MemoryDSN("zipdemo-" + uuid.NewString()))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
		journal = service.NewJournal(repository.NewEventRepo(db))
		opts = append(opts, engine.WithRecorder(journal))
		log = log.WithFields(map[string]interface{}{logger.FieldSession: journal.Session})
		log.Info("trace journal ready")
	}
	opts = append(opts, engine.WithLogger(log))

	eng := engine.New(engine.Config{
		Durations: drain.Durations{
			Highlight: cfg.Animation.HighlightDelay,
			Move:      cfg.Animation.MoveDuration,
		},
		Speed: cfg.Animation.Speed,
	}, opts...)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	defer func() {
		stop()
		<-done
	}()

	if *script != "" {
		return runScript(ctx, eng, *script, stdout)
	}
	return runTUI(ctx, cfg, eng, journal, log)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func runScript(ctx context.Context, eng *engine.Engine, src string, w io.Writer) error {
	steps, err := engine.ParseScript(src)
	if err != nil {
		return err
	}
	snap, err := eng.RunScript(ctx, steps)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func runTUI(ctx context.Context, cfg config.Config, eng *engine.Engine, journal *service.Journal, log *logger.Logger) error {
	keys := tui.NewKeyRegistry()
	overrides, err := tui.LoadKeybindings(cfg.UI.Keybindings)
	if err != nil {
		log.WithError(err).Warn("keybindings ignored")
	} else if err := keys.ApplyKeybindingConfig(overrides); err != nil {
		log.WithError(err).Warn("keybindings ignored")
		keys = tui.NewKeyRegistry()
	}

	opts := []tui.Option{tui.WithKeys(keys)}
	if journal != nil {
		opts = append(opts, tui.WithJournal(journal))
	}
	app := tui.New(ctx, cfg, eng, opts...)
	defer app.Close()

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(app, progOpts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
