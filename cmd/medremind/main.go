package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/config"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/scheduler"
	"github.com/sandeepkv93/medremind/internal/storage"
	"github.com/sandeepkv93/medremind/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medremind failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv(config.Default())

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx := context.Background()
	slots, err := storage.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	defer slots.Close()

	engine := scheduler.NewEngine(cfg.SchedulerBuffer, cfg.Notifications)
	engine.Start()
	defer engine.Stop()

	failures := update.NewChannelReporter(32)
	ctrl := reminder.NewController(storage.NewMedicineStore(slots, logger), engine, reminder.Options{
		Grace:          cfg.GraceWindow,
		KeepDailyOnAck: cfg.KeepDailyOnAck,
		Reporter:       reminder.Tee(reminder.LogReporter{Logger: logger}, failures),
		Logger:         logger,
	})
	list := ctrl.Activate(ctx)
	logger.Info("activated", "records", len(list), "db", cfg.DBPath, "grace", cfg.GraceWindow)

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	program := tea.NewProgram(update.NewModel(update.Options{
		Reminders:     ctrl,
		Triggers:      engine.C(),
		Failures:      failures.C(),
		Acknowledge:   engine.Acknowledge,
		Notifier:      notifier,
		Desktop:       cfg.DesktopNotifications,
		DefaultFilter: cfg.DefaultFilter,
		RefreshEvery:  time.Minute,
	}), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

// newLogger writes to the configured file; the terminal belongs to the TUI.
func newLogger(cfg config.RuntimeConfig) (*log.Logger, func()) {
	var out io.Writer = io.Discard
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           cfg.LogLevel,
		Formatter:       cfg.Formatter(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "medremind",
	})
	log.SetDefault(logger)
	return logger, closeFn
}
