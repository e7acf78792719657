// Command edificaflow runs the terminal maintenance dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	aiservice "edificaflow/internal/ai"
	"edificaflow/internal/app"
	"edificaflow/internal/credential"
	"edificaflow/internal/logger"
	"edificaflow/internal/model"
	"edificaflow/internal/schedule"
	"edificaflow/internal/state"
	"edificaflow/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "edificaflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	manager, err := state.New(context.Background(), s, log, state.Options{
		DebounceDelay:      time.Duration(cfg.Alerts.DebounceSec) * time.Second,
		UpcomingWindowDays: cfg.Alerts.UpcomingWindowDays,
	})
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer manager.Close()

	recheck, err := schedule.NewRecheck(
		time.Duration(cfg.Alerts.RecheckIntervalSec)*time.Second,
		func() {
			if _, err := manager.EvaluateNow(); err != nil {
				log.Error("periodic alert evaluation failed", zap.Error(err))
			}
		},
	)
	if err != nil {
		return fmt.Errorf("setting up recheck: %w", err)
	}
	recheck.Start()
	defer recheck.Stop()

	planner := loadPlanner(cfg)
	if planner == nil {
		log.Info("no API key configured; AI advisor disabled")
	}

	program := tea.NewProgram(
		app.New(manager, planner, log),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}

// loadPlanner creates the AI planner from the environment variable or the
// system keyring. Returns nil if no key is available; the advisor view
// shows setup instructions in that case.
func loadPlanner(cfg *model.AppConfig) *aiservice.Planner {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = credential.Get(credential.APIKeyName)
		if err != nil || apiKey == "" {
			return nil
		}
	}

	return aiservice.NewPlanner(apiKey, cfg.AI.Model, cfg.AI.MaxTokens)
}
