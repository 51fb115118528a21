package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"chess-scout/browser"
	"chess-scout/config"
	"chess-scout/logging"
	"chess-scout/scraper"
)

// extract <player_id>: Spieldokument als JSON auf stdout, Logs auf stderr.
func main() {
	if len(os.Args) < 2 || strings.TrimSpace(os.Args[1]) == "" {
		fmt.Fprintln(os.Stderr, "Usage: extract <player_id>")
		os.Exit(1)
	}
	playerID := strings.TrimSpace(os.Args[1])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if err := run(cfg, logger, playerID); err != nil {
		logger.Error("Extraktion fehlgeschlagen", zap.String("player_id", playerID), zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, playerID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := browser.Launch(cfg, logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer b.Close()

	doc, report, err := scraper.NewExtractor(b, scraper.OptionsFromConfig(cfg), logger).Extract(ctx, playerID)
	if err != nil {
		return err
	}
	logger.Info("Extraktion abgeschlossen",
		zap.Int("games", report.Games),
		zap.Int("units", len(report.Units)),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
