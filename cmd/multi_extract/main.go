package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chess-scout/config"
	"chess-scout/logging"
)

// runner führt die Extraktion für eine ID aus und liefert stdout und stderr.
type runner func(ctx context.Context, playerID string) (stdout, stderr []byte, err error)

type outcome struct {
	PlayerID string `json:"player_id"`
	Success  bool   `json:"success"`
	File     string `json:"file"`
}

// multi_extract <id1,id2,...>: ein extract-Prozess pro ID, Ergebnisse unter OUTPUT_DIR.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: multi_extract <id1,id2,...>")
		os.Exit(1)
	}
	ids := config.SplitIDs(os.Args[1])
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no player ids given")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	logger.Info("Verarbeite Spieler parallel", zap.Strings("ids", ids))
	results, err := runAll(context.Background(), ids, cfg.MultiExtractWorkers, cfg.OutputDir,
		execRunner(cfg.ExtractBinary, cfg.MultiExtractTimeout), logger)
	if err != nil {
		logger.Fatal("Ausgabe konnte nicht geschrieben werden", zap.Error(err))
	}
	summary, err := writeSummary(cfg.OutputDir)
	if err != nil {
		logger.Fatal("Zusammenfassung fehlgeschlagen", zap.Error(err))
	}

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	logger.Info("Fertig",
		zap.Int("successful", ok),
		zap.Int("failed", len(results)-ok),
		zap.String("summary", summary))
}

func execRunner(binary string, timeout time.Duration) runner {
	return func(ctx context.Context, playerID string) ([]byte, []byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, binary, playerID)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timeout after %s", timeout)
		}
		return stdout.Bytes(), stderr.Bytes(), err
	}
}

// runAll verarbeitet alle IDs mit höchstens min(workers, len(ids)) parallelen Prozessen.
// Fehler einzelner Prozesse landen als Fehler-JSON in der jeweiligen Datei.
func runAll(ctx context.Context, ids []string, workers int, dir string, run runner, logger *zap.Logger) ([]outcome, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	results := make([]outcome, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, len(ids)))
	for i, id := range ids {
		if !safeID(id) {
			logger.Warn("Ungültige Spieler-ID übersprungen", zap.String("player_id", id))
			results[i] = outcome{PlayerID: id}
			continue
		}
		g.Go(func() error {
			file := filepath.Join(dir, fmt.Sprintf("chess-games-%s.json", id))
			stdout, stderr, err := run(ctx, id)

			data := stdout
			if err != nil {
				logger.Warn("Extraktion fehlgeschlagen", zap.String("player_id", id), zap.Error(err))
				data, _ = json.MarshalIndent(map[string]string{
					"error":     fmt.Sprintf("Failed to scrape games for player ID %s: %v", id, err),
					"player_id": id,
					"stderr":    string(stderr),
				}, "", "  ")
			} else {
				logger.Info("Abgeschlossen", zap.String("player_id", id))
			}
			if werr := os.WriteFile(file, data, 0o644); werr != nil {
				return werr
			}
			results[i] = outcome{PlayerID: id, Success: err == nil, File: file}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// safeID lässt nur IDs zu, die als Teil eines Dateinamens im Ausgabeverzeichnis bleiben.
func safeID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

// writeSummary fasst alle chess-games-*.json im Verzeichnis unter ihrer ID zusammen.
// Ungültiges JSON wird als raw_output übernommen.
func writeSummary(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if n := e.Name(); !e.IsDir() && strings.HasPrefix(n, "chess-games-") && strings.HasSuffix(n, ".json") {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	summary := make(map[string]any, len(names))
	for _, n := range names {
		id := strings.TrimSuffix(strings.TrimPrefix(n, "chess-games-"), ".json")
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			summary[id] = map[string]string{"error": fmt.Sprintf("Failed to read file: %v", err)}
			continue
		}
		content := bytes.TrimSpace(data)
		if json.Valid(content) {
			summary[id] = json.RawMessage(content)
		} else {
			summary[id] = map[string]string{"raw_output": string(content)}
		}
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	path := filepath.Join(dir, "summary.json")
	return path, os.WriteFile(path, out, 0o644)
}
