package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"chess-scout/config"
	"chess-scout/importer"
	"chess-scout/llm"
	"chess-scout/logging"
)

// getimport <text>: extrahiert Spieler aus Freitext und gibt das Ergebnis als JSON aus.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	if len(args) < 1 {
		writeJSON(stdout, importer.Failure("Usage: getimport <text>"))
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		writeJSON(stdout, importer.Failure(fmt.Sprintf("config load error: %v", err)))
		return 1
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	imp := importer.NewImporter(llm.NewClient(cfg, logger), logger)
	writeJSON(stdout, imp.Import(context.Background(), args[0]))
	return 0
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
