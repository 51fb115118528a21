package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chess-scout/llm"
	"chess-scout/models"
)

// Chatter ist der Teil des LLM-Clients, den der Import braucht.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Data ist der Nutzteil eines erfolgreichen Imports.
type Data struct {
	Players           []models.ExtractedPlayer `json:"players"`
	Count             int                      `json:"count"`
	DuplicatesRemoved int                      `json:"duplicatesRemoved,omitempty"`
	Message           string                   `json:"message,omitempty"`
}

// Result ist das JSON-Ergebnis des Imports, identisch für CLI und API.
type Result struct {
	Success bool   `json:"success"`
	Data    *Data  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure baut ein fehlgeschlagenes Ergebnis.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Importer extrahiert Spieler aus Freitext über ein Sprachmodell.
type Importer struct {
	LLM    Chatter
	Logger *zap.Logger
}

// NewImporter erstellt einen neuen Importer.
func NewImporter(chat Chatter, logger *zap.Logger) *Importer {
	return &Importer{LLM: chat, Logger: logger}
}

// Import führt den kompletten Ablauf aus. Fehler landen immer im Result, nie als panic.
func (i *Importer) Import(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Failure("No input text provided")
	}
	log := i.Logger.With(zap.Int("text_length", len(text)))

	out, err := i.LLM.Chat(ctx, SystemPrompt, UserPrompt(text))
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		log.Error("Ollama nicht erreichbar", zap.Error(err))
		return Failure("Could not connect to Ollama. Is it running?")
	case errors.Is(err, llm.ErrTimeout):
		log.Error("Ollama Timeout", zap.Error(err))
		return Failure("Ollama request timed out")
	case err != nil:
		log.Error("Ollama-Anfrage fehlgeschlagen", zap.Error(err))
		return Failure(err.Error())
	}

	data, err := Process(out)
	if err != nil {
		log.Warn("Modellausgabe konnte nicht verarbeitet werden", zap.Error(err))
		return Failure(err.Error())
	}
	log.Info("Spieler extrahiert", zap.Int("players", data.Count), zap.Int("duplicates_removed", data.DuplicatesRemoved))
	return Result{Success: true, Data: data}
}

// Process wandelt eine rohe Modellausgabe in validierte, deduplizierte Spieler.
// DuplicatesRemoved zählt alle verworfenen Einträge des Arrays.
func Process(raw string) (*Data, error) {
	records, err := RecoverArray(raw)
	if err != nil {
		return nil, err
	}
	players := Dedupe(NormalizePlayers(records))

	data := &Data{Players: players, Count: len(players)}
	if removed := len(records) - len(players); removed > 0 {
		data.DuplicatesRemoved = removed
		data.Message = fmt.Sprintf("Extracted %d unique players (removed %d duplicates)", len(players), removed)
	}
	return data, nil
}
