package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chess-scout/importer"
	"chess-scout/models"
	"chess-scout/storage"
)

// TextImporter wandelt Freitext in Spielerdatensätze um.
type TextImporter interface {
	Import(ctx context.Context, text string) importer.Result
}

// ImportService führt Text-Importe aus und protokolliert sie.
type ImportService struct {
	Importer  TextImporter
	Store     SnapshotStore
	Publisher DocumentPublisher
	Logger    *zap.Logger
}

// NewImportService erstellt eine neue Instanz des ImportService.
func NewImportService(imp TextImporter, store SnapshotStore, publisher DocumentPublisher, logger *zap.Logger) *ImportService {
	return &ImportService{Importer: imp, Store: store, Publisher: publisher, Logger: logger}
}

// Run importiert text. Das Ergebnis entspricht dem der CLI; Speicher- und
// Upload-Fehler werden nur geloggt.
func (s *ImportService) Run(ctx context.Context, text string) (string, importer.Result) {
	runID := uuid.NewString()
	log := s.Logger.With(zap.String("run_id", runID))

	res := s.Importer.Import(ctx, text)
	run := &models.ImportRun{
		RunID:      runID,
		Success:    res.Success,
		TextLength: len(text),
		Error:      res.Error,
	}
	if res.Success {
		playerImportsCounter.WithLabelValues("success").Inc()
		run.PlayerCount = res.Data.Count
		run.DuplicatesRemoved = res.Data.DuplicatesRemoved
	} else {
		playerImportsCounter.WithLabelValues("failure").Inc()
	}

	if data, err := json.Marshal(res); err == nil {
		run.Result = data
	}
	if s.Publisher != nil && res.Success {
		link, err := s.Publisher.PublishJSON(ctx, storage.ImportKey(runID), res)
		if err != nil {
			log.Warn("Veröffentlichung fehlgeschlagen", zap.Error(err))
		} else {
			run.S3Link = link
		}
	}
	if s.Store != nil {
		if err := s.Store.SaveImportRun(ctx, run); err != nil {
			log.Error("Importlauf konnte nicht gespeichert werden", zap.Error(err))
		}
	}

	log.Info("Import abgeschlossen", zap.Bool("success", res.Success), zap.Int("players", run.PlayerCount))
	return runID, res
}
