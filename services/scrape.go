package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chess-scout/config"
	"chess-scout/models"
	"chess-scout/scraper"
	"chess-scout/storage"
)

// ErrAlreadyRunning bedeutet, dass für den Spieler bereits ein Lauf aktiv ist.
var ErrAlreadyRunning = errors.New("scrape already running for player")

// GamesExtractor liefert das Spieldokument eines Spielers.
type GamesExtractor interface {
	Extract(ctx context.Context, playerID string) (models.GamesDocument, scraper.Report, error)
}

// SnapshotStore speichert Snapshots und Importläufe.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *models.GamesSnapshot) error
	LatestSnapshot(ctx context.Context, playerID string) (*models.GamesSnapshot, error)
	ListSnapshots(ctx context.Context, playerID string, limit int) ([]models.GamesSnapshot, error)
	SaveImportRun(ctx context.Context, run *models.ImportRun) error
}

// DocumentPublisher veröffentlicht JSON-Dokumente.
type DocumentPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) (string, error)
}

// ScrapeService führt Scrape-Läufe aus, speichert und veröffentlicht die Ergebnisse.
// Store und Publisher sind optional.
type ScrapeService struct {
	Config    *config.Config
	Extractor GamesExtractor
	Store     SnapshotStore
	Publisher DocumentPublisher
	Logger    *zap.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewScrapeService erstellt eine neue Instanz des ScrapeService.
func NewScrapeService(cfg *config.Config, extractor GamesExtractor, store SnapshotStore, publisher DocumentPublisher, logger *zap.Logger) *ScrapeService {
	return &ScrapeService{
		Config:    cfg,
		Extractor: extractor,
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		running:   make(map[string]bool),
	}
}

func (s *ScrapeService) acquire(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[playerID] {
		return false
	}
	s.running[playerID] = true
	return true
}

func (s *ScrapeService) release(playerID string) {
	s.mu.Lock()
	delete(s.running, playerID)
	s.mu.Unlock()
}

// RunForPlayer scrapt einen Spieler und legt das Ergebnis als Snapshot ab.
func (s *ScrapeService) RunForPlayer(ctx context.Context, playerID string) (*models.GamesSnapshot, error) {
	if !s.acquire(playerID) {
		return nil, ErrAlreadyRunning
	}
	defer s.release(playerID)
	return s.run(ctx, playerID)
}

func (s *ScrapeService) run(ctx context.Context, playerID string) (*models.GamesSnapshot, error) {
	log := s.Logger.With(zap.String("player_id", playerID))
	doc, report, err := s.Extractor.Extract(ctx, playerID)
	if err != nil {
		scrapeUnitsCounter.WithLabelValues("fatal").Inc()
		return nil, err
	}
	recordReport(report)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode games document: %w", err)
	}
	snap := &models.GamesSnapshot{
		RunID:        uuid.NewString(),
		PlayerID:     playerID,
		PlayerName:   doc.Player.Name,
		Rating:       doc.Player.Rating,
		Mode:         string(report.Mode),
		GameCount:    len(doc.Games),
		UnitsTotal:   len(report.Units),
		UnitsSkipped: report.Skipped,
		Document:     data,
	}

	if s.Publisher != nil {
		link, err := s.Publisher.PublishJSON(ctx, storage.GamesKey(playerID), doc)
		if err != nil {
			log.Warn("Veröffentlichung fehlgeschlagen", zap.Error(err))
		} else {
			snap.S3Link = link
		}
	}
	if s.Store != nil {
		if err := s.Store.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}

	log.Info("Scrape abgeschlossen",
		zap.String("run_id", snap.RunID),
		zap.Int("games", snap.GameCount),
		zap.Int("skipped_units", snap.UnitsSkipped),
		zap.Duration("duration", report.Duration))
	return snap, nil
}

// Start führt RunForPlayer im Hintergrund aus. Läuft für den Spieler bereits ein
// Scrape, wird ErrAlreadyRunning zurückgegeben.
func (s *ScrapeService) Start(playerID string) error {
	if !s.acquire(playerID) {
		return ErrAlreadyRunning
	}
	go func() {
		defer s.release(playerID)
		if _, err := s.run(context.Background(), playerID); err != nil {
			s.Logger.Error("Hintergrund-Scrape fehlgeschlagen", zap.String("player_id", playerID), zap.Error(err))
		}
	}()
	return nil
}

// RunTracked scrapt nacheinander alle konfigurierten Spieler. Fehler einzelner Spieler
// brechen den Lauf nicht ab.
func (s *ScrapeService) RunTracked(ctx context.Context) (int, error) {
	ids := s.Config.Tracked()
	if len(ids) == 0 {
		return 0, nil
	}

	total, failed := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		snap, err := s.RunForPlayer(ctx, id)
		if err != nil {
			failed++
			s.Logger.Error("Scrape für Spieler fehlgeschlagen", zap.String("player_id", id), zap.Error(err))
			continue
		}
		total += snap.GameCount
	}
	if failed == len(ids) {
		return total, fmt.Errorf("all %d tracked players failed", failed)
	}
	return total, nil
}

func recordReport(r scraper.Report) {
	gamesExtractedCounter.Add(float64(r.Games))
	scrapeDuration.Observe(r.Duration.Seconds())
	for _, u := range r.Units {
		outcome := "ok"
		if u.Skip != scraper.SkipNone {
			outcome = string(u.Skip)
		}
		scrapeUnitsCounter.WithLabelValues(outcome).Inc()
	}
}
