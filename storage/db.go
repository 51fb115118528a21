package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chess-scout/config"
	"chess-scout/models"
)

// ErrNotFound bedeutet, dass für den Spieler noch kein Snapshot gespeichert ist.
var ErrNotFound = errors.New("no snapshot stored")

// Open verbindet sich mit Postgres und migriert die Tabellen.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Datenbankverbindung hergestellt.")

	log.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.GamesSnapshot{}, &models.ImportRun{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

// Repository kapselt die Zugriffe auf Snapshots und Importläufe.
type Repository struct {
	DB *gorm.DB
}

// NewRepository erstellt ein Repository auf der gegebenen Verbindung.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// SaveSnapshot legt einen neuen Snapshot an.
func (r *Repository) SaveSnapshot(ctx context.Context, s *models.GamesSnapshot) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// LatestSnapshot liefert den jüngsten Snapshot eines Spielers inklusive Dokument.
func (r *Repository) LatestSnapshot(ctx context.Context, playerID string) (*models.GamesSnapshot, error) {
	var s models.GamesSnapshot
	err := r.DB.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC, id DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots listet die Snapshots eines Spielers ohne Dokumentinhalt, neueste zuerst.
func (r *Repository) ListSnapshots(ctx context.Context, playerID string, limit int) ([]models.GamesSnapshot, error) {
	var snaps []models.GamesSnapshot
	q := r.DB.WithContext(ctx).
		Omit("document").
		Where("player_id = ?", playerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

// SaveImportRun protokolliert einen Importlauf.
func (r *Repository) SaveImportRun(ctx context.Context, run *models.ImportRun) error {
	return r.DB.WithContext(ctx).Create(run).Error
}
