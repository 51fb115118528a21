package models

import (
	"time"

	"gorm.io/datatypes"
)

// GamesSnapshot speichert ein veröffentlichtes GamesDocument eines Scrape-Laufs.
type GamesSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	RunID      string `json:"run_id" gorm:"uniqueIndex;size:36;not null"`
	PlayerID   string `json:"player_id" gorm:"index;not null"`
	PlayerName string `json:"player_name"`
	Rating     *int   `json:"rating,omitempty"`
	Mode       string `json:"mode"`

	GameCount    int `json:"game_count"`
	UnitsTotal   int `json:"units_total"`
	UnitsSkipped int `json:"units_skipped"`

	Document datatypes.JSON `json:"document,omitempty" gorm:"type:jsonb"`
	S3Link   string         `json:"s3_link,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (GamesSnapshot) TableName() string {
	return "games_snapshots"
}

// ImportRun protokolliert einen Text-Import inklusive Ergebnisdokument.
type ImportRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	RunID             string         `json:"run_id" gorm:"uniqueIndex;size:36;not null"`
	Success           bool           `json:"success" gorm:"index"`
	PlayerCount       int            `json:"player_count"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	TextLength        int            `json:"text_length"`
	Error             string         `json:"error,omitempty" gorm:"type:text"`
	Result            datatypes.JSON `json:"result,omitempty" gorm:"type:jsonb"`
	S3Link            string         `json:"s3_link,omitempty"`
}

func (ImportRun) TableName() string { return "import_runs" }
