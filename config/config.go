package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	RatingsBaseURL string `envconfig:"RATINGS_BASE_URL" default:"https://ratings.uschess.org"`

	// Scraper-Konfiguration (ersetzt die alten Skript-Varianten)
	ScrapeMode           string        `envconfig:"SCRAPE_MODE" default:"tournament"`
	MaxTournaments       int           `envconfig:"SCRAPE_MAX_TOURNAMENTS" default:"10"`
	TournamentWorkers    int           `envconfig:"SCRAPE_TOURNAMENT_WORKERS" default:"5"`
	YearWorkers          int           `envconfig:"SCRAPE_YEAR_WORKERS" default:"2"`
	YearStagger          time.Duration `envconfig:"SCRAPE_YEAR_STAGGER" default:"2s"`
	ExtractRatings       bool          `envconfig:"SCRAPE_EXTRACT_RATINGS" default:"true"`
	Paginate             bool          `envconfig:"SCRAPE_PAGINATION" default:"true"`
	LoadMoreMax          int           `envconfig:"SCRAPE_LOAD_MORE_MAX" default:"50"`
	LoadMoreSettle       time.Duration `envconfig:"SCRAPE_LOAD_MORE_SETTLE" default:"750ms"`
	NavTimeout           time.Duration `envconfig:"NAV_TIMEOUT" default:"30s"`
	UnitNavTimeout       time.Duration `envconfig:"UNIT_NAV_TIMEOUT" default:"20s"`
	SelectorTimeout      time.Duration `envconfig:"SELECTOR_TIMEOUT" default:"10s"`
	UnitSelectorTimeout  time.Duration `envconfig:"UNIT_SELECTOR_TIMEOUT" default:"5s"`
	BrowserHeadless      bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	BrowserExecutable    string        `envconfig:"BROWSER_EXECUTABLE_PATH"`
	BrowserInstall       bool          `envconfig:"BROWSER_INSTALL" default:"false"`
	MultiExtractTimeout  time.Duration `envconfig:"MULTI_EXTRACT_TIMEOUT" default:"300s"`
	MultiExtractWorkers  int           `envconfig:"MULTI_EXTRACT_WORKERS" default:"10"`
	OutputDir            string        `envconfig:"OUTPUT_DIR" default:"outputs"`
	ExtractBinary        string        `envconfig:"EXTRACT_BINARY" default:"extract"`

	// Ollama für den Text-Import
	OllamaURL     string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434/api/chat"`
	OllamaModel   string        `envconfig:"OLLAMA_MODEL" default:"llama3.1:8b"`
	OllamaTimeout time.Duration `envconfig:"OLLAMA_TIMEOUT" default:"300s"`

	// GitHub Actions (Remote-Trigger)
	GitHubToken          string        `envconfig:"GITHUB_TOKEN"`
	GitHubAPIURL         string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	GitHubOwner          string        `envconfig:"GITHUB_OWNER" default:"chughjug"`
	GitHubRepo           string        `envconfig:"GITHUB_REPO" default:"msm"`
	GitHubRef            string        `envconfig:"GITHUB_REF" default:"main"`
	ScrapeWorkflow       string        `envconfig:"GITHUB_SCRAPE_WORKFLOW" default:"run_chess_scraper.yml"`
	ImportWorkflow       string        `envconfig:"GITHUB_IMPORT_WORKFLOW" default:"run_getimport.yml"`
	ImportArtifact       string        `envconfig:"GITHUB_IMPORT_ARTIFACT" default:"extracted-players"`
	WorkflowPollInterval time.Duration `envconfig:"WORKFLOW_POLL_INTERVAL" default:"5s"`
	WorkflowMaxWait      time.Duration `envconfig:"WORKFLOW_MAX_WAIT" default:"600s"`
	WorkflowStartDelay   time.Duration `envconfig:"WORKFLOW_START_DELAY" default:"3s"`

	// Server
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	HTTPPort       string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey   string `envconfig:"API_SECRET_KEY"`
	CronSchedule   string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	TrackedPlayers string `envconfig:"TRACKED_PLAYERS"`

	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	// Backup der Snapshot-Datenbank
	BackupPrefix string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	KeepBackups  int    `envconfig:"KEEP_BACKUPS" default:"4"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Tracked gibt die Liste der regelmäßig neu zu scrapenden Spieler-IDs zurück.
func (c *Config) Tracked() []string {
	return SplitIDs(c.TrackedPlayers)
}

// PersistenceEnabled meldet, ob eine Datenbank konfiguriert ist.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// PublishingEnabled meldet, ob Dokumente nach S3 veröffentlicht werden.
func (c *Config) PublishingEnabled() bool {
	return c.S3Bucket != "" && c.S3URL != ""
}

// SplitIDs zerlegt eine komma-separierte ID-Liste, leere Einträge fallen weg.
func SplitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
