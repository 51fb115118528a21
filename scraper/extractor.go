package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"chess-scout/models"
)

var (
	// ErrNoUnits bedeutet, dass auf der Spielerseite weder Turniere noch Jahre gefunden wurden.
	ErrNoUnits = errors.New("no tournaments or years found for player")
	// ErrPlayerNotFound bedeutet, dass der Spieler in einer Turniertabelle fehlt.
	ErrPlayerNotFound = errors.New("player not found in standings")
)

// UnitOutcome fasst das Ergebnis einer Einheit für Logs, Metriken und die API zusammen.
type UnitOutcome struct {
	Unit  string     `json:"unit"`
	Games int        `json:"games"`
	Skip  SkipReason `json:"skip,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Report beschreibt einen Extraktionslauf.
type Report struct {
	PlayerID string        `json:"player_id"`
	Mode     Mode          `json:"mode"`
	Units    []UnitOutcome `json:"units"`
	Games    int           `json:"games"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Extractor ist der parametrisierte Scraper für beide Modi.
type Extractor struct {
	Browser Browser
	Options Options
	Logger  *zap.Logger
}

// NewExtractor erstellt einen neuen Extractor.
func NewExtractor(browser Browser, opts Options, logger *zap.Logger) *Extractor {
	return &Extractor{Browser: browser, Options: opts, Logger: logger}
}

// Extract lädt die Spielerseite, verteilt die Einheiten auf Worker und baut das
// Ausgabedokument. Ein Fehler wird nur zurückgegeben, wenn die Spielerseite selbst
// nicht ausgewertet werden kann.
func (e *Extractor) Extract(ctx context.Context, playerID string) (models.GamesDocument, Report, error) {
	start := time.Now()
	src := newUnitSource(e.Options, e.Logger)
	log := e.Logger.With(zap.String("player_id", playerID), zap.String("mode", string(src.Name())))
	report := Report{PlayerID: playerID, Mode: src.Name()}

	profile, units, err := e.loadPlayerPage(ctx, src, playerID)
	if err != nil {
		log.Error("Spielerseite konnte nicht ausgewertet werden", zap.Error(err))
		return models.GamesDocument{}, report, err
	}
	log.Info("Einheiten gefunden", zap.Int("units", len(units)), zap.String("name", profile.Name))

	results := Dispatch(ctx, units, src.DispatchOptions(), log, func(ctx context.Context, u Unit) UnitResult {
		return e.runUnit(ctx, src, playerID, u, log)
	})
	sort.Slice(results, func(i, j int) bool { return results[i].Unit.Index < results[j].Unit.Index })

	var games []models.GameRecord
	for _, r := range results {
		outcome := UnitOutcome{Unit: r.Unit.Key, Games: len(r.Games), Skip: r.Skip}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		report.Units = append(report.Units, outcome)
		if r.Skipped() {
			report.Skipped++
			continue
		}
		games = append(games, r.Games...)
		if profile.Name == "" && r.PlayerName != "" {
			profile.Name = r.PlayerName
		}
		if profile.Rating == nil && r.PlayerRating != nil {
			profile.Rating = r.PlayerRating
		}
	}

	doc := Assemble(profile, games, true)
	report.Games = len(doc.Games)
	report.Duration = time.Since(start)
	log.Info("Extraktion abgeschlossen",
		zap.Int("games", report.Games),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration))
	return doc, report, nil
}

func (e *Extractor) loadPlayerPage(ctx context.Context, src UnitSource, playerID string) (models.PlayerProfile, []Unit, error) {
	profile := models.PlayerProfile{ID: playerID}
	o := e.Options

	s, err := e.Browser.NewSession(ctx)
	if err != nil {
		return profile, nil, fmt.Errorf("open browser session: %w", err)
	}
	defer s.Close()

	if err := s.Goto(ctx, o.playerURL(playerID), o.NavTimeout); err != nil {
		return profile, nil, fmt.Errorf("load player page: %w", err)
	}
	if err := s.WaitFor(ctx, src.ReadySelector(), o.SelectorTimeout); err != nil {
		return profile, nil, fmt.Errorf("%w: %v", ErrNoUnits, err)
	}
	doc, err := snapshot(ctx, s)
	if err != nil {
		return profile, nil, fmt.Errorf("read player page: %w", err)
	}

	profile = readProfile(doc, playerID, o)
	units := src.Units(doc, playerID)
	if len(units) == 0 {
		return profile, nil, ErrNoUnits
	}
	return profile, units, nil
}

func (e *Extractor) runUnit(ctx context.Context, src UnitSource, playerID string, u Unit, log *zap.Logger) UnitResult {
	s, err := e.Browser.NewSession(ctx)
	if err != nil {
		return skipped(u, SkipSession, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Debug("Sitzung konnte nicht geschlossen werden", zap.String("unit", u.Key), zap.Error(err))
		}
	}()
	return src.Extract(ctx, s, playerID, u)
}

// readProfile liest Name und Rating von der Spielerseite.
func readProfile(doc *goquery.Document, playerID string, o Options) models.PlayerProfile {
	profile := models.PlayerProfile{ID: playerID}
	heading := doc.Find(o.Selectors.PlayerName).First()
	profile.Name, _ = firstText(heading)
	if !o.ExtractRatings {
		return profile
	}
	if profile.Rating = RatingFromLabels(cleanText(doc.Find("body"))); profile.Rating != nil {
		return profile
	}
	// Unbeschriftet: Geschwister der Überschrift als Spalten, die Überschrift ist Spalte 0.
	region := heading.Parent()
	if region.Length() == 0 {
		return profile
	}
	profile.Rating = ResolveRating(cleanText(region), childTexts(region), profileRatingColumns, playerID)
	return profile
}
