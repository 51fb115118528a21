package scraper

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"chess-scout/models"
)

// GameDate leitet den Sortierschlüssel einer Partie ab: zuerst "YYYY-MM-DD", dann nur
// das Jahr, sonst die Unix-Epoche.
func GameDate(g models.GameRecord) time.Time {
	date := strings.TrimSpace(g.Date)
	if len(date) >= 10 {
		if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return t
		}
	}
	year := strings.TrimSpace(g.Year)
	if year == "" {
		year = yearToken.FindString(date)
	}
	if y, err := strconv.Atoi(year); err == nil && y > 0 {
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Unix(0, 0).UTC()
}

// SortGamesByDateDesc sortiert stabil, neueste Partie zuerst.
func SortGamesByDateDesc(games []models.GameRecord) {
	sort.SliceStable(games, func(i, j int) bool {
		return GameDate(games[i]).After(GameDate(games[j]))
	})
}

// Assemble verpackt die Partien mit den Spielerdaten in das Ausgabedokument.
func Assemble(profile models.PlayerProfile, games []models.GameRecord, sortByDate bool) models.GamesDocument {
	out := make([]models.GameRecord, len(games))
	copy(out, games)
	if sortByDate {
		SortGamesByDateDesc(out)
	}
	return models.GamesDocument{Player: profile, Games: models.NumberedGames(out)}
}
