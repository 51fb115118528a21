package scraper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess-scout/models"
)

func TestGameDateFallbacks(t *testing.T) {
	assert.Equal(t, time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC), GameDate(models.GameRecord{Date: "2024-04-12"}))
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), GameDate(models.GameRecord{Date: "April 2021", Year: "2021"}))
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), GameDate(models.GameRecord{Date: "Mar 3, 2019"}))
	assert.Equal(t, time.Unix(0, 0).UTC(), GameDate(models.GameRecord{Date: "tbd"}))
}

func TestAssembleSortsAndNumbers(t *testing.T) {
	games := []models.GameRecord{
		{TournamentName: "old", Date: "2022-05-01"},
		{TournamentName: "undated"},
		{TournamentName: "new r1", Date: "2024-01-10", Round: models.IntPtr(1)},
		{TournamentName: "new r2", Date: "2024-01-10", Round: models.IntPtr(2)},
		{TournamentName: "year only", Year: "2023"},
	}
	doc := Assemble(models.PlayerProfile{ID: "1", Name: "X"}, games, true)

	var names []string
	for _, g := range doc.Games {
		names = append(names, g.TournamentName)
	}
	assert.Equal(t, []string{"new r1", "new r2", "year only", "old", "undated"}, names)
	assert.Equal(t, "old", games[0].TournamentName, "input is not reordered")

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw["games"], 5)
	assert.Contains(t, raw["games"], "1")
	assert.Contains(t, raw["games"], "5")
}
