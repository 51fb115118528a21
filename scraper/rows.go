package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"chess-scout/models"
)

// TournamentMeta wird in jede Partie eines Turniers übernommen.
type TournamentMeta struct {
	Name         string
	URL          string
	Date         string
	Year         string
	PlayerRating *int
}

var (
	isoDate   = regexp.MustCompile(`\b((?:19|20)\d{2})-(\d{2})-(\d{2})\b`)
	yearToken = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Ergebnisse, die in Partientabellen Kopfzeilen markieren.
var headerSentinels = map[string]bool{"Result": true, "Year": true, "": true}

// ParseColorGlyph bildet das Farbsymbol einer Rundenzelle ab.
func ParseColorGlyph(s string) models.Color {
	switch strings.TrimSpace(strings.ReplaceAll(s, "\uFE0F", "")) {
	case "\u26AA":
		return models.White
	case "\u26AB":
		return models.Black
	}
	return models.UnknownColor
}

// ParseColorCode bildet den Farbcode einer Partientabelle ab ("W"/"B" als Teilstring).
func ParseColorCode(s string) models.Color {
	s = strings.ToUpper(s)
	switch {
	case strings.Contains(s, "W"):
		return models.White
	case strings.Contains(s, "B"):
		return models.Black
	}
	return models.UnknownColor
}

// RoundCells liefert die Rundenzellen einer Spielerzeile: ohne die drei
// Identitätsspalten und ohne die abschließende Summenspalte.
func RoundCells(row *goquery.Selection) []*goquery.Selection {
	tds := cells(row)
	switch {
	case len(tds) > 4:
		return tds[3 : len(tds)-1]
	case len(tds) == 4:
		return tds[3:]
	}
	return nil
}

// ExtractRoundCells erzeugt aus der Spielerzeile eine Partie pro gespielter Runde.
func ExtractRoundCells(row *goquery.Selection, opponents map[string]models.Opponent, meta TournamentMeta, opts Options) []models.GameRecord {
	var games []models.GameRecord
	for i, cell := range RoundCells(row) {
		var (
			game models.GameRecord
			ok   bool
		)
		if !safely(func() { game, ok = extractRoundCell(cell, i+1, opponents, meta, opts) }) || !ok {
			continue
		}
		games = append(games, game)
	}
	return games
}

func extractRoundCell(cell *goquery.Selection, round int, opponents map[string]models.Opponent, meta TournamentMeta, opts Options) (models.GameRecord, bool) {
	grid := cell.Find(opts.Selectors.PairingGrid).First()
	if grid.Length() == 0 {
		return models.GameRecord{}, false
	}
	gridRows := childDivs(grid)
	if len(gridRows) == 0 {
		return models.GameRecord{}, false
	}

	top := childDivs(gridRows[0])
	if len(top) == 0 {
		return models.GameRecord{}, false
	}
	result := cleanText(top[0])
	if result == "" {
		return models.GameRecord{}, false
	}
	var pairing string
	if len(top) > 1 {
		pairing = cleanText(top[1])
	}

	color := models.UnknownColor
	if len(gridRows) > 1 {
		glyph := gridRows[1]
		if bottom := childDivs(glyph); len(bottom) > 0 {
			glyph = bottom[0]
		}
		color = ParseColorGlyph(glyph.Text())
	}

	opp, found := opponents[pairing]
	if !found {
		opp = models.UnknownOpponent()
	}

	return models.GameRecord{
		TournamentName:        meta.Name,
		TournamentURL:         meta.URL,
		Round:                 models.IntPtr(round),
		Result:                result,
		Color:                 color,
		OpponentPairingNumber: pairing,
		Opponent:              opp,
		PlayerRating:          meta.PlayerRating,
		Date:                  meta.Date,
		Year:                  meta.Year,
	}, true
}

// ExtractYearRow liest eine Zeile der Partientabelle eines Jahres. Spalten: Ergebnis,
// Farbe, (ungenutzt), Gegner, Datum, Turnier.
func ExtractYearRow(row *goquery.Selection, year string, opts Options) (models.GameRecord, bool) {
	tds := cells(row)
	if len(tds) < 6 {
		return models.GameRecord{}, false
	}
	result := cleanText(tds[0])
	if headerSentinels[result] {
		return models.GameRecord{}, false
	}

	opp := models.UnknownOpponent()
	oppCell := tds[3]
	link := oppCell.Find("a[href]").First()
	if href, ok := link.Attr("href"); ok {
		opp.ID = models.StringPtr(hrefTail(href))
	}
	if name, ok := firstText(oppCell.Find(opts.Selectors.NameContainer)); ok && name != "" {
		opp.Name = name
	} else if name := cleanText(link); name != "" {
		opp.Name = name
	} else if name := cleanText(oppCell); name != "" {
		opp.Name = name
	}
	if opts.ExtractRatings {
		exclude := ""
		if opp.ID != nil {
			exclude = *opp.ID
		}
		opp.Rating = FirstPlausibleRating(cleanText(oppCell), exclude)
	}

	game := models.GameRecord{
		Result:   result,
		Color:    ParseColorCode(cleanText(tds[1])),
		Opponent: opp,
		Date:     cleanText(tds[4]),
		Year:     year,
	}

	tourCell := tds[5]
	game.TournamentName = cleanText(tourCell)
	if href, ok := tourCell.Find("a[href]").First().Attr("href"); ok {
		game.TournamentURL = absoluteURL(opts.BaseURL, href)
	}
	if game.Year == "" {
		game.Year = yearToken.FindString(game.Date)
	}
	return game, true
}

// EventDate sucht das Startdatum eines Turniers im Seitenkopf.
func EventDate(doc *goquery.Document) string {
	if dt, ok := firstAttr(doc.Find("time[datetime]"), "datetime"); ok {
		if m := isoDate.FindString(dt); m != "" {
			return m
		}
	}
	var date string
	doc.Find("h1, h2, header, time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		date = isoDate.FindString(s.Text())
		return date == ""
	})
	return date
}
