package scraper

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"chess-scout/models"
)

// ResolveOpponents baut aus allen Standings-Zeilen einer Turnierseite die Zuordnung
// Paarungsnummer -> Gegner. Zeilen ohne Paarungsnummer oder mit unerwartetem
// Aufbau tragen nichts bei.
func ResolveOpponents(doc *goquery.Document, opts Options, logger *zap.Logger) map[string]models.Opponent {
	opponents := make(map[string]models.Opponent)
	skipped := 0

	rowsWithClass(doc.Selection, opts.Selectors.StandingsRow).Each(func(_ int, row *goquery.Selection) {
		var (
			pairing string
			opp     models.Opponent
		)
		ok := safely(func() {
			pairing, opp = resolveOpponentRow(row, opts)
		})
		if !ok {
			skipped++
			return
		}
		if pairing == "" {
			return
		}
		opponents[pairing] = opp
	})

	if skipped > 0 {
		logger.Debug("Standings-Zeilen übersprungen", zap.Int("rows", skipped))
	}
	return opponents
}

func resolveOpponentRow(row *goquery.Selection, opts Options) (string, models.Opponent) {
	pairing := pairingNumber(row, opts.Selectors.PairingGrid)
	if pairing == "" {
		return "", models.Opponent{}
	}

	opp := models.UnknownOpponent()
	if name, ok := firstText(row.Find(opts.Selectors.NameContainer)); ok && name != "" {
		opp.Name = name
	}
	if href, ok := firstAttr(row.Find(opts.Selectors.PlayerLinks), "href"); ok {
		opp.ID = models.StringPtr(hrefTail(href))
	}
	if opts.ExtractRatings {
		opp.Rating = RowRating(cleanText(row), cellTexts(cells(row)), pairing)
	}
	return pairing, opp
}

// pairingNumber liest die Paarungsnummer aus dem verschachtelten Grid der ersten Zelle.
func pairingNumber(row *goquery.Selection, gridSelector string) string {
	first := row.ChildrenFiltered("td").First()
	if first.Length() == 0 {
		return ""
	}
	grid := first.Find(gridSelector).First()
	if grid.Length() == 0 {
		return ""
	}
	leaf := grid.Find("div").First().Find("div").First()
	if leaf.Length() == 0 {
		return ""
	}
	return cleanText(leaf)
}

// FindPlayerRow sucht die Standings-Zeile, die auf den Spieler verlinkt.
func FindPlayerRow(doc *goquery.Document, playerID string, opts Options) (*goquery.Selection, bool) {
	link := doc.Find(opts.Selectors.PlayerLinks).FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		return hrefTail(href) == playerID
	}).First()
	if link.Length() == 0 {
		return nil, false
	}
	row := link.Closest("tr")
	if row.Length() == 0 {
		return nil, false
	}
	return row, true
}
