package scraper

import (
	"context"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Unit ist eine Arbeitseinheit: ein Turnier oder ein Jahr.
type Unit struct {
	Index int
	Key   string // Turnier-URL oder Jahreszahl
	Title string
	URL   string
}

// CollectTournaments sammelt die Turnierlinks der Spielerseite, dedupliziert nach
// absoluter URL in Reihenfolge des ersten Auftretens, höchstens max Stück.
func CollectTournaments(doc *goquery.Document, opts Options, max int) []Unit {
	seen := make(map[string]bool)
	var units []Unit
	doc.Find(opts.Selectors.EventLinks).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if max > 0 && len(units) >= max {
			return false
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}
		u := absoluteURL(opts.BaseURL, href)
		if seen[u] {
			return true
		}
		seen[u] = true
		units = append(units, Unit{Index: len(units), Key: u, Title: cleanText(a), URL: u})
		return true
	})
	return units
}

// CollectYears sammelt die Jahreszahlen aus den Jahres-Steuerelementen, dedupliziert
// und absteigend sortiert.
func CollectYears(doc *goquery.Document, opts Options, playerID string) []Unit {
	seen := make(map[string]bool)
	var years []string
	doc.Find(opts.Selectors.YearControls).Each(func(_ int, s *goquery.Selection) {
		candidates := []string{cleanText(s)}
		for _, attr := range []string{"value", "data-year", "href"} {
			if v, ok := s.Attr(attr); ok {
				candidates = append(candidates, v)
			}
		}
		for _, c := range candidates {
			for _, y := range yearToken.FindAllString(c, -1) {
				if !seen[y] {
					seen[y] = true
					years = append(years, y)
				}
			}
		}
	})
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	units := make([]Unit, len(years))
	for i, y := range years {
		units[i] = Unit{Index: i, Key: y, Title: y, URL: opts.yearURL(playerID, y)}
	}
	return units
}

// LoadAll klickt "Load more", bis kein Auslöser mehr da ist, die Zeilenzahl stagniert
// oder max Durchläufe erreicht sind. Gibt die Zahl der Klicks zurück.
func LoadAll(ctx context.Context, s Session, rowSelector, triggerSelector string, max int, settle time.Duration, logger *zap.Logger) (int, error) {
	count, err := s.Count(ctx, rowSelector)
	if err != nil {
		return 0, err
	}
	clicks := 0
	for clicks < max {
		clicked, err := s.ClickFirst(ctx, triggerSelector, settle*4)
		if err != nil {
			return clicks, err
		}
		if !clicked {
			break
		}
		clicks++

		select {
		case <-ctx.Done():
			return clicks, ctx.Err()
		case <-time.After(settle):
		}

		next, err := s.Count(ctx, rowSelector)
		if err != nil {
			return clicks, err
		}
		if next == count {
			logger.Debug("Keine neuen Zeilen nach Load more", zap.Int("rows", next), zap.Int("clicks", clicks))
			break
		}
		count = next
	}
	return clicks, nil
}
