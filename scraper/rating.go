package scraper

import (
	"regexp"
	"strconv"
)

// Plausibler Wertebereich für Ratings aus Freitext.
const (
	MinRating = 100
	MaxRating = 3000
)

// Die Heuristik ist bewusst ungenau: Jahreszahlen, IDs oder Schnellschach-Ratings
// können als Rating erkannt werden. Der erste akzeptierte Kandidat gewinnt.

var (
	digitRun = regexp.MustCompile(`\d+`)

	labeledRatingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brating\s*[:=]?\s*(\d+)`),
		regexp.MustCompile(`(?i)\bregular\s*(?:rating)?\s*[:=]?\s*(\d+)`),
		regexp.MustCompile(`(?i)\bquick\s*(?:rating)?\s*[:=]?\s*(\d+)`),
		regexp.MustCompile(`(?i)\bblitz\s*(?:rating)?\s*[:=]?\s*(\d+)`),
		regexp.MustCompile(`(?i)\bonline[\s-]*(?:regular|quick|blitz)?\s*(?:rating)?\s*[:=]?\s*(\d+)`),
	}

	// Spalten, in denen Standings-Tabellen das Rating typischerweise führen.
	opponentRatingColumns = []int{1, 2}
	profileRatingColumns  = []int{1, 2}
)

func plausibleRating(n int) bool {
	return n >= MinRating && n <= MaxRating
}

// parseRatingToken akzeptiert nur 3-4-stellige Zahlen im plausiblen Bereich.
func parseRatingToken(tok string) (int, bool) {
	if len(tok) < 3 || len(tok) > 4 {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil || !plausibleRating(n) {
		return 0, false
	}
	return n, true
}

// RatingTokens liefert alle plausiblen Rating-Kandidaten in text. Ein Token, das
// textuell gleich exclude ist (z.B. die Paarungsnummer), wird ignoriert.
func RatingTokens(text, exclude string) []int {
	var out []int
	for _, tok := range digitRun.FindAllString(text, -1) {
		if exclude != "" && tok == exclude {
			continue
		}
		if n, ok := parseRatingToken(tok); ok {
			out = append(out, n)
		}
	}
	return out
}

// FirstPlausibleRating gibt den ersten Kandidaten in text zurück.
func FirstPlausibleRating(text, exclude string) *int {
	tokens := RatingTokens(text, exclude)
	if len(tokens) == 0 {
		return nil
	}
	return &tokens[0]
}

// RatingFromLabels sucht nach beschrifteten Werten wie "Rating: 1800" oder "Quick 1900".
func RatingFromLabels(text string) *int {
	for _, re := range labeledRatingPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if n, ok := parseRatingToken(m[1]); ok {
				return &n
			}
		}
	}
	return nil
}

// RatingFromColumns prüft die Spalten an den gegebenen Indizes der Reihe nach.
func RatingFromColumns(cols []string, indices []int, exclude string) *int {
	for _, i := range indices {
		if i < 0 || i >= len(cols) {
			continue
		}
		if r := FirstPlausibleRating(cols[i], exclude); r != nil {
			return r
		}
	}
	return nil
}

// ResolveRating wendet die Heuristiken in fester Reihenfolge an: Beschriftung,
// Spaltenposition, erstes freies Token.
func ResolveRating(text string, cols []string, indices []int, exclude string) *int {
	if r := RatingFromLabels(text); r != nil {
		return r
	}
	if r := RatingFromColumns(cols, indices, exclude); r != nil {
		return r
	}
	return FirstPlausibleRating(text, exclude)
}

// RowRating bestimmt das Rating in einer Standings-Zeile. Genau ein Kandidat im
// Zeilentext wird direkt übernommen, sonst entscheiden die Spalten 1 und 2.
func RowRating(rowText string, cols []string, pairing string) *int {
	candidates := RatingTokens(rowText, pairing)
	if len(candidates) == 1 {
		return &candidates[0]
	}
	if r := RatingFromColumns(cols, opponentRatingColumns, pairing); r != nil {
		return r
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}
