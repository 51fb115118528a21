package importer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"chess-scout/models"
)

var (
	nameSeparators  = regexp.MustCompile(`[.,-]`)
	tokenSeparators = regexp.MustCompile(`[.,]`)
)

// NameKey ist der Schlüssel der ersten Runde: klein, Satzzeichen und Bindestriche als
// Leerzeichen, Whitespace zusammengefasst.
func NameKey(name string) string {
	n := strings.ToLower(norm.NFC.String(name))
	n = nameSeparators.ReplaceAllString(strings.Join(strings.Fields(n), " "), " ")
	return strings.Join(strings.Fields(n), " ")
}

// TokenKey ist der Schlüssel der zweiten Runde: sortierte Namensteile mit mehr als
// einem Zeichen, damit "Doe Jane" und "Jane A. Doe" zusammenfallen.
func TokenKey(name string) string {
	n := tokenSeparators.ReplaceAllString(strings.ToLower(norm.NFC.String(name)), " ")
	var parts []string
	for _, p := range strings.Fields(n) {
		if utf8.RuneCountInString(p) > 1 {
			parts = append(parts, p)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func withUSCF(key string, id *string) string {
	if id == nil {
		return key
	}
	return key + "|" + *id
}

func dedupeBy(players []models.ExtractedPlayer, key func(models.ExtractedPlayer) string) []models.ExtractedPlayer {
	seen := make(map[string]bool, len(players))
	out := make([]models.ExtractedPlayer, 0, len(players))
	for _, p := range players {
		k := key(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

// Dedupe entfernt Duplikate in zwei Durchgängen. Der erste Eintrag gewinnt.
func Dedupe(players []models.ExtractedPlayer) []models.ExtractedPlayer {
	first := dedupeBy(players, func(p models.ExtractedPlayer) string {
		return withUSCF(NameKey(p.Name), p.USCFID)
	})
	return dedupeBy(first, func(p models.ExtractedPlayer) string {
		return withUSCF(TokenKey(p.Name), p.USCFID)
	})
}
