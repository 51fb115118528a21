package importer

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"chess-scout/models"
)

// Gültige Wertebereiche nach der Validierung.
const (
	MinRating = 0
	MaxRating = 3000
	MinGrade  = 1
	MaxGrade  = 12
)

var (
	zeroID = regexp.MustCompile(`^0*$`)
	digits = regexp.MustCompile(`^\d+$`)

	validStatus = map[string]bool{
		models.StatusActive:    true,
		models.StatusWithdrawn: true,
		models.StatusBye:       true,
	}
)

// NormalizePlayers validiert alle Datensätze. Einträge ohne Namen oder ohne
// Objekt-Struktur fallen weg.
func NormalizePlayers(records []any) []models.ExtractedPlayer {
	players := make([]models.ExtractedPlayer, 0, len(records))
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		if p, ok := NormalizePlayer(obj); ok {
			players = append(players, p)
		}
	}
	return players
}

// NormalizePlayer wendet die Feldregeln auf einen Datensatz an. Die Ausgabe lässt
// sich erneut normalisieren, ohne sich zu ändern.
func NormalizePlayer(obj map[string]any) (models.ExtractedPlayer, bool) {
	name := norm.NFC.String(scalarString(obj["name"]))
	if name == "" {
		return models.ExtractedPlayer{}, false
	}

	p := models.ExtractedPlayer{
		Name:     name,
		Status:   models.StatusActive,
		Section:  optString(obj["section"]),
		Rating:   normalizeRating(obj["rating"]),
		USCFID:   normalizeUSCF(obj["uscf_id"]),
		FIDEID:   optString(obj["fide_id"]),
		State:    optString(obj["state"]),
		City:     optString(obj["city"]),
		Email:    optString(obj["email"]),
		Phone:    optString(obj["phone"]),
		School:   optString(obj["school"]),
		Grade:    normalizeGrade(obj["grade"]),
		Notes:    optString(obj["notes"]),
		TeamName: optString(obj["team"]),
	}
	if p.TeamName == nil {
		p.TeamName = optString(obj["team_name"])
	}
	if s := strings.ToLower(scalarString(obj["status"])); validStatus[s] {
		p.Status = s
	}

	byes, ok := obj["byes"]
	if !ok || byes == nil {
		byes = obj["intentional_bye_rounds"]
	}
	p.IntentionalByeRounds = NormalizeByes(byes)
	return p, true
}

// scalarString wandelt Strings, Zahlen und true in getrimmten Text. Alles andere
// (nil, false, Listen, Objekte) ergibt "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "true"
		}
	}
	return ""
}

func optString(v any) *string {
	return models.StringPtr(scalarString(v))
}

// toInt entspricht einer int()-Konvertierung: ganze Zahlen und Zahl-Strings, Floats
// werden abgeschnitten, Float-Strings sind ungültig.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return int(f), true
		}
	case float64:
		return int(x), true
	case int:
		return x, true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func normalizeRating(v any) *int {
	n, ok := toInt(v)
	if !ok || n < MinRating || n > MaxRating {
		return nil
	}
	return &n
}

func normalizeGrade(v any) *int {
	if s := scalarString(v); s == "0" || s == "" {
		return nil
	}
	n, ok := toInt(v)
	if !ok || n < MinGrade || n > MaxGrade {
		return nil
	}
	return &n
}

// normalizeUSCF behandelt Platzhalter wie "0", "0000" oder "00000" als fehlend.
func normalizeUSCF(v any) *string {
	s := scalarString(v)
	if zeroID.MatchString(s) {
		return nil
	}
	return &s
}

// NormalizeByes macht aus einer Liste, einem komma-separierten String oder einem
// Einzelwert eine sortierte, duplikatfreie Rundenliste ("1,3"). Leer ergibt nil.
func NormalizeByes(v any) *string {
	var tokens []string
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range x {
			tokens = append(tokens, scalarString(item))
		}
	case string:
		tokens = strings.Split(x, ",")
	default:
		if n, ok := toInt(x); ok {
			tokens = []string{strconv.Itoa(n)}
		}
	}

	seen := make(map[int]bool)
	var rounds []int
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if !digits.MatchString(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		rounds = append(rounds, n)
	}
	if len(rounds) == 0 {
		return nil
	}
	sort.Ints(rounds)

	parts := make([]string, len(rounds))
	for i, n := range rounds {
		parts[i] = strconv.Itoa(n)
	}
	s := strings.Join(parts, ",")
	return &s
}
