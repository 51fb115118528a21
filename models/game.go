package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Color ist die Farbe, mit der der Spieler eine Partie gespielt hat.
type Color string

const (
	White        Color = "White"
	Black        Color = "Black"
	UnknownColor Color = "Unknown"
)

// PlayerProfile beschreibt den Spieler, für den Partien extrahiert werden.
type PlayerProfile struct {
	ID     string `json:"uscf_id"`
	Name   string `json:"name"`
	Rating *int   `json:"rating"`
}

// Opponent ist ein Gegner innerhalb genau einer Turniertabelle. Die Paarungsnummer,
// unter der er dort geführt wird, ist nicht global eindeutig.
type Opponent struct {
	Name   string  `json:"name"`
	ID     *string `json:"uscf_id"`
	Rating *int    `json:"rating"`
}

// UnknownOpponent wird eingesetzt, wenn eine Paarungsnummer nicht aufgelöst werden konnte.
func UnknownOpponent() Opponent {
	return Opponent{Name: "Unknown"}
}

// GameRecord ist eine einzelne Partie. Einmal erzeugt wird sie nicht mehr verändert.
type GameRecord struct {
	TournamentName        string   `json:"tournament_name"`
	TournamentURL         string   `json:"tournament_url,omitempty"`
	Round                 *int     `json:"round"`
	Result                string   `json:"result"`
	Color                 Color    `json:"color"`
	OpponentPairingNumber string   `json:"opponent_pairing_number,omitempty"`
	Opponent              Opponent `json:"opponent"`
	PlayerRating          *int     `json:"player_rating"`
	Date                  string   `json:"date,omitempty"`
	Year                  string   `json:"year,omitempty"`
}

// NumberedGames serialisiert als JSON-Objekt mit fortlaufenden Schlüsseln "1".."n".
type NumberedGames []GameRecord

// MarshalJSON schreibt die Schlüssel in numerischer Reihenfolge.
func (g NumberedGames) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, game := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(strconv.Itoa(i + 1))
		buf.Write(key)
		buf.WriteByte(':')
		data, err := json.Marshal(game)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON liest das nummerierte Objekt wieder in Schlüsselreihenfolge ein.
func (g *NumberedGames) UnmarshalJSON(data []byte) error {
	var raw map[string]GameRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]int, 0, len(raw))
	for k := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid game key %q: %w", k, err)
		}
		keys = append(keys, n)
	}
	sort.Ints(keys)
	games := make(NumberedGames, 0, len(keys))
	for _, k := range keys {
		games = append(games, raw[strconv.Itoa(k)])
	}
	*g = games
	return nil
}

// GamesDocument ist das Ausgabedokument des Scrape-Pfads.
type GamesDocument struct {
	Player PlayerProfile `json:"player"`
	Games  NumberedGames `json:"games"`
}

// IntPtr gibt einen Pointer auf i zurück.
func IntPtr(i int) *int {
	return &i
}

// StringPtr gibt nil für leere Strings zurück, sonst einen Pointer auf s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
