package models

// Status eines Spielers in einer Teilnehmerliste.
const (
	StatusActive    = "active"
	StatusWithdrawn = "withdrawn"
	StatusBye       = "bye"
)

// ExtractedPlayer ist ein aus Freitext extrahierter und validierter Turnierteilnehmer.
// Optionale Felder sind nil, wenn sie fehlen oder die Validierung nicht bestehen.
type ExtractedPlayer struct {
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	Section              *string `json:"section"`
	Rating               *int    `json:"rating"`
	USCFID               *string `json:"uscf_id"`
	FIDEID               *string `json:"fide_id"`
	State                *string `json:"state"`
	City                 *string `json:"city"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	TeamName             *string `json:"team_name"`
	School               *string `json:"school"`
	Grade                *int    `json:"grade"`
	IntentionalByeRounds *string `json:"intentional_bye_rounds"`
	Notes                *string `json:"notes"`
}
