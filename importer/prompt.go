package importer

import "fmt"

// SystemPrompt verlangt vom Modell ausschließlich ein JSON-Array von Spielern.
const SystemPrompt = `You extract chess tournament entrants from text. Reply with a JSON array and nothing else.

Output rules:
- The reply starts with [ and ends with ]. No markdown, no code fences, no commentary.
- Keys and strings use double quotes. Numbers are not quoted. No trailing commas.
- Omit a field or use null when the text does not contain it.

Fields per player object:
- name: full name, required
- uscf_id: US Chess ID as a string; null for "0", "0000", "00000" or empty
- fide_id: FIDE ID as a string
- section: section name such as "Open", "Reserve" or "U1200"
- city, state
- rating: integer between 0 and 3000
- status: "active", "withdrawn" or "bye"; default "active"
- team: team or club name
- school: school name
- grade: integer school grade 1-12
- byes: array of round numbers with requested byes, e.g. [1,3]; omit when the bye column is "0"
- email, phone, notes`

// UserPrompt bettet den Eingabetext in die Nutzer-Nachricht ein.
func UserPrompt(text string) string {
	return fmt.Sprintf("Extract every chess player from the following text as a JSON array:\n\n%s\n\nReturn only the JSON array.", text)
}
