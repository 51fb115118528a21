package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Die Funktionen in dieser Datei bilden eine kleine Abfrageschicht über Seiten-Snapshots.
// "Nicht gefunden" ist dabei nie ein Fehler, sondern ein leerer Wert mit ok=false.

// ParseSnapshot parst den HTML-Inhalt einer Seite.
func ParseSnapshot(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// firstText liefert den bereinigten Text des ersten Treffers.
func firstText(sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	return cleanText(sel.First()), true
}

func firstAttr(sel *goquery.Selection, name string) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	return sel.First().Attr(name)
}

// childDivs entspricht dem Locator "> div".
func childDivs(sel *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	sel.ChildrenFiltered("div").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

func childTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Children().Each(func(_ int, s *goquery.Selection) {
		out = append(out, cleanText(s))
	})
	return out
}

func cells(row *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	row.ChildrenFiltered("td").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

func cellTexts(tds []*goquery.Selection) []string {
	texts := make([]string, len(tds))
	for i, td := range tds {
		texts[i] = cleanText(td)
	}
	return texts
}

// rowsWithClass findet Tabellenzeilen über ein Klassen-Token. Tailwind-Klassen wie
// "group/tr" lassen sich so ohne CSS-Escaping abfragen.
func rowsWithClass(root *goquery.Selection, class string) *goquery.Selection {
	return root.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(class)
	})
}

// hrefTail gibt das letzte Pfadsegment eines Links zurück ("/player/123" -> "123").
func hrefTail(href string) string {
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// safely führt fn aus und meldet false, wenn dabei eine Panic auftrat.
func safely(fn func()) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fn()
	return true
}
