package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const testBase = "https://ratings.test"

func roundCell(result, pairing, glyph string) string {
	return fmt.Sprintf(`<td><div class="grid-rows-2"><div><div>%s</div><div>%s</div></div><div><div>%s</div></div></div></td>`, result, pairing, glyph)
}

func standingsRow(pairing, id, name string, mid string, rounds ...string) string {
	row := `<tr class="group/tr">`
	row += fmt.Sprintf(`<td><div class="grid-rows-2"><div><div>%s</div></div></div></td>`, pairing)
	row += fmt.Sprintf(`<td><a href="/player/%s"><div class="font-names">%s</div></a></td>`, id, name)
	row += "<td>" + mid + "</td>"
	for _, r := range rounds {
		row += r
	}
	row += "<td>1.0</td></tr>"
	return row
}

var playerPage = `<html><body>
<h1>Jane Doe</h1>
<div class="ratings">Regular Rating: 1850 Quick 1790</div>
<a href="/event/201">Spring Open</a>
<a href="/event/201">Spring Open (again)</a>
<a href="/event/202">Summer Open</a>
</body></html>`

var eventPage = `<html><body>
<h1>Spring Open</h1><time datetime="2024-04-12">Apr 12</time>
<table><tbody>` +
	standingsRow("1", "123", "Jane Doe", "1850",
		roundCell("W", "2", "⚪️"), roundCell("", "", ""), roundCell("L", "3", "⚫️")) +
	standingsRow("2", "456", "John Roe", "1720",
		roundCell("L", "1", "⚫️"), roundCell("W", "3", "⚪️"), roundCell("D", "9", "?")) +
	standingsRow("3", "789", "Ann Poe", "1650 1700",
		roundCell("W", "1", "⚪️"), roundCell("L", "2", "⚫️"), roundCell("", "", "")) +
	`<tr class="group/tr"><td></td><td>broken</td></tr>
</tbody></table></body></html>`

var yearPlayerPage = `<html><body>
<h1>Jane Doe</h1>
<select name="year"><option value="2023">2023</option><option value="2024">2024</option><option value="2023">2023</option></select>
</body></html>`

func yearRow(result, color, oppID, oppName, date, eventID, eventName string) string {
	return fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>-</td><td><a href="/player/%s">%s</a> (1600)</td><td>%s</td><td><a href="/event/%s">%s</a></td></tr>`,
		result, color, oppID, oppName, date, eventID, eventName)
}

var yearPage2024 = `<html><body><table><tbody>
<tr><td>Result</td><td>Color</td><td></td><td>Opponent</td><td>Date</td><td>Event</td></tr>` +
	yearRow("W", "W", "456", "John Roe", "2024-03-01", "301", "March Swiss") +
	yearRow("L", "B", "789", "Ann Poe", "2024-06-15", "302", "June Swiss") +
	`</tbody></table></body></html>`

var yearPage2023 = `<html><body><table><tbody>` +
	yearRow("D", "b", "111", "Max Moe", "2023-11-20", "303", "Fall Open") +
	`</tbody></table></body></html>`

// fakeBrowser liefert Fixture-HTML pro URL.
type fakeBrowser struct {
	mu         sync.Mutex
	pages      map[string]string
	gotoFail   map[string]bool
	waitFail   map[string]bool
	sessions   int
	closed     int
	sessionErr error
}

func newFakeBrowser(pages map[string]string) *fakeBrowser {
	return &fakeBrowser{pages: pages, gotoFail: map[string]bool{}, waitFail: map[string]bool{}}
}

func (b *fakeBrowser) NewSession(context.Context) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionErr != nil {
		return nil, b.sessionErr
	}
	b.sessions++
	return &fakeSession{b: b}, nil
}

type fakeSession struct {
	b   *fakeBrowser
	url string
}

func (s *fakeSession) Goto(_ context.Context, url string, _ time.Duration) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.gotoFail[url] {
		return errors.New("timeout 20000ms exceeded")
	}
	if _, ok := s.b.pages[url]; !ok {
		return fmt.Errorf("404 %s", url)
	}
	s.url = url
	return nil
}

func (s *fakeSession) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.waitFail[s.url] {
		return fmt.Errorf("waiting for %s: timeout", selector)
	}
	return nil
}

func (s *fakeSession) Content(context.Context) (string, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.pages[s.url], nil
}

func (s *fakeSession) Count(context.Context, string) (int, error) { return 0, nil }

func (s *fakeSession) ClickFirst(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}

func (s *fakeSession) Close() error {
	s.b.mu.Lock()
	s.b.closed++
	s.b.mu.Unlock()
	return nil
}

// fakePager simuliert eine Tabelle mit "Load more".
type fakePager struct {
	fakeSession
	rows     int
	perClick []int // neue Zeilen pro Klick
	clicks   int
	clickErr error
}

func (p *fakePager) Count(context.Context, string) (int, error) { return p.rows, nil }

func (p *fakePager) ClickFirst(context.Context, string, time.Duration) (bool, error) {
	if p.clickErr != nil {
		return false, p.clickErr
	}
	if p.clicks >= len(p.perClick) {
		return false, nil
	}
	p.rows += p.perClick[p.clicks]
	p.clicks++
	return true, nil
}

func testOptions() Options {
	o := DefaultOptions()
	o.BaseURL = testBase
	return o
}
