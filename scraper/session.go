package scraper

import (
	"context"
	"time"
)

// Browser öffnet unabhängige Sitzungen. Implementierungen müssen NewSession aus
// mehreren Goroutinen gleichzeitig erlauben.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session ist eine isolierte Browser-Sitzung mit genau einer Seite. Eine Session wird
// nie zwischen Arbeitseinheiten geteilt.
type Session interface {
	// Goto lädt url und wartet, bis das Netzwerk zur Ruhe kommt.
	Goto(ctx context.Context, url string, timeout time.Duration) error

	// WaitFor wartet, bis selector auf der Seite erscheint.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Content liefert den aktuellen HTML-Stand der Seite.
	Content(ctx context.Context) (string, error)

	// Count zählt die Treffer für selector.
	Count(ctx context.Context, selector string) (int, error)

	// ClickFirst klickt den ersten sichtbaren Treffer. false, wenn es keinen gibt.
	ClickFirst(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	Close() error
}
