package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chess-scout/models"
)

// SkipReason erklärt, warum eine Einheit keine Partien beigetragen hat.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipSession       SkipReason = "session"
	SkipNavigation    SkipReason = "navigation"
	SkipSelector      SkipReason = "selector"
	SkipContent       SkipReason = "content"
	SkipPlayerMissing SkipReason = "player_missing"
	SkipPanic         SkipReason = "panic"
)

// UnitResult ist das Ergebnis einer Einheit: entweder Partien oder ein Skip-Grund.
type UnitResult struct {
	Unit         Unit
	Games        []models.GameRecord
	PlayerName   string
	PlayerRating *int
	Clicks       int
	Skip         SkipReason
	Err          error
}

// Skipped meldet, ob die Einheit übersprungen wurde.
func (r UnitResult) Skipped() bool {
	return r.Skip != SkipNone
}

func skipped(u Unit, reason SkipReason, err error) UnitResult {
	return UnitResult{Unit: u, Skip: reason, Err: err}
}

// DispatchOptions steuert die Parallelität.
type DispatchOptions struct {
	Workers int
	Stagger time.Duration // Pause vor jeder weiteren Einreichung
}

// UnitFunc verarbeitet genau eine Einheit in einer eigenen Sitzung.
type UnitFunc func(ctx context.Context, u Unit) UnitResult

// Dispatch verarbeitet die Einheiten mit höchstens min(Workers, len(units)) parallelen
// Goroutinen. Die Ergebnisse kommen in Abschlussreihenfolge zurück. Fehler oder
// Panics einer Einheit brechen die übrigen nie ab.
func Dispatch(ctx context.Context, units []Unit, opts DispatchOptions, logger *zap.Logger, fn UnitFunc) []UnitResult {
	if len(units) == 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(units) {
		workers = len(units)
	}

	out := make(chan UnitResult, len(units))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, u := range units {
		if i > 0 && opts.Stagger > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Stagger):
			}
		}
		g.Go(func() error {
			out <- runUnit(ctx, u, fn, logger)
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	results := make([]UnitResult, 0, len(units))
	for r := range out {
		results = append(results, r)
	}
	return results
}

func runUnit(ctx context.Context, u Unit, fn UnitFunc, logger *zap.Logger) (res UnitResult) {
	log := logger.With(zap.String("unit", u.Key))
	defer func() {
		if p := recover(); p != nil {
			log.Error("Panic in Einheit", zap.Any("panic", p))
			res = skipped(u, SkipPanic, fmt.Errorf("panic: %v", p))
		}
	}()

	res = fn(ctx, u)
	res.Unit = u
	if res.Skipped() {
		log.Warn("Einheit übersprungen", zap.String("reason", string(res.Skip)), zap.Error(res.Err))
	} else {
		log.Info("Einheit verarbeitet", zap.Int("games", len(res.Games)))
	}
	return res
}
