package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"chess-scout/models"
)

// UnitSource ist das Interface, das jeder Extraktionsmodus implementieren muss.
type UnitSource interface {
	// Name gibt den Modus zurück (z.B. "tournament").
	Name() Mode

	// ReadySelector muss auf der Spielerseite erscheinen, bevor Einheiten gesammelt werden.
	ReadySelector() string

	// Units sammelt die Arbeitseinheiten von der Spielerseite.
	Units(doc *goquery.Document, playerID string) []Unit

	// DispatchOptions legt Parallelität und Staffelung fest.
	DispatchOptions() DispatchOptions

	// Extract verarbeitet eine Einheit in der übergebenen, exklusiven Sitzung.
	Extract(ctx context.Context, s Session, playerID string, u Unit) UnitResult
}

func newUnitSource(opts Options, logger *zap.Logger) UnitSource {
	if opts.Mode == ModeYear {
		return &yearSource{opts: opts, logger: logger}
	}
	return &tournamentSource{opts: opts, logger: logger}
}

type tournamentSource struct {
	opts   Options
	logger *zap.Logger
}

func (t *tournamentSource) Name() Mode { return ModeTournament }

func (t *tournamentSource) ReadySelector() string { return t.opts.Selectors.EventLinks }

func (t *tournamentSource) Units(doc *goquery.Document, _ string) []Unit {
	return CollectTournaments(doc, t.opts, t.opts.MaxTournaments)
}

func (t *tournamentSource) DispatchOptions() DispatchOptions {
	return DispatchOptions{Workers: t.opts.Workers}
}

func (t *tournamentSource) Extract(ctx context.Context, s Session, playerID string, u Unit) UnitResult {
	o := t.opts
	if err := s.Goto(ctx, u.URL, o.UnitNavTimeout); err != nil {
		return skipped(u, SkipNavigation, err)
	}
	if err := s.WaitFor(ctx, o.Selectors.StandingsWait, o.UnitSelectorTimeout); err != nil {
		return skipped(u, SkipSelector, err)
	}
	doc, err := snapshot(ctx, s)
	if err != nil {
		return skipped(u, SkipContent, err)
	}

	row, ok := FindPlayerRow(doc, playerID, o)
	if !ok {
		return skipped(u, SkipPlayerMissing, fmt.Errorf("%w: %s", ErrPlayerNotFound, u.URL))
	}

	res := UnitResult{Unit: u}
	res.PlayerName, _ = firstText(row.Find(o.Selectors.NameContainer))
	if o.ExtractRatings {
		res.PlayerRating = RowRating(cleanText(row), cellTexts(cells(row)), pairingNumber(row, o.Selectors.PairingGrid))
	}

	meta := TournamentMeta{Name: u.Title, URL: u.URL, PlayerRating: res.PlayerRating}
	if meta.Name == "" {
		meta.Name, _ = firstText(doc.Find("h1"))
	}
	meta.Date = EventDate(doc)
	meta.Year = yearToken.FindString(meta.Date)

	opponents := ResolveOpponents(doc, o, t.logger)
	res.Games = ExtractRoundCells(row, opponents, meta, o)
	return res
}

type yearSource struct {
	opts   Options
	logger *zap.Logger
}

func (y *yearSource) Name() Mode { return ModeYear }

func (y *yearSource) ReadySelector() string { return y.opts.Selectors.YearControls }

func (y *yearSource) Units(doc *goquery.Document, playerID string) []Unit {
	return CollectYears(doc, y.opts, playerID)
}

func (y *yearSource) DispatchOptions() DispatchOptions {
	return DispatchOptions{Workers: y.opts.Workers, Stagger: y.opts.Stagger}
}

func (y *yearSource) Extract(ctx context.Context, s Session, _ string, u Unit) UnitResult {
	o := y.opts
	if err := s.Goto(ctx, u.URL, o.UnitNavTimeout); err != nil {
		return skipped(u, SkipNavigation, err)
	}
	if err := s.WaitFor(ctx, o.Selectors.YearRows, o.UnitSelectorTimeout); err != nil {
		return skipped(u, SkipSelector, err)
	}

	res := UnitResult{Unit: u}
	if o.Paginate {
		clicks, err := LoadAll(ctx, s, o.Selectors.YearRows, o.Selectors.LoadMore, o.LoadMoreMax, o.LoadMoreSettle, y.logger)
		if err != nil {
			// Was bis hierhin geladen ist, wird trotzdem ausgewertet.
			y.logger.Warn("Load more abgebrochen", zap.String("year", u.Key), zap.Error(err))
		}
		res.Clicks = clicks
	}

	doc, err := snapshot(ctx, s)
	if err != nil {
		return skipped(u, SkipContent, err)
	}
	doc.Find(o.Selectors.YearRows).Each(func(_ int, row *goquery.Selection) {
		var (
			game models.GameRecord
			ok   bool
		)
		if safely(func() { game, ok = ExtractYearRow(row, u.Key, o) }) && ok {
			res.Games = append(res.Games, game)
		}
	})
	return res
}

func snapshot(ctx context.Context, s Session) (*goquery.Document, error) {
	html, err := s.Content(ctx)
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(html)
}
