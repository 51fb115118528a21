package scraper

import (
	"strings"
	"time"

	"chess-scout/config"
)

// Mode wählt die Art der Arbeitseinheiten.
type Mode string

const (
	// ModeTournament besucht die Turnier-Crosstables des Spielers.
	ModeTournament Mode = "tournament"
	// ModeYear besucht die Partientabellen pro Jahr.
	ModeYear Mode = "year"
)

// Selectors kapselt alle CSS-Selektoren, die von der Ratings-Seite abhängen.
type Selectors struct {
	PlayerName    string
	EventLinks    string
	StandingsRow  string
	StandingsWait string
	NameContainer string
	PairingGrid   string
	PlayerLinks   string

	YearControls string
	YearRows     string
	LoadMore     string
	YearURL      string // Platzhalter {base}, {id}, {year}
}

// DefaultSelectors entsprechen dem aktuellen Markup von ratings.uschess.org.
func DefaultSelectors() Selectors {
	return Selectors{
		PlayerName:    "h1",
		EventLinks:    `a[href^="/event/"]`,
		StandingsRow:  "group/tr",
		StandingsWait: `tr.group\/tr`,
		NameContainer: "div.font-names",
		PairingGrid:   "div.grid-rows-2",
		PlayerLinks:   `a[href^="/player/"]`,

		YearControls: `select[name="year"] option, a[href*="year="], button[data-year]`,
		YearRows:     "table tbody tr",
		LoadMore:     `button:has-text("Load more"), button:has-text("Show more")`,
		YearURL:      "{base}/player/{id}/games?year={year}",
	}
}

// Options ist die eine parametrisierte Konfiguration des Extractors.
type Options struct {
	Mode           Mode
	BaseURL        string
	MaxTournaments int
	Workers        int
	Stagger        time.Duration
	ExtractRatings bool
	Paginate       bool
	LoadMoreMax    int
	LoadMoreSettle time.Duration

	NavTimeout          time.Duration
	UnitNavTimeout      time.Duration
	SelectorTimeout     time.Duration
	UnitSelectorTimeout time.Duration

	Selectors Selectors
}

// DefaultOptions liefert den Turniermodus mit den Werten der ursprünglichen Skripte.
func DefaultOptions() Options {
	return Options{
		Mode:                ModeTournament,
		BaseURL:             "https://ratings.uschess.org",
		MaxTournaments:      10,
		Workers:             5,
		ExtractRatings:      true,
		Paginate:            true,
		LoadMoreMax:         50,
		LoadMoreSettle:      750 * time.Millisecond,
		NavTimeout:          30 * time.Second,
		UnitNavTimeout:      20 * time.Second,
		SelectorTimeout:     10 * time.Second,
		UnitSelectorTimeout: 5 * time.Second,
		Selectors:           DefaultSelectors(),
	}
}

// OptionsFromConfig übernimmt die Scraper-Einstellungen aus der Konfiguration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Mode = Mode(strings.ToLower(strings.TrimSpace(cfg.ScrapeMode)))
	if opts.Mode != ModeYear {
		opts.Mode = ModeTournament
	}
	opts.BaseURL = strings.TrimRight(cfg.RatingsBaseURL, "/")
	opts.MaxTournaments = cfg.MaxTournaments
	opts.ExtractRatings = cfg.ExtractRatings
	opts.Paginate = cfg.Paginate
	opts.LoadMoreMax = cfg.LoadMoreMax
	opts.LoadMoreSettle = cfg.LoadMoreSettle
	opts.NavTimeout = cfg.NavTimeout
	opts.UnitNavTimeout = cfg.UnitNavTimeout
	opts.SelectorTimeout = cfg.SelectorTimeout
	opts.UnitSelectorTimeout = cfg.UnitSelectorTimeout

	if opts.Mode == ModeYear {
		opts.Workers = cfg.YearWorkers
		opts.Stagger = cfg.YearStagger
	} else {
		opts.Workers = cfg.TournamentWorkers
	}
	return opts
}

func (o Options) playerURL(playerID string) string {
	return o.BaseURL + "/player/" + playerID
}

func (o Options) yearURL(playerID, year string) string {
	return strings.NewReplacer("{base}", o.BaseURL, "{id}", playerID, "{year}", year).Replace(o.Selectors.YearURL)
}
