package services

import "github.com/prometheus/client_golang/prometheus"

var (
	gamesExtractedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chess_games_extracted_total",
			Help: "Total number of games extracted by scrape runs.",
		},
	)
	scrapeUnitsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_scrape_units_total",
			Help: "Scrape units (tournaments or years) by outcome.",
		},
		[]string{"outcome"},
	)
	playerImportsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_player_imports_total",
			Help: "Text imports by outcome.",
		},
		[]string{"outcome"},
	)
	scrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chess_scrape_duration_seconds",
			Help:    "Duration of complete scrape runs.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(gamesExtractedCounter, scrapeUnitsCounter, playerImportsCounter, scrapeDuration)
}
