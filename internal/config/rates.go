package config

import (
	"strings"
	"time"
)

// Season names used for rate multipliers.
const (
	SeasonLow      = "low"
	SeasonShoulder = "shoulder"
	SeasonHigh     = "high"
)

// DefaultSeasonMultipliers apply to a boat's base day rate.
var DefaultSeasonMultipliers = map[string]float64{
	SeasonLow:      0.70,
	SeasonShoulder: 0.85,
	SeasonHigh:     1.00,
}

// SeasonFor returns the charter season a calendar month falls into.
func SeasonFor(m time.Month) string {
	switch m {
	case time.June, time.July, time.August, time.September:
		return SeasonHigh
	case time.April, time.May, time.October:
		return SeasonShoulder
	default:
		return SeasonLow
	}
}

// Quote is a priced charter period for one boat.
type Quote struct {
	Boat   string
	Nights int
	Total  float64
	// Nights per season, for the quote breakdown.
	BySeason map[string]int
}

// NormalizeBoatName lowercases and collapses whitespace so "Sea  Breeze"
// and "sea breeze" resolve to the same fleet entry.
func NormalizeBoatName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// LookupBoat returns the configured rate for a boat.
func LookupBoat(cfg Config, boat string) (BoatRate, bool) {
	want := NormalizeBoatName(boat)
	for name, rate := range cfg.Fleet.Boats {
		if NormalizeBoatName(name) == want {
			return rate, true
		}
	}
	return BoatRate{}, false
}

// SeasonMultiplier returns the configured multiplier for a season, falling
// back to the defaults.
func SeasonMultiplier(cfg Config, season string) float64 {
	if m, ok := cfg.Fleet.Seasons[season]; ok && m > 0 {
		return m
	}
	return DefaultSeasonMultipliers[season]
}

// QuoteCharter prices every night in [start, end) at the boat's day rate
// times the season multiplier of that night's month.
// Returns false if the boat is unknown or the range is empty.
func QuoteCharter(cfg Config, boat string, start, end time.Time) (Quote, bool) {
	rate, ok := LookupBoat(cfg, boat)
	if !ok {
		return Quote{}, false
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if !end.After(start) {
		return Quote{}, false
	}

	q := Quote{Boat: boat, BySeason: make(map[string]int)}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		season := SeasonFor(day.Month())
		q.Nights++
		q.BySeason[season]++
		q.Total += rate.DayRate * SeasonMultiplier(cfg, season)
	}
	return q, true
}
