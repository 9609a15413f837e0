package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/mkarpov/razborka/internal/ledger"
)

// Settings is the resolved application configuration.
type Settings struct {
	DataDir      string
	DatabasePath string
	Precision    int32
	Corrections  []ledger.Correction
	ServeAddr    string
}

// correctionEntry is the raw shape of one ledger.corrections item.
type correctionEntry struct {
	Date  string  `mapstructure:"date"`
	Total float64 `mapstructure:"total"`
}

// FromViper resolves settings from the bound viper instance, applying
// defaults and expanding paths.
func FromViper() (Settings, error) {
	s := Settings{
		DataDir:      ExpandPath(viper.GetString("data.dir")),
		DatabasePath: ExpandPath(viper.GetString("database.path")),
		Precision:    viper.GetInt32("ledger.precision"),
		ServeAddr:    viper.GetString("serve.addr"),
	}
	if s.DataDir == "" {
		s.DataDir = DefaultDataDir()
	}
	if s.DatabasePath == "" {
		s.DatabasePath = DefaultDatabasePath()
	}
	if s.Precision <= 0 {
		s.Precision = ledger.DefaultPrecision
	}
	if s.ServeAddr == "" {
		s.ServeAddr = ":8080"
	}

	var entries []correctionEntry
	if err := viper.UnmarshalKey("ledger.corrections", &entries); err != nil {
		return s, fmt.Errorf("failed to parse ledger.corrections: %w", err)
	}
	corrections, err := parseCorrections(entries)
	if err != nil {
		return s, err
	}
	s.Corrections = corrections
	return s, nil
}

func parseCorrections(entries []correctionEntry) ([]ledger.Correction, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]ledger.Correction, 0, len(entries))
	for _, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid correction date %q: %w", e.Date, err)
		}
		out = append(out, ledger.Correction{
			Date:  date,
			Total: decimal.NewFromFloat(e.Total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
