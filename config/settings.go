package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/clearport/surety-engine/customs"
)

// SettingsDocument is the JSON shape of the engine settings. It is the
// editable surface: the API serves and accepts it, the engine consumes the
// customs.Config built from it.
type SettingsDocument struct {
	VATRate           json.Number `json:"vatRate"`
	FlatDefault       json.Number `json:"flatDefault"`
	StoragePeriodDays int         `json:"storagePeriodDays"`
	BondStartAmount   json.Number `json:"bondStartAmount"`
	AggregationPolicy string      `json:"aggregationPolicy"`

	ZeroRateSubstitution struct {
		Enabled bool        `json:"enabled"`
		Rate    json.Number `json:"rate"`
	} `json:"zeroRateSubstitution"`

	ScheduledIncrease struct {
		Enabled bool        `json:"enabled"`
		Date    string      `json:"date"`
		Amount  json.Number `json:"amount"`
	} `json:"scheduledIncrease"`

	Period struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"period"`

	ImportColumnReduction bool `json:"importColumnReduction"`
}

// DefaultSettings mirrors customs.DefaultConfig.
func DefaultSettings() SettingsDocument {
	var doc SettingsDocument
	doc.VATRate = "0.19"
	doc.FlatDefault = "10000"
	doc.StoragePeriodDays = 90
	doc.BondStartAmount = "0"
	doc.AggregationPolicy = string(customs.AggregateMaxValue)
	doc.ZeroRateSubstitution.Enabled = true
	doc.ZeroRateSubstitution.Rate = "12"
	doc.ScheduledIncrease.Amount = "0"
	doc.ImportColumnReduction = true
	return doc
}

// LoadSettings reads the settings document, falling back to defaults when
// the file does not exist yet.
func LoadSettings(path string) (SettingsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return SettingsDocument{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	var doc SettingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return SettingsDocument{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return doc, nil
}

// SaveSettings writes the settings document atomically enough for a
// single-writer process.
func SaveSettings(path string, doc SettingsDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// BuildConfig validates the document and produces the immutable engine
// config. Every numeric field must parse; dates are day-granular.
func BuildConfig(doc SettingsDocument) (customs.Config, error) {
	cfg := customs.DefaultConfig()

	var err error
	if cfg.VATRate, err = parseNumber(doc.VATRate, "vatRate"); err != nil {
		return customs.Config{}, err
	}
	if cfg.FlatDefault, err = parseNumber(doc.FlatDefault, "flatDefault"); err != nil {
		return customs.Config{}, err
	}
	if cfg.BondStartAmount, err = parseNumber(doc.BondStartAmount, "bondStartAmount"); err != nil {
		return customs.Config{}, err
	}
	cfg.StoragePeriodDays = doc.StoragePeriodDays

	cfg.ZeroRateSubstitutionEnabled = doc.ZeroRateSubstitution.Enabled
	if cfg.ZeroRateSubstitutionRate, err = parseNumber(doc.ZeroRateSubstitution.Rate, "zeroRateSubstitution.rate"); err != nil {
		return customs.Config{}, err
	}

	switch customs.AggregationPolicy(doc.AggregationPolicy) {
	case customs.AggregateFirst, customs.AggregateMaxValue, customs.AggregateSum:
		cfg.AggregationPolicy = customs.AggregationPolicy(doc.AggregationPolicy)
	case "":
		// keep default
	default:
		return customs.Config{}, fmt.Errorf("settings: unknown aggregation policy %q", doc.AggregationPolicy)
	}

	cfg.ScheduledIncrease.Enabled = doc.ScheduledIncrease.Enabled
	if doc.ScheduledIncrease.Enabled {
		cfg.ScheduledIncrease.Date = customs.ParseDate(doc.ScheduledIncrease.Date)
		if cfg.ScheduledIncrease.Date.IsZero() {
			return customs.Config{}, fmt.Errorf("settings: scheduledIncrease.date %q does not parse", doc.ScheduledIncrease.Date)
		}
		if cfg.ScheduledIncrease.Amount, err = parseNumber(doc.ScheduledIncrease.Amount, "scheduledIncrease.amount"); err != nil {
			return customs.Config{}, err
		}
	}

	cfg.PeriodFrom = customs.ParseDate(doc.Period.From)
	cfg.PeriodTo = customs.ParseDate(doc.Period.To)

	return cfg, nil
}

func parseNumber(n json.Number, field string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("settings: %s %q is not a number", field, n)
	}
	return d, nil
}
