// Package marketctx holds the market context the scorer needs besides the
// snapshot itself: symbol classification, the IST trading calendar and the
// PCR normalization strategy.
package marketctx

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var defaultReferenceYAML []byte

// Volatility tiers.
const (
	VolatilityHigh   = "HIGH"
	VolatilityMedium = "MEDIUM"
	VolatilityLow    = "LOW"
)

// Reference is the classification table for F&O symbols.
type Reference struct {
	Nifty50        []string            `yaml:"nifty50"`
	BankNifty      []string            `yaml:"bank_nifty"`
	HighVolatility []string            `yaml:"high_volatility"`
	LowVolatility  []string            `yaml:"low_volatility"`
	HighFII        []string            `yaml:"high_fii"`
	HighRetail     []string            `yaml:"high_retail"`
	Sectors        map[string][]string `yaml:"sectors"`
	SectorStrength map[string]float64  `yaml:"sector_strength"`

	nifty50    map[string]bool
	bank       map[string]bool
	highVol    map[string]bool
	lowVol     map[string]bool
	highFII    map[string]bool
	highRetail map[string]bool
	sectorOf   map[string]string
}

// Profile is everything the scorer knows about one symbol on one day.
type Profile struct {
	Symbol        string
	Sector        string
	Nifty50       bool
	BankNifty     bool
	HighFII       bool
	HighRetail    bool
	Volatility    string
	ExpiryWeek    bool
	MonthlyExpiry bool
	ResultsWeek   bool
}

// HighVolatility reports whether the symbol is in the high volatility tier.
func (p Profile) HighVolatility() bool { return p.Volatility == VolatilityHigh }

// DefaultReference parses the embedded table.
func DefaultReference() (*Reference, error) {
	return ParseReference(defaultReferenceYAML)
}

// LoadReference reads a table from disk. An empty path returns the embedded default.
func LoadReference(path string) (*Reference, error) {
	if path == "" {
		return DefaultReference()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference table: %w", err)
	}
	return ParseReference(data)
}

// ParseReference decodes a YAML reference table.
func ParseReference(data []byte) (*Reference, error) {
	ref := &Reference{}
	if err := yaml.Unmarshal(data, ref); err != nil {
		return nil, fmt.Errorf("parse reference table: %w", err)
	}
	ref.index()
	return ref, nil
}

func (r *Reference) index() {
	r.nifty50 = toSet(r.Nifty50)
	r.bank = toSet(r.BankNifty)
	r.highVol = toSet(r.HighVolatility)
	r.lowVol = toSet(r.LowVolatility)
	r.highFII = toSet(r.HighFII)
	r.highRetail = toSet(r.HighRetail)

	r.sectorOf = make(map[string]string)
	for sector, symbols := range r.Sectors {
		for _, s := range symbols {
			r.sectorOf[normalizeSymbol(s)] = sector
		}
	}
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[normalizeSymbol(s)] = true
	}
	return set
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Sector returns the sector of symbol, or "Others".
func (r *Reference) Sector(symbol string) string {
	if s, ok := r.sectorOf[normalizeSymbol(symbol)]; ok {
		return s
	}
	return "Others"
}

// SectorMultiplier returns the sector-strength multiplier of symbol, 1.0 when unlisted.
func (r *Reference) SectorMultiplier(symbol string) float64 {
	if m, ok := r.SectorStrength[normalizeSymbol(symbol)]; ok && m > 0 {
		return m
	}
	return 1.0
}

// Profile classifies symbol and stamps the calendar flags for now.
func (r *Reference) Profile(symbol string, now time.Time) Profile {
	sym := normalizeSymbol(symbol)
	vol := VolatilityMedium
	switch {
	case r.highVol[sym]:
		vol = VolatilityHigh
	case r.lowVol[sym]:
		vol = VolatilityLow
	}
	return Profile{
		Symbol:        sym,
		Sector:        r.Sector(sym),
		Nifty50:       r.nifty50[sym],
		BankNifty:     r.bank[sym],
		HighFII:       r.highFII[sym],
		HighRetail:    r.highRetail[sym],
		Volatility:    vol,
		ExpiryWeek:    IsExpiryWeek(now),
		MonthlyExpiry: IsMonthlyExpiry(now),
		ResultsWeek:   IsResultsWeek(now),
	}
}
