package marketctx

// PCRNormalizer adjusts a raw put-call ratio for the instrument's context.
type PCRNormalizer interface {
	Normalize(rawPCR float64, p Profile) float64
}

// NormalizationTable is the default PCRNormalizer. Each rule multiplies the
// raw PCR; when several rules match, the last one in field order wins.
// A multiplier <= 0 disables its rule.
type NormalizationTable struct {
	HighRetailHighVol float64 `yaml:"high_retail_high_vol"`
	Bank              float64 `yaml:"bank"`
	ExpiryWeek        float64 `yaml:"expiry_week"`
	ResultsWeek       float64 `yaml:"results_week"`
	FMCG              float64 `yaml:"fmcg"`
}

// DefaultNormalizationTable returns the stock multipliers.
func DefaultNormalizationTable() NormalizationTable {
	return NormalizationTable{
		HighRetailHighVol: 0.85,
		Bank:              0.9,
		ExpiryWeek:        1.1,
		ResultsWeek:       1.05,
		FMCG:              0.95,
	}
}

// Normalize implements PCRNormalizer.
func (t NormalizationTable) Normalize(rawPCR float64, p Profile) float64 {
	adjusted := rawPCR
	rules := []struct {
		match      bool
		multiplier float64
	}{
		{p.HighRetail && p.HighVolatility(), t.HighRetailHighVol},
		{p.BankNifty, t.Bank},
		{p.ExpiryWeek, t.ExpiryWeek},
		{p.ResultsWeek, t.ResultsWeek},
		{p.Sector == "FMCG", t.FMCG},
	}
	for _, r := range rules {
		if r.match && r.multiplier > 0 {
			adjusted = rawPCR * r.multiplier
		}
	}
	return adjusted
}

// IdentityNormalizer leaves the PCR untouched.
type IdentityNormalizer struct{}

// Normalize implements PCRNormalizer.
func (IdentityNormalizer) Normalize(rawPCR float64, _ Profile) float64 { return rawPCR }
