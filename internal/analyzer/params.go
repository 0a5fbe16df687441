// Package analyzer scores option-chain and futures snapshots into a
// directional sentiment with confidence, levels and targets.
package analyzer

// Params holds every tunable constant of the scorer. The zero value is not
// useful; start from DefaultParams and override from config.
type Params struct {
	// Feature extraction
	NearDistance       float64 `yaml:"near_distance"`
	MidDistance        float64 `yaml:"mid_distance"`
	SignificantVolPct  float64 `yaml:"significant_volume_percentile"`
	ModerateVolPct     float64 `yaml:"moderate_volume_percentile"`
	MassiveVolMultiple float64 `yaml:"massive_volume_multiple"`

	// Institutional flow
	BaseMultiplier      float64 `yaml:"base_multiplier"`
	ModerateMultiplier  float64 `yaml:"moderate_multiplier"`
	PutBuyingModerate   float64 `yaml:"put_buying_moderate_multiplier"`
	MassiveBoost        float64 `yaml:"massive_boost"`
	MomentumBoost       float64 `yaml:"momentum_boost"`
	MomentumConfirmPct  float64 `yaml:"momentum_confirm_pct"`
	FlowWeight          float64 `yaml:"flow_weight"`
	PoorRRDampener      float64 `yaml:"poor_rr_dampener"`
	MaxUnusualActivity  int     `yaml:"max_unusual_activity"`
	FlowMateriality     float64 `yaml:"flow_materiality"`
	StrongFlow          float64 `yaml:"strong_flow"`
	ConflictPCRDampener float64 `yaml:"conflict_pcr_dampener"`

	// Levels and zone
	LevelOIPct        float64 `yaml:"level_oi_percentile"`
	LevelOIChangePct  float64 `yaml:"level_oi_change_percentile"`
	LevelVolumePct    float64 `yaml:"level_volume_percentile"`
	ModerateLevelMult float64 `yaml:"moderate_level_multiple"`
	MaxLevels         int     `yaml:"max_levels"`
	AtLevelPct        float64 `yaml:"at_level_pct"`
	NearLevelPct      float64 `yaml:"near_level_pct"`
	HedgingHigh       float64 `yaml:"hedging_high"`

	// Price momentum
	HighPCRBreakdown      float64 `yaml:"high_pcr_breakdown"`
	HighPCRBreakdownScore float64 `yaml:"high_pcr_breakdown_score"`
	MaxPainDistancePct    float64 `yaml:"max_pain_distance_pct"`

	// Classification
	StrongThreshold     float64 `yaml:"strong_threshold"`
	Threshold           float64 `yaml:"threshold"`
	ContextualSentiment bool    `yaml:"contextual_sentiment"`
	SectorStrength      bool    `yaml:"sector_strength"`
	HighVolScoreScale   float64 `yaml:"high_vol_score_scale"`

	// Targets
	TickSize float64 `yaml:"tick_size"`

	// Futures
	FuturesHighVolume float64 `yaml:"futures_high_volume"`
	FuturesATRPct     float64 `yaml:"futures_atr_pct"`
	ArbitrageAnnual   float64 `yaml:"arbitrage_annualized_pct"`

	// Turnover surge detection, amounts in rupees.
	TurnoverMin           float64 `yaml:"turnover_min"`
	TurnoverSurgeMultiple float64 `yaml:"turnover_surge_multiple"`
	TurnoverMinIncrease   float64 `yaml:"turnover_min_increase"`
	TurnoverMaxAlerts     int     `yaml:"turnover_max_alerts"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		NearDistance:       0.05,
		MidDistance:        0.10,
		SignificantVolPct:  70,
		ModerateVolPct:     40,
		MassiveVolMultiple: 3,

		BaseMultiplier:      3,
		ModerateMultiplier:  1.5,
		PutBuyingModerate:   2,
		MassiveBoost:        1.5,
		MomentumBoost:       1.3,
		MomentumConfirmPct:  2,
		FlowWeight:          3,
		PoorRRDampener:      0.7,
		MaxUnusualActivity:  15,
		FlowMateriality:     8,
		StrongFlow:          15,
		ConflictPCRDampener: 0.5,

		LevelOIPct:        80,
		LevelOIChangePct:  70,
		LevelVolumePct:    70,
		ModerateLevelMult: 1.5,
		MaxLevels:         3,
		AtLevelPct:        1.5,
		NearLevelPct:      3,
		HedgingHigh:       0.6,

		HighPCRBreakdown:      1.2,
		HighPCRBreakdownScore: -40,
		MaxPainDistancePct:    3,

		StrongThreshold:     40,
		Threshold:           15,
		ContextualSentiment: true,
		SectorStrength:      false,
		HighVolScoreScale:   1.2,

		TickSize: 0.05,

		FuturesHighVolume: 100000,
		FuturesATRPct:     0.02,
		ArbitrageAnnual:   8,

		TurnoverMin:           5e7,
		TurnoverSurgeMultiple: 1.5,
		TurnoverMinIncrease:   2.5e8,
		TurnoverMaxAlerts:     10,
	}
}
