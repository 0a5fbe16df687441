package analyzer

import (
	"math"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/model"
)

// volumeThresholds are the per-side dynamic volume cut-offs of one snapshot.
type volumeThresholds struct {
	Significant float64
	Moderate    float64
	Massive     float64
}

// features is everything derived once from the rows before sub-scoring.
type features struct {
	Spot float64

	CallVolume volumeThresholds
	PutVolume  volumeThresholds

	MaxPain float64

	TotalCallOI       float64
	TotalPutOI        float64
	TotalCallOIChange float64
	TotalPutOIChange  float64
}

func extractFeatures(rows []model.StrikeRow, spot float64, p Params) features {
	f := features{Spot: spot, MaxPain: spot}

	callVols := make([]float64, 0, len(rows))
	putVols := make([]float64, 0, len(rows))
	maxTotal := 0.0
	for _, r := range rows {
		f.TotalCallOI += r.Call.OpenInterest
		f.TotalPutOI += r.Put.OpenInterest
		f.TotalCallOIChange += r.Call.OIChange
		f.TotalPutOIChange += r.Put.OIChange

		// strict > keeps the first strike on ties
		if total := r.Call.OpenInterest + r.Put.OpenInterest; total > maxTotal {
			maxTotal = total
			f.MaxPain = r.Strike
		}
		callVols = append(callVols, r.Call.Volume)
		putVols = append(putVols, r.Put.Volume)
	}

	f.CallVolume = deriveVolumeThresholds(callVols, p)
	f.PutVolume = deriveVolumeThresholds(putVols, p)
	return f
}

func deriveVolumeThresholds(volumes []float64, p Params) volumeThresholds {
	active := calculator.NonZero(volumes)
	return volumeThresholds{
		Significant: calculator.Percentile(active, p.SignificantVolPct),
		Moderate:    calculator.Percentile(active, p.ModerateVolPct),
		Massive:     calculator.Mean(active) * p.MassiveVolMultiple,
	}
}

// pcr returns put OI over call OI, 1.0 when there is no call OI.
func (f features) pcr() float64 {
	if f.TotalCallOI <= 0 {
		return 1.0
	}
	return f.TotalPutOI / f.TotalCallOI
}

// distance is the fractional distance of strike from spot.
func distance(strike, spot float64) float64 {
	return math.Abs(strike-spot) / spot
}

// proximityWeight favours strikes close to spot: 3 inside NearDistance,
// 2 inside MidDistance, 1 beyond.
func proximityWeight(strike, spot float64, p Params) float64 {
	d := distance(strike, spot)
	switch {
	case d < p.NearDistance:
		return 3
	case d < p.MidDistance:
		return 2
	default:
		return 1
	}
}
