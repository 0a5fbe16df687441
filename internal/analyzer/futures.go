package analyzer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// ExpiryLayout is the NSE futures expiry date format.
const ExpiryLayout = "02-Jan-2006"

// defaultDaysToExpiry is used when the expiry date cannot be parsed.
const defaultDaysToExpiry = 30

// FuturesInput is everything one futures analysis needs.
type FuturesInput struct {
	Snapshot *model.FuturesSnapshot
	Now      time.Time
}

type buildupResult struct {
	Type     model.Buildup
	Bias     string
	Strength float64
	Level    string
	OIPct    float64
}

type basisResult struct {
	Basis      float64
	Pct        float64
	Annualized float64
	Structure  string
	Arbitrage  bool
}

type rolloverResult struct {
	Pressure string
	Cost     float64
}

// AnalyzeFutures scores the current-month contract of a futures snapshot.
// It returns false when there are no contracts or no positive spot.
func (e *Engine) AnalyzeFutures(in FuturesInput) (*model.FuturesResult, bool) {
	snap := in.Snapshot
	if snap == nil || len(snap.Contracts) == 0 || snap.SpotPrice <= 0 {
		return nil, false
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	p := e.params
	cur := snap.Contracts[0]

	res := &model.FuturesResult{
		Symbol:          snap.Symbol,
		CurrentExpiry:   cur.ExpiryDate,
		CurrentPrice:    cur.LastPrice,
		CurrentOI:       cur.OpenInterest,
		CurrentVolume:   cur.Volume,
		CurrentOIChange: cur.OIChange,
		SpotPrice:       snap.SpotPrice,
		AnalyzedAt:      now,
	}
	if len(snap.Contracts) > 1 {
		next := snap.Contracts[1]
		res.NextExpiry = next.ExpiryDate
		res.NextPrice = next.LastPrice
		res.NextOI = next.OpenInterest
	}

	days := daysToExpiry(cur.ExpiryDate, now)
	b := analyzeBuildup(cur.PriceChange, cur.OpenInterest, cur.OIChange)
	bs := analyzeBasis(cur.LastPrice, snap.SpotPrice, days, p)
	ro := analyzeRollover(days, cur.OpenInterest, res.NextOI)

	res.DaysToExpiry = days
	res.Buildup, res.BuildupStrength, res.OIChangePct = b.Type, b.Level, b.OIPct
	res.Basis, res.BasisPct, res.AnnualizedBasis = bs.Basis, bs.Pct, bs.Annualized
	res.Structure, res.Arbitrage = bs.Structure, bs.Arbitrage
	res.RolloverPressure, res.RolloverCost = ro.Pressure, ro.Cost

	strength, confidence := 0.0, 50.0
	switch b.Level {
	case "STRONG":
		strength += 40
		confidence += 25
	case "MODERATE":
		strength += 25
		confidence += 15
	}
	if bs.Arbitrage {
		strength += 20
		confidence += 15
	}
	if cur.Volume > p.FuturesHighVolume {
		strength += 15
		confidence += 10
	}
	if ro.Pressure == "HIGH" && days <= 3 {
		strength += 10
	}
	res.Strength = math.Min(strength, 100)
	res.Confidence = math.Min(confidence, 100)

	switch {
	case b.Bias == BiasBullish && bs.Pct < 2:
		res.Signal = model.FuturesBullish
	case b.Bias == BiasBearish && bs.Pct > -1:
		res.Signal = model.FuturesBearish
	case bs.Arbitrage:
		res.Signal = model.FuturesArbitrage
	default:
		res.Signal = model.FuturesNeutral
	}

	price := cur.LastPrice
	atr := price * p.FuturesATRPct
	switch res.Signal {
	case model.FuturesBullish:
		res.Target1, res.Target2, res.StopLoss = price+atr, price+2*atr, price-0.5*atr
	case model.FuturesBearish:
		res.Target1, res.Target2, res.StopLoss = price-atr, price-2*atr, price+0.5*atr
	default:
		res.Target1, res.Target2, res.StopLoss = price, price, price
	}
	res.Target1 = roundToTick(res.Target1, p.TickSize)
	res.Target2 = roundToTick(res.Target2, p.TickSize)
	res.StopLoss = roundToTick(res.StopLoss, p.TickSize)
	risk := math.Abs(price - res.StopLoss)
	reward := math.Abs(res.Target1 - price)
	res.RiskReward = 1
	if risk > 0 {
		res.RiskReward = reward / risk
	}

	parts := []string{
		fmt.Sprintf("%s: price %+.2f, OI %+.0f (%+.1f%%)", b.Type, cur.PriceChange, cur.OIChange, b.OIPct),
		fmt.Sprintf("basis %+.2f (%+.2f%%)", bs.Basis, bs.Pct),
		"structure " + bs.Structure,
		fmt.Sprintf("%d days to expiry, %s rollover pressure", days, strings.ToLower(ro.Pressure)),
	}
	if bs.Arbitrage {
		parts = append(parts, fmt.Sprintf("arbitrage (annualized basis %+.1f%%)", bs.Annualized))
	}
	res.Reasoning = strings.Join(parts, " | ")
	return res, true
}

// analyzeBuildup classifies price direction against OI direction. The prior
// OI is reconstructed as current OI minus the change.
func analyzeBuildup(priceChange, oi, oiChange float64) buildupResult {
	prevOI := oi - oiChange
	r := buildupResult{Type: model.NoBuildup, Bias: BiasNeutral}
	if prevOI > 0 {
		r.OIPct = oiChange / prevOI * 100
	}
	switch {
	case priceChange > 0 && oiChange > 0:
		r.Type, r.Bias, r.Strength = model.LongBuildup, BiasBullish, math.Abs(r.OIPct)/5
	case priceChange < 0 && oiChange > 0:
		r.Type, r.Bias, r.Strength = model.ShortBuildup, BiasBearish, math.Abs(r.OIPct)/5
	case priceChange < 0 && oiChange < 0:
		r.Type, r.Bias, r.Strength = model.LongUnwinding, BiasBearish, math.Abs(r.OIPct)/3
	case priceChange > 0 && oiChange < 0:
		r.Type, r.Bias, r.Strength = model.ShortCovering, BiasBullish, math.Abs(r.OIPct)/3
	}
	r.Strength = math.Min(r.Strength, 100)
	switch {
	case r.Strength >= 15:
		r.Level = "STRONG"
	case r.Strength >= 8:
		r.Level = "MODERATE"
	default:
		r.Level = "WEAK"
	}
	return r
}

// analyzeBasis expects spot > 0; AnalyzeFutures drops snapshots without one.
func analyzeBasis(futPrice, spot float64, days int, p Params) basisResult {
	r := basisResult{Basis: futPrice - spot}
	r.Pct = r.Basis / spot * 100
	if days > 0 {
		r.Annualized = r.Pct * 365 / float64(days)
	}
	switch {
	case r.Pct > 0.5:
		r.Structure = "CONTANGO"
	case r.Pct < -0.2:
		r.Structure = "BACKWARDATION"
	default:
		r.Structure = "NEUTRAL"
	}
	r.Arbitrage = math.Abs(r.Annualized) > p.ArbitrageAnnual
	return r
}

func analyzeRollover(days int, oiCurrent, oiNext float64) rolloverResult {
	if days <= 0 {
		return rolloverResult{Pressure: "HIGH"}
	}
	r := rolloverResult{Pressure: "LOW"}
	switch {
	case days <= 3:
		r.Pressure = "HIGH"
	case days <= 7:
		r.Pressure = "MEDIUM"
	}
	r.Cost = calculator.Clamp(float64(10-days)*0.2, 0.1, 2.0)
	if oiNext > 0 && oiCurrent/(oiCurrent+oiNext) > 0.8 {
		if days <= 5 {
			r.Pressure = "HIGH"
		} else {
			r.Pressure = "MEDIUM"
		}
	}
	return r
}

func daysToExpiry(expiry string, now time.Time) int {
	d, err := time.ParseInLocation(ExpiryLayout, expiry, marketctx.IST)
	if err != nil {
		return defaultDaysToExpiry
	}
	return marketctx.DaysUntil(now, d)
}
