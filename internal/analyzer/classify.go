package analyzer

import (
	"math"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// classify maps the final score to a sentiment label. With context enabled,
// results week, volatility tier and a high raw PCR can temper the label.
func classify(score, rawPCR float64, prof marketctx.Profile, p Params) model.Sentiment {
	if !p.ContextualSentiment {
		return bySentimentThreshold(score, p)
	}
	if prof.ResultsWeek && math.Abs(score) < 30 {
		return model.Neutral
	}
	adjusted := score
	if prof.HighVolatility() {
		adjusted *= p.HighVolScoreScale
	}
	if rawPCR > 1.8 && adjusted > 0 {
		if prof.Nifty50 && adjusted > 60 {
			return model.Neutral
		}
		return model.Bearish
	}
	if rawPCR > 1.4 && adjusted > 25 {
		if prof.Nifty50 {
			return model.Neutral
		}
		return model.Bearish
	}
	return bySentimentThreshold(adjusted, p)
}

func bySentimentThreshold(score float64, p Params) model.Sentiment {
	switch {
	case score > p.StrongThreshold:
		return model.StronglyBullish
	case score > p.Threshold:
		return model.Bullish
	case score < -p.StrongThreshold:
		return model.StronglyBearish
	case score < -p.Threshold:
		return model.Bearish
	default:
		return model.Neutral
	}
}
