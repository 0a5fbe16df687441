package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

func sentimentIcon(s model.Sentiment) string {
	switch s {
	case model.StronglyBullish:
		return "🟢🟢"
	case model.Bullish:
		return "🟢"
	case model.Bearish:
		return "🔴"
	case model.StronglyBearish:
		return "🔴🔴"
	default:
		return "⚪"
	}
}

func futuresIcon(s model.FuturesSignal) string {
	switch s {
	case model.FuturesBullish:
		return "🟢"
	case model.FuturesBearish:
		return "🔴"
	case model.FuturesArbitrage:
		return "🔁"
	default:
		return "⚪"
	}
}

func price(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// FormatOptionDigest formats the strongest option-chain results of a cycle.
func FormatOptionDigest(results []*model.AnalysisResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>F&amp;O Sentiment</b> | %s IST\n\n", at.In(marketctx.IST).Format("2006-01-02 15:04")))
	if len(results) == 0 {
		b.WriteString("No meaningful signals this cycle.")
		return b.String()
	}
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> %s | score %+.0f | conf %.0f%%\n",
			i+1, sentimentIcon(r.Sentiment), html.EscapeString(r.Symbol), r.Sentiment, r.Score, r.Confidence))
		b.WriteString(fmt.Sprintf("   spot %s | PCR %.2f | max pain %s\n", price(r.SpotPrice), r.PCR, price(r.MaxPain)))
		if r.Target1 > 0 {
			b.WriteString(fmt.Sprintf("   T1 %s | T2 %s | SL %s | R:R %.1f\n",
				price(r.Target1), price(r.Target2), price(r.StopLoss), r.RiskReward))
		}
	}
	return b.String()
}

// FormatOptionDetail formats a single option-chain result with its reasoning.
func FormatOptionDetail(r *model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n\n", sentimentIcon(r.Sentiment), html.EscapeString(r.Symbol), r.Sentiment))
	b.WriteString(fmt.Sprintf("Score: %+.1f | Confidence: %.0f%%\n", r.Score, r.Confidence))
	b.WriteString(fmt.Sprintf("Spot: %s | PCR: %.2f (norm %.2f)\n", price(r.SpotPrice), r.PCR, r.NormalizedPCR))
	if r.PreviousPCR != nil {
		b.WriteString(fmt.Sprintf("PCR change: %+.1f%% from %.2f\n", r.PCRChangePct, *r.PreviousPCR))
	}
	b.WriteString(fmt.Sprintf("Zone: %s (%s)\n", r.Zone.Name, r.Zone.Bias))
	if len(r.SupportLevels) > 0 {
		b.WriteString(fmt.Sprintf("Support: %s\n", joinPrices(r.SupportLevels)))
	}
	if len(r.ResistanceLevels) > 0 {
		b.WriteString(fmt.Sprintf("Resistance: %s\n", joinPrices(r.ResistanceLevels)))
	}
	b.WriteString(fmt.Sprintf("Net flow: %+.1f (bull %.1f / bear %.1f)\n", r.NetFlow, r.BullishFlow, r.BearishFlow))

	b.WriteString("\n📈 <b>Contributions:</b>\n")
	for _, c := range r.Contributions {
		if c.Score == 0 && c.Confidence == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %+.1f\n", c.Name, c.Score))
	}
	if r.Reasoning != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", html.EscapeString(r.Reasoning)))
	}
	return b.String()
}

// FormatFuturesDigest formats the strongest futures results of a cycle.
func FormatFuturesDigest(results []*model.FuturesResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Futures Buildup</b> | %s IST\n\n", at.In(marketctx.IST).Format("2006-01-02 15:04")))
	if len(results) == 0 {
		b.WriteString("No futures signals this cycle.")
		return b.String()
	}
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> %s | strength %.0f | conf %.0f%%\n",
			i+1, futuresIcon(r.Signal), html.EscapeString(r.Symbol), r.Signal, r.Strength, r.Confidence))
		b.WriteString(fmt.Sprintf("   %s (%s) | OI %s (%+.1f%%) | basis %+.2f%%\n",
			r.Buildup, r.BuildupStrength, humanize.Comma(int64(math.Round(r.CurrentOI))), r.OIChangePct, r.BasisPct))
		b.WriteString(fmt.Sprintf("   %dd to expiry | rollover %s\n", r.DaysToExpiry, r.RolloverPressure))
	}
	return b.String()
}

// FormatTurnoverAlerts formats the turnover surges of a cycle, amounts in
// crore.
func FormatTurnoverAlerts(surges []model.TurnoverSurge, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚀 <b>Smart Money Flow</b> | %s IST\n\n", at.In(marketctx.IST).Format("2006-01-02 15:04")))
	if len(surges) == 0 {
		b.WriteString("No turnover surges this cycle.")
		return b.String()
	}
	for i, sg := range surges {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> turnover surged %.1f%% to ₹%sCr (vs ₹%sCr on %s)\n",
			i+1, html.EscapeString(sg.Symbol), sg.IncreasePct,
			price(sg.Turnover/model.Crore), price(sg.PreviousTurnover/model.Crore), sg.PreviousDate))
	}
	return b.String()
}

// FormatCycleSummary formats the outcome of the last cycle of a kind.
func FormatCycleSummary(s model.CycleStats) string {
	if s.StartedAt.IsZero() {
		return fmt.Sprintf("⏳ No %s cycle has run yet.", s.Kind)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛰 <b>%s cycle</b> %s\n", s.Kind, humanize.Time(s.StartedAt)))
	b.WriteString(fmt.Sprintf("Symbols: %d | analyzed %d | stored %d\n", s.Symbols, s.Analyzed, s.Stored))
	b.WriteString(fmt.Sprintf("Skipped: %d | errors %d\n", s.Skipped, s.Errors))
	b.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration().Round(time.Millisecond)))
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "Available commands:\n" +
		"• /status - last cycle summary\n" +
		"• /run - run an option-chain cycle now\n" +
		"• /futures - run a futures cycle now\n" +
		"• /turnover - check index constituents for turnover surges\n" +
		"• /top - strongest signals of the last cycle\n" +
		"• /help - this message"
}

func joinPrices(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = price(l)
	}
	return strings.Join(parts, ", ")
}
