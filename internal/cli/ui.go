package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/irfndi/stockai-go/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2).
		Width(72)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Width(18)

	buyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	sellStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	holdStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)
)

func actionStyle(a models.Action) lipgloss.Style {
	switch a {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

func sentimentStyle(l models.SentimentLabel) lipgloss.Style {
	switch l {
	case models.SentimentPositive:
		return buyStyle
	case models.SentimentNegative:
		return sellStyle
	default:
		return holdStyle
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func formatOptional(v models.Optional[float64], precision int) string {
	value, ok := v.Get()
	if !ok {
		return mutedStyle.Render("unavailable")
	}
	return fmt.Sprintf("%.*f", precision, value)
}

func renderAnalysis(w io.Writer, r *models.AnalysisResult) {
	rows := []string{
		row("Price", fmt.Sprintf("$%.2f", r.CurrentPrice)),
		row("RSI (14)", formatOptional(r.Indicators.RSI, 2)),
		row("MA (20)", formatOptional(r.Indicators.MA20, 2)),
		row("MACD", formatOptional(r.Indicators.MACD, 4)),
		row("Data points", fmt.Sprintf("%d", r.PriceHistoryLength)),
		"",
		row("Decision", actionStyle(r.Decision.Action).Render(string(r.Decision.Action))),
		row("Confidence", fmt.Sprintf("%.0f%%", r.Decision.Confidence*100)),
		row("Reason", r.Decision.Reason),
	}

	switch r.SentimentStatus {
	case models.SentimentIncluded:
		if s, ok := r.Sentiment.Get(); ok {
			rows = append(rows, "",
				row("Sentiment", sentimentStyle(s.OverallSentiment).Render(string(s.OverallSentiment))),
				row("Score", fmt.Sprintf("%+.3f (%d headlines)", s.OverallScore, s.TextsAnalyzed)),
			)
		}
	case models.SentimentUnavailable:
		rows = append(rows, "", row("Sentiment", mutedStyle.Render("unavailable: "+r.SentimentError)))
	}

	title := titleStyle.Render(fmt.Sprintf("%s · %s", r.Symbol, r.Period))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, panelStyle.Render(strings.Join(rows, "\n")))
}

func renderReport(w io.Writer, r *models.Report) {
	reading := func(label string, v models.IndicatorReading, precision int) string {
		return row(label, formatOptional(v.Value, precision)+"  "+mutedStyle.Render(v.Interpretation))
	}

	rows := []string{
		r.Summary,
		"",
		row("Price", fmt.Sprintf("$%.2f", r.CurrentPrice)),
		reading("RSI", r.RSI, 2),
		reading("MA (20)", r.MA20, 2),
		reading("MACD", r.MACD, 4),
		"",
		row("Signals", fmt.Sprintf("%d bullish, %d bearish (%s)", r.Signals.Bullish, r.Signals.Bearish, r.Signals.OverallStrength)),
		row("Decision", actionStyle(r.Decision.Action).Render(string(r.Decision.Action))+
			fmt.Sprintf(" at %.0f%%", r.Decision.Confidence*100)),
		row("Risk", string(r.Risk.Level)+"  "+mutedStyle.Render(r.Risk.Recommendation)),
		"",
		r.Recommendation,
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s report · %d data points", r.Symbol, r.DataPoints)))
	fmt.Fprintln(w, panelStyle.Render(strings.Join(rows, "\n")))
}

func renderSentiment(w io.Writer, texts []string, s *models.SentimentSummary) {
	rows := make([]string, 0, len(texts)+3)
	for i, text := range texts {
		label := s.Interpretations[i]
		rows = append(rows, fmt.Sprintf("%s %+.3f  %s",
			sentimentStyle(label).Render(fmt.Sprintf("%-8s", label)), s.IndividualScores[i], truncate(text, 48)))
	}
	rows = append(rows, "",
		row("Overall", sentimentStyle(s.OverallSentiment).Render(string(s.OverallSentiment))+
			fmt.Sprintf(" %+.3f", s.OverallScore)),
		row("Confidence", fmt.Sprintf("%.0f%%", s.Confidence*100)),
	)

	fmt.Fprintln(w, titleStyle.Render("Sentiment"))
	fmt.Fprintln(w, panelStyle.Render(strings.Join(rows, "\n")))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
