package analytics

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pulseboard/pulseboard/internal/analytics/fixtures"
)

// ChangeType classifies the direction of a KPI movement.
type ChangeType string

const (
	ChangePositive ChangeType = "positive"
	ChangeNegative ChangeType = "negative"
)

// Metric kinds understood by the formatter.
const (
	KindCurrency = "currency"
	KindCount    = "count"
	KindPercent  = "percent"
)

// Metric is one headline KPI card.
type Metric struct {
	Key        string     `json:"key"`
	Title      string     `json:"title"`
	Value      string     `json:"value"`
	Change     string     `json:"change"`
	ChangeType ChangeType `json:"change_type"`
	Raw        float64    `json:"raw"`
}

// BuildMetrics formats the raw fixture metrics for display.
func BuildMetrics(in []fixtures.Metric) []Metric {
	p := message.NewPrinter(language.English)
	out := make([]Metric, 0, len(in))
	for _, m := range in {
		out = append(out, Metric{
			Key:        m.Key,
			Title:      m.Title,
			Value:      formatValue(p, m.Kind, m.Raw),
			Change:     formatChange(m.Change),
			ChangeType: changeType(m.Change),
			Raw:        m.Raw,
		})
	}
	return out
}

func formatValue(p *message.Printer, kind string, raw float64) string {
	switch kind {
	case KindCurrency:
		return p.Sprintf("$%d", int64(math.Round(raw)))
	case KindPercent:
		return p.Sprintf("%.1f%%", raw)
	default:
		return p.Sprintf("%d", int64(math.Round(raw)))
	}
}

func formatChange(change float64) string {
	if change >= 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}

func changeType(change float64) ChangeType {
	if change < 0 {
		return ChangeNegative
	}
	return ChangePositive
}
