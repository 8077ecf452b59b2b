package analytics

import "github.com/pulseboard/pulseboard/internal/analytics/fixtures"

// Chart types rendered by the dashboard.
const (
	ChartLine = "line"
	ChartBar  = "bar"
	ChartPie  = "pie"
)

// ChartPoint is a labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is one named line, bar group or pie.
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// Chart carries everything a renderer needs for one panel.
type Chart struct {
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	Series []ChartSeries `json:"series"`
}

// Charts groups the three dashboard panels.
type Charts struct {
	Revenue     Chart `json:"revenue"`
	Performance Chart `json:"performance"`
	Sources     Chart `json:"sources"`
}

// BuildCharts shapes the fixture datasets into chart series.
func BuildCharts(ds fixtures.Dataset) Charts {
	revenue := ChartSeries{Name: "Revenue", Data: make([]ChartPoint, 0, len(ds.RevenueTrend))}
	users := ChartSeries{Name: "Users", Data: make([]ChartPoint, 0, len(ds.RevenueTrend))}
	for _, p := range ds.RevenueTrend {
		revenue.Data = append(revenue.Data, ChartPoint{Label: p.Month, Value: p.Revenue})
		users.Data = append(users.Data, ChartPoint{Label: p.Month, Value: p.Users})
	}

	n := len(ds.CampaignPerformance)
	impressions := ChartSeries{Name: "Impressions", Data: make([]ChartPoint, 0, n)}
	clicks := ChartSeries{Name: "Clicks", Data: make([]ChartPoint, 0, n)}
	conversions := ChartSeries{Name: "Conversions", Data: make([]ChartPoint, 0, n)}
	for _, p := range ds.CampaignPerformance {
		impressions.Data = append(impressions.Data, ChartPoint{Label: p.Campaign, Value: p.Impressions})
		clicks.Data = append(clicks.Data, ChartPoint{Label: p.Campaign, Value: p.Clicks})
		conversions.Data = append(conversions.Data, ChartPoint{Label: p.Campaign, Value: p.Conversions})
	}

	sources := ChartSeries{Name: "Conversion Sources", Data: make([]ChartPoint, 0, len(ds.ConversionSources))}
	for _, s := range ds.ConversionSources {
		sources.Data = append(sources.Data, ChartPoint{Label: s.Name, Value: s.Share})
	}

	return Charts{
		Revenue:     Chart{Type: ChartLine, Title: "Revenue Trend", Series: []ChartSeries{revenue, users}},
		Performance: Chart{Type: ChartBar, Title: "Campaign Performance", Series: []ChartSeries{impressions, clicks, conversions}},
		Sources:     Chart{Type: ChartPie, Title: "Conversion Sources", Series: []ChartSeries{sources}},
	}
}
