// Package fixtures holds the static mock data the dashboard renders.
package fixtures

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pulseboard/pulseboard/internal/analytics/table"
)

//go:embed data/dashboard.yaml
var files embed.FS

const embeddedPath = "data/dashboard.yaml"

// Metric is a headline KPI before formatting.
type Metric struct {
	Key    string  `yaml:"key"`
	Title  string  `yaml:"title"`
	Kind   string  `yaml:"kind"`
	Raw    float64 `yaml:"raw"`
	Change float64 `yaml:"change"`
}

// Campaign is the YAML shape of a campaign row. Money stays textual until
// converted so no precision is lost through float parsing.
type Campaign struct {
	ID          int64   `yaml:"id"`
	Name        string  `yaml:"name"`
	Status      string  `yaml:"status"`
	Budget      string  `yaml:"budget"`
	Spent       string  `yaml:"spent"`
	Conversions int64   `yaml:"conversions"`
	CTR         float64 `yaml:"ctr"`
	ROAS        float64 `yaml:"roas"`
}

// RevenuePoint is one month of the revenue line chart.
type RevenuePoint struct {
	Month   string  `yaml:"month"`
	Revenue float64 `yaml:"revenue"`
	Users   float64 `yaml:"users"`
}

// PerformancePoint is one campaign of the performance bar chart.
type PerformancePoint struct {
	Campaign    string  `yaml:"campaign"`
	Impressions float64 `yaml:"impressions"`
	Clicks      float64 `yaml:"clicks"`
	Conversions float64 `yaml:"conversions"`
}

// SourceShare is one slice of the conversion source pie chart.
type SourceShare struct {
	Name  string  `yaml:"name"`
	Share float64 `yaml:"share"`
}

// Dataset is the complete mock data set.
type Dataset struct {
	Metrics             []Metric           `yaml:"metrics"`
	Campaigns           []Campaign         `yaml:"campaigns"`
	RevenueTrend        []RevenuePoint     `yaml:"revenue_trend"`
	CampaignPerformance []PerformancePoint `yaml:"campaign_performance"`
	ConversionSources   []SourceShare      `yaml:"conversion_sources"`
}

// Load returns the embedded data set.
func Load() (Dataset, error) {
	raw, err := files.ReadFile(embeddedPath)
	if err != nil {
		return Dataset{}, err
	}
	return Parse(raw)
}

// LoadFile reads a data set from path, falling back to the embedded one when
// path is empty.
func LoadFile(path string) (Dataset, error) {
	if path == "" {
		return Load()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML data set.
func Parse(raw []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("fixtures: decode: %w", err)
	}
	if len(ds.Campaigns) == 0 {
		return Dataset{}, errors.New("fixtures: at least one campaign required")
	}
	seen := make(map[int64]struct{}, len(ds.Campaigns))
	for _, c := range ds.Campaigns {
		if _, dup := seen[c.ID]; dup {
			return Dataset{}, fmt.Errorf("fixtures: duplicate campaign id %d", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return ds, nil
}

// Records converts the campaigns into table records.
func (d Dataset) Records() ([]table.Record, error) {
	out := make([]table.Record, 0, len(d.Campaigns))
	for _, c := range d.Campaigns {
		status := table.Status(c.Status)
		if !status.Known() {
			return nil, fmt.Errorf("fixtures: campaign %d: unknown status %q", c.ID, c.Status)
		}
		budget, err := decimal.NewFromString(c.Budget)
		if err != nil {
			return nil, fmt.Errorf("fixtures: campaign %d budget: %w", c.ID, err)
		}
		spent, err := decimal.NewFromString(c.Spent)
		if err != nil {
			return nil, fmt.Errorf("fixtures: campaign %d spent: %w", c.ID, err)
		}
		out = append(out, table.Record{
			ID:          c.ID,
			Name:        c.Name,
			Status:      status,
			Budget:      budget,
			Spent:       spent,
			Conversions: c.Conversions,
			CTR:         c.CTR,
			ROAS:        c.ROAS,
		})
	}
	return out, nil
}
