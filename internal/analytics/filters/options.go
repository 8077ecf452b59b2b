package filters

// Key names one field of the advanced filter overlay.
type Key string

// Filter fields in display order.
const (
	KeyDateRange  Key = "dateRange"
	KeyCampaign   Key = "campaign"
	KeyRevenue    Key = "revenue"
	KeyConversion Key = "conversion"
	KeySource     Key = "source"
)

// Keys lists every field in display order.
var Keys = []Key{KeyDateRange, KeyCampaign, KeyRevenue, KeyConversion, KeySource}

// ValueAll is the neutral value of every field except the date range.
const ValueAll = "all"

// Option is one selectable value of a field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var options = map[Key][]Option{
	KeyDateRange: {
		{Value: "7days", Label: "Last 7 days"},
		{Value: "30days", Label: "Last 30 days"},
		{Value: "3months", Label: "Last 3 months"},
		{Value: "6months", Label: "Last 6 months"},
		{Value: "1year", Label: "Last year"},
		{Value: "custom", Label: "Custom range"},
	},
	KeyCampaign: {
		{Value: ValueAll, Label: "All campaigns"},
		{Value: "active", Label: "Active only"},
		{Value: "paused", Label: "Paused only"},
		{Value: "completed", Label: "Completed only"},
	},
	KeyRevenue: {
		{Value: ValueAll, Label: "All revenue ranges"},
		{Value: "high", Label: "$50k+ revenue"},
		{Value: "medium", Label: "$10k - $50k revenue"},
		{Value: "low", Label: "Under $10k revenue"},
	},
	KeyConversion: {
		{Value: ValueAll, Label: "All conversion rates"},
		{Value: "high", Label: "Above 4% CTR"},
		{Value: "medium", Label: "2% - 4% CTR"},
		{Value: "low", Label: "Under 2% CTR"},
	},
	KeySource: {
		{Value: ValueAll, Label: "All sources"},
		{Value: "organic", Label: "Organic search"},
		{Value: "paid", Label: "Paid ads"},
		{Value: "social", Label: "Social media"},
		{Value: "email", Label: "Email marketing"},
	},
}

// Options returns the selectable values for key, or nil when key is unknown.
func Options(key Key) []Option {
	opts, ok := options[key]
	if !ok {
		return nil
	}
	out := make([]Option, len(opts))
	copy(out, opts)
	return out
}

// Label resolves the display label of value for key.
func Label(key Key, value string) (string, bool) {
	for _, opt := range options[key] {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}
