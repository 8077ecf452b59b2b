package filters

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownKey is returned for a field the overlay does not offer.
	ErrUnknownKey = errors.New("filters: unknown key")
	// ErrUnknownValue is returned for a value missing from a field's options.
	ErrUnknownValue = errors.New("filters: unknown value")
)

// Params is the full advanced filter selection.
type Params struct {
	DateRange  string `json:"date_range"`
	Campaign   string `json:"campaign"`
	Revenue    string `json:"revenue"`
	Conversion string `json:"conversion"`
	Source     string `json:"source"`
}

// DefaultParams is the neutral selection.
func DefaultParams() Params {
	return Params{
		DateRange:  "30days",
		Campaign:   ValueAll,
		Revenue:    ValueAll,
		Conversion: ValueAll,
		Source:     ValueAll,
	}
}

// Get returns the value of key.
func (p Params) Get(key Key) (string, error) {
	switch key {
	case KeyDateRange:
		return p.DateRange, nil
	case KeyCampaign:
		return p.Campaign, nil
	case KeyRevenue:
		return p.Revenue, nil
	case KeyConversion:
		return p.Conversion, nil
	case KeySource:
		return p.Source, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func (p *Params) set(key Key, value string) error {
	switch key {
	case KeyDateRange:
		p.DateRange = value
	case KeyCampaign:
		p.Campaign = value
	case KeyRevenue:
		p.Revenue = value
	case KeyConversion:
		p.Conversion = value
	case KeySource:
		p.Source = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Chip is one applied, removable filter value.
type Chip struct {
	Key   Key    `json:"key"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChipsFor lists a chip for every field of p that is not neutral and has a
// known label, in display order.
func ChipsFor(p Params) []Chip {
	chips := []Chip{}
	for _, key := range Keys {
		value, _ := p.Get(key)
		if value == ValueAll {
			continue
		}
		label, ok := Label(key, value)
		if !ok {
			continue
		}
		chips = append(chips, Chip{Key: key, Value: value, Label: label})
	}
	return chips
}

// Overlay holds the working selection of the advanced filter dialog and the
// chips of the last committed selection.
type Overlay struct {
	mu      sync.Mutex
	working Params
	chips   []Chip
	notify  func(Params)
}

// NewOverlay starts with the neutral selection. notify may be nil.
func NewOverlay(notify func(Params)) *Overlay {
	return &Overlay{working: DefaultParams(), chips: []Chip{}, notify: notify}
}

// Restore builds an overlay whose selection p is already committed.
func Restore(p Params, notify func(Params)) (*Overlay, error) {
	o := NewOverlay(notify)
	for _, key := range Keys {
		value, _ := p.Get(key)
		if err := o.Set(key, value); err != nil {
			return nil, err
		}
	}
	o.chips = ChipsFor(o.working)
	return o, nil
}

// Set edits the working selection without committing it.
func (o *Overlay) Set(key Key, value string) error {
	if Options(key) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if _, ok := Label(key, value); !ok && value != ValueAll {
		return fmt.Errorf("%w: %s=%s", ErrUnknownValue, key, value)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.working.set(key, value)
}

// Working returns the uncommitted selection.
func (o *Overlay) Working() Params {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.working
}

// Chips returns the chips of the last commit.
func (o *Overlay) Chips() []Chip {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Chip, len(o.chips))
	copy(out, o.chips)
	return out
}

// Apply commits the working selection and notifies the collaborator.
func (o *Overlay) Apply() []Chip {
	o.mu.Lock()
	o.chips = ChipsFor(o.working)
	committed := o.working
	chips := append([]Chip(nil), o.chips...)
	o.mu.Unlock()

	o.fire(committed)
	return chips
}

// Remove resets key to the neutral value, drops its chip and notifies.
func (o *Overlay) Remove(key Key) ([]Chip, error) {
	o.mu.Lock()
	if err := o.working.set(key, ValueAll); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	kept := make([]Chip, 0, len(o.chips))
	for _, chip := range o.chips {
		if chip.Key != key {
			kept = append(kept, chip)
		}
	}
	o.chips = kept
	committed := o.working
	chips := append([]Chip(nil), kept...)
	o.mu.Unlock()

	o.fire(committed)
	return chips, nil
}

// ClearAll restores the neutral selection, drops every chip and notifies.
func (o *Overlay) ClearAll() {
	o.mu.Lock()
	o.working = DefaultParams()
	o.chips = []Chip{}
	committed := o.working
	o.mu.Unlock()

	o.fire(committed)
}

func (o *Overlay) fire(p Params) {
	if o.notify != nil {
		o.notify(p)
	}
}
