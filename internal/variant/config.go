package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleKind determines how a conditional pricing rule adjusts the base price.
type RuleKind string

const (
	// RuleFixed adds the modifier amount as-is.
	RuleFixed RuleKind = "fixed"
	// RulePercentage adds modifier percent of the base price.
	RulePercentage RuleKind = "percentage"
)

// Option is one selectable choice within a Group.
type Option struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
	Default       bool            `json:"default,omitempty"`
	Available     *bool           `json:"available,omitempty"`
	Image         string          `json:"image,omitempty"`
}

// IsAvailable reports whether the option can be chosen. Options without an
// explicit flag are available.
func (o Option) IsAvailable() bool {
	return o.Available == nil || *o.Available
}

// Group is a named axis of choice such as "Color" or "Size".
type Group struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Required bool     `json:"required,omitempty"`
	Options  []Option `json:"options"`
}

// Option looks up an option by id.
func (g Group) Option(id string) (Option, bool) {
	for _, opt := range g.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Rule is a conditional price adjustment applied when every condition
// (group id -> option id) matches the selection.
type Rule struct {
	Conditions  map[string]string `json:"conditions"`
	Modifier    decimal.Decimal   `json:"priceModifier"`
	Kind        RuleKind          `json:"type"`
	Description string            `json:"description,omitempty"`
}

// Config is the full variant configuration stored on a product.
type Config struct {
	Groups []Group `json:"groups"`
	Rules  []Rule  `json:"pricingRules,omitempty"`
}

// Group looks up a group by id.
func (c *Config) Group(id string) (Group, bool) {
	if c == nil {
		return Group{}, false
	}
	for _, g := range c.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Selection maps a group id to the chosen option id.
type Selection map[string]string

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Key renders the selection canonically so two equal selections always
// produce the same key regardless of map order.
func (s Selection) Key() string {
	if len(s) == 0 {
		return ""
	}
	keys := sortedKeys(s)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s[k])
	}
	return strings.Join(parts, ";")
}

// ParseConfig normalises a stored variant configuration. Storage may hold the
// object itself, a JSON string wrapping the object, or null; the last yields a
// nil config.
func ParseConfig(raw []byte) (*Config, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("variant: decode wrapped config: %w", err)
		}
		return ParseConfig([]byte(inner))
	}
	var cfg Config
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return nil, fmt.Errorf("variant: decode config: %w", err)
	}
	return &cfg, nil
}

// ParseSelection decodes a stored selection; empty and null values yield an
// empty selection.
func ParseSelection(raw []byte) (Selection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Selection{}, nil
	}
	sel := Selection{}
	if err := json.Unmarshal(trimmed, &sel); err != nil {
		return nil, fmt.Errorf("variant: decode selection: %w", err)
	}
	return sel, nil
}

func sortedKeys(s Selection) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
