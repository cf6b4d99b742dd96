package variant

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AppliedRule records one price adjustment that contributed to a Calculation.
// Rule is set only for conditional pricing rules.
type AppliedRule struct {
	GroupID  string          `json:"groupId,omitempty"`
	OptionID string          `json:"optionId,omitempty"`
	Modifier decimal.Decimal `json:"modifier"`
	Rule     *Rule           `json:"rule,omitempty"`
}

// Calculation is the result of resolving a selection against a base price.
type Calculation struct {
	BasePrice     decimal.Decimal `json:"basePrice"`
	TotalModifier decimal.Decimal `json:"totalModifier"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
	AppliedRules  []AppliedRule   `json:"appliedRules"`
}

// DefaultSelection picks the default option of every group. Required groups
// without a default fall back to their first available option; other groups
// stay unselected.
func DefaultSelection(cfg *Config) Selection {
	sel := Selection{}
	if cfg == nil {
		return sel
	}
	for _, g := range cfg.Groups {
		if g.ID == "" {
			continue
		}
		if _, done := sel[g.ID]; done {
			continue
		}
		picked := ""
		for _, opt := range g.Options {
			if opt.Default {
				picked = opt.ID
				break
			}
		}
		if picked == "" && g.Required {
			for _, opt := range g.Options {
				if opt.IsAvailable() {
					picked = opt.ID
					break
				}
			}
		}
		if picked != "" {
			sel[g.ID] = picked
		}
	}
	return sel
}

// CalculatePrice resolves selected options against cfg and sums their price
// modifiers onto base. Entries naming an unknown group or option are skipped.
// No rounding or clamping happens here; FinalPrice may be negative.
func CalculatePrice(base decimal.Decimal, selected Selection, cfg *Config) Calculation {
	if cfg == nil || len(selected) == 0 {
		return Calculation{
			BasePrice:     base,
			TotalModifier: decimal.Zero,
			FinalPrice:    base,
			AppliedRules:  []AppliedRule{},
		}
	}

	total := decimal.Zero
	applied := make([]AppliedRule, 0, len(selected))
	seen := make(map[string]struct{}, len(cfg.Groups))
	// walk groups in configuration order so the breakdown is stable
	for _, g := range cfg.Groups {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		optionID, ok := selected[g.ID]
		if !ok {
			continue
		}
		opt, ok := g.Option(optionID)
		if !ok {
			continue
		}
		total = total.Add(opt.PriceModifier)
		applied = append(applied, AppliedRule{
			GroupID:  g.ID,
			OptionID: opt.ID,
			Modifier: opt.PriceModifier,
		})
	}

	for i := range cfg.Rules {
		rule := cfg.Rules[i]
		if !rule.matches(selected) {
			continue
		}
		amount := rule.Modifier
		if rule.Kind == RulePercentage {
			amount = base.Mul(rule.Modifier).Div(decimal.NewFromInt(100))
		}
		total = total.Add(amount)
		applied = append(applied, AppliedRule{Modifier: amount, Rule: &rule})
	}

	return Calculation{
		BasePrice:     base,
		TotalModifier: total,
		FinalPrice:    base.Add(total),
		AppliedRules:  applied,
	}
}

func (r Rule) matches(selected Selection) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for groupID, optionID := range r.Conditions {
		if selected[groupID] != optionID {
			return false
		}
	}
	return true
}

// GenerateSKU appends one token per selected option to baseSKU. Tokens are
// ordered by group id so the same selection always yields the same SKU.
func GenerateSKU(baseSKU string, selected Selection) string {
	if baseSKU == "" || len(selected) == 0 {
		return baseSKU
	}
	parts := make([]string, 0, len(selected))
	for _, groupID := range sortedKeys(selected) {
		token := skuToken(groupID, selected[groupID])
		if token == "" {
			continue
		}
		parts = append(parts, token)
	}
	if len(parts) == 0 {
		return baseSKU
	}
	return baseSKU + "-" + strings.Join(parts, "-")
}

func skuToken(groupID, optionID string) string {
	var b strings.Builder
	for _, r := range groupID {
		if isSKURune(r) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	for _, r := range optionID {
		if isSKURune(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func isSKURune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
