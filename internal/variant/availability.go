package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Availability describes whether a selection can be purchased.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// CheckAvailability reports whether every required group is selected and
// every selected option exists and is available.
func CheckAvailability(selected Selection, cfg *Config) Availability {
	if cfg == nil {
		return Availability{Available: true}
	}
	var missing []string
	for _, g := range cfg.Groups {
		if g.Required && selected[g.ID] == "" {
			missing = append(missing, groupLabel(g))
		}
	}
	if len(missing) > 0 {
		return Availability{Reason: "Please select: " + strings.Join(missing, ", ")}
	}
	for _, g := range cfg.Groups {
		optionID, ok := selected[g.ID]
		if !ok || optionID == "" {
			continue
		}
		opt, ok := g.Option(optionID)
		if !ok {
			return Availability{Reason: "Invalid selection for " + groupLabel(g)}
		}
		if !opt.IsAvailable() {
			return Availability{Reason: opt.Label + " is currently unavailable"}
		}
	}
	return Availability{Available: true}
}

// Validate checks the structural integrity of a configuration and returns
// every problem found.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return nil
	}
	var errs []error
	if len(cfg.Groups) == 0 {
		errs = append(errs, errors.New("at least one variant group is required"))
	}
	groupIDs := make(map[string]struct{}, len(cfg.Groups))
	for i, g := range cfg.Groups {
		pos := i + 1
		if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("group %d: id and name are required", pos))
		}
		if _, dup := groupIDs[g.ID]; dup && g.ID != "" {
			errs = append(errs, fmt.Errorf("duplicate group id %q", g.ID))
		}
		groupIDs[g.ID] = struct{}{}
		if len(g.Options) == 0 {
			errs = append(errs, fmt.Errorf("group %d: at least one option is required", pos))
			continue
		}
		optionIDs := make(map[string]struct{}, len(g.Options))
		defaults := 0
		for j, opt := range g.Options {
			if strings.TrimSpace(opt.ID) == "" || strings.TrimSpace(opt.Label) == "" {
				errs = append(errs, fmt.Errorf("group %d, option %d: id and label are required", pos, j+1))
			}
			if _, dup := optionIDs[opt.ID]; dup && opt.ID != "" {
				errs = append(errs, fmt.Errorf("group %d: duplicate option id %q", pos, opt.ID))
			}
			optionIDs[opt.ID] = struct{}{}
			if opt.Default {
				defaults++
			}
		}
		if defaults > 1 {
			errs = append(errs, fmt.Errorf("group %d: more than one default option", pos))
		}
	}
	for i, rule := range cfg.Rules {
		pos := i + 1
		if rule.Kind != RuleFixed && rule.Kind != RulePercentage {
			errs = append(errs, fmt.Errorf("pricing rule %d: type must be %q or %q", pos, RuleFixed, RulePercentage))
		}
		if len(rule.Conditions) == 0 {
			errs = append(errs, fmt.Errorf("pricing rule %d: conditions are required", pos))
		}
	}
	return errs
}

// Combinations lists every selection that picks one available option per
// group. A config without groups yields a single empty selection.
func Combinations(cfg *Config) []Selection {
	combos := []Selection{{}}
	if cfg == nil {
		return combos
	}
	for _, g := range cfg.Groups {
		var next []Selection
		for _, base := range combos {
			for _, opt := range g.Options {
				if !opt.IsAvailable() {
					continue
				}
				sel := base.Clone()
				sel[g.ID] = opt.ID
				next = append(next, sel)
			}
		}
		combos = next
	}
	return combos
}

// CombinationCount is len(Combinations(cfg)) without building the
// selections: the product of available option counts per group.
func CombinationCount(cfg *Config) int {
	n := 1
	if cfg == nil {
		return n
	}
	for _, g := range cfg.Groups {
		available := 0
		for _, opt := range g.Options {
			if opt.IsAvailable() {
				available++
			}
		}
		n *= available
		if n == 0 {
			return 0
		}
	}
	return n
}

// DescribeSelection renders a selection for humans, e.g. "Color: Blue, Size: L".
// Unknown groups and options fall back to their raw ids.
func DescribeSelection(selected Selection, cfg *Config) string {
	if len(selected) == 0 {
		return ""
	}
	labels := make([]string, 0, len(selected))
	for _, groupID := range sortedKeys(selected) {
		optionID := selected[groupID]
		g, ok := cfg.Group(groupID)
		if !ok {
			labels = append(labels, groupID+": "+optionID)
			continue
		}
		label := optionID
		if opt, ok := g.Option(optionID); ok && opt.Label != "" {
			label = opt.Label
		}
		labels = append(labels, groupLabel(g)+": "+label)
	}
	return strings.Join(labels, ", ")
}

func groupLabel(g Group) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}
