// Package pricing maps supplier cost prices to marked-up listing prices via
// a tiered-rate table. The business swaps multiplier tables without notice,
// so tables are configuration, not code: two known generations ship built in
// and a YAML file can replace either.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Tier is one half-open cost interval [Low, High) with its multiplier. The
// last tier of a table is unbounded above (High = 0 means +Inf).
type Tier struct {
	Low        float64 `yaml:"low"`
	High       float64 `yaml:"high"`
	Multiplier float64 `yaml:"multiplier"`
}

// Table is an ordered, exhaustive, non-overlapping set of tiers covering
// [0, +Inf).
type Table struct {
	Name  string `yaml:"name"`
	Tiers []Tier `yaml:"tiers"`
}

// ErrNonPositiveCost rejects zero or negative costs: the feed never carries
// them for sellable items, so pricing one is a caller bug, not a tier choice.
var ErrNonPositiveCost = errors.New("cost must be positive")

// Price returns cost multiplied by the matching tier's rate, rounded to two
// decimal places.
func (t *Table) Price(cost float64) (float64, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("price %v: %w", cost, ErrNonPositiveCost)
	}
	for _, tier := range t.Tiers {
		if cost >= tier.Low && (tier.High == 0 || cost < tier.High) {
			return Round(cost * tier.Multiplier), nil
		}
	}
	return 0, fmt.Errorf("no tier covers cost %v in table %s", cost, t.Name)
}

// Validate checks that the tiers are ordered, contiguous from zero, and end
// with an unbounded tier.
func (t *Table) Validate() error {
	if len(t.Tiers) == 0 {
		return fmt.Errorf("table %s has no tiers", t.Name)
	}
	if t.Tiers[0].Low != 0 {
		return fmt.Errorf("table %s: first tier must start at 0", t.Name)
	}
	for i, tier := range t.Tiers {
		last := i == len(t.Tiers)-1
		if last {
			if tier.High != 0 {
				return fmt.Errorf("table %s: last tier must be unbounded", t.Name)
			}
			continue
		}
		if tier.High <= tier.Low {
			return fmt.Errorf("table %s: tier %d is empty", t.Name, i)
		}
		if t.Tiers[i+1].Low != tier.High {
			return fmt.Errorf("table %s: gap between tiers %d and %d", t.Name, i, i+1)
		}
	}
	return nil
}

// Round rounds to two decimal places, the precision of the feed format.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Format renders a price the way the catalog document stores it.
func Format(v float64) string {
	return strconv.FormatFloat(Round(v), 'f', 2, 64)
}

// sortTiers keeps file-loaded tables deterministic even if authored out of
// order.
func sortTiers(tiers []Tier) {
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Low < tiers[j].Low })
}
