// Package strategy decides when and how much of a position to exit.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reason identifies which exit rule fired.
type Reason string

const (
	ReasonTakeProfit   Reason = "take_profit"
	ReasonTrailingStop Reason = "trailing_stop"
	ReasonHardStop     Reason = "hard_stop"
	ReasonTimeExit     Reason = "time_exit"
)

// Tier is one step of the take-profit ladder: once the price reaches
// Multiplier times entry, sell until TargetFraction of the position is gone.
type Tier struct {
	Multiplier     float64 `mapstructure:"multiplier" yaml:"multiplier"`
	TargetFraction float64 `mapstructure:"target_fraction" yaml:"target_fraction"`
}

// Rules are the exit thresholds.
type Rules struct {
	Tiers                   []Tier
	TrailingStartMultiplier float64
	TrailingStopFactor      float64
	HardStopFactor          float64
	MaxHold                 time.Duration
	TimeExitMultiplier      float64
}

// DefaultRules returns the stock ladder: 2x→30%, 5x→60%, 10x→90%, trailing
// stop at 75% of the high once above 2x, hard stop at 70% of entry, and a
// 30 minute time exit below 1.2x.
func DefaultRules() Rules {
	return Rules{
		Tiers: []Tier{
			{Multiplier: 2.0, TargetFraction: 0.30},
			{Multiplier: 5.0, TargetFraction: 0.60},
			{Multiplier: 10.0, TargetFraction: 0.90},
		},
		TrailingStartMultiplier: 2.0,
		TrailingStopFactor:      0.75,
		HardStopFactor:          0.7,
		MaxHold:                 30 * time.Minute,
		TimeExitMultiplier:      1.2,
	}
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	prevMult, prevFrac := 0.0, 0.0
	for i, t := range r.Tiers {
		if t.Multiplier <= 0 {
			return fmt.Errorf("tier %d: multiplier must be positive", i+1)
		}
		if t.TargetFraction <= 0 || t.TargetFraction > 1 {
			return fmt.Errorf("tier %d: target fraction must be in (0, 1]", i+1)
		}
		if t.Multiplier <= prevMult {
			return fmt.Errorf("tier %d: multipliers must be strictly ascending", i+1)
		}
		if t.TargetFraction < prevFrac {
			return fmt.Errorf("tier %d: target fractions must not decrease", i+1)
		}
		prevMult, prevFrac = t.Multiplier, t.TargetFraction
	}
	if r.TrailingStartMultiplier <= 0 {
		return fmt.Errorf("trailing start multiplier must be positive")
	}
	if r.TrailingStopFactor <= 0 {
		return fmt.Errorf("trailing stop factor must be positive")
	}
	if r.HardStopFactor <= 0 {
		return fmt.Errorf("hard stop factor must be positive")
	}
	if r.MaxHold <= 0 {
		return fmt.Errorf("max hold must be positive")
	}
	if r.TimeExitMultiplier <= 0 {
		return fmt.Errorf("time exit multiplier must be positive")
	}
	return nil
}

// ParseTiers parses a ladder written as "2:0.30,5:0.60,10:0.90".
// Tiers are returned sorted by multiplier.
func ParseTiers(s string) ([]Tier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var tiers []Tier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mult, frac, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid tier %q: expected multiplier:fraction", part)
		}
		m, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(mult, "x")), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tier multiplier %q: %w", mult, err)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(frac), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tier fraction %q: %w", frac, err)
		}
		tiers = append(tiers, Tier{Multiplier: m, TargetFraction: f})
	}

	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Multiplier < tiers[j].Multiplier
	})
	return tiers, nil
}

// FormatTiers is the inverse of ParseTiers.
func FormatTiers(tiers []Tier) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = strconv.FormatFloat(t.Multiplier, 'f', -1, 64) + ":" +
			strconv.FormatFloat(t.TargetFraction, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
