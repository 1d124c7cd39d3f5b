package strategy

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Decision is a single exit action for one position.
type Decision struct {
	Reason     Reason
	Percent    int  // percent of the original size to sell
	Full       bool // sell everything that remains
	Tier       Tier // the ladder step, for take-profit decisions
	Multiplier float64
}

// Label is the human-readable sell reason.
func (d Decision) Label() string {
	switch d.Reason {
	case ReasonTakeProfit:
		return strconv.FormatFloat(d.Tier.Multiplier, 'f', -1, 64) + "x take profit"
	case ReasonTrailingStop:
		return "Trailing stop hit"
	case ReasonHardStop:
		return "Hard stop loss"
	case ReasonTimeExit:
		return "Time-based exit"
	default:
		return string(d.Reason)
	}
}

func (d Decision) String() string {
	return fmt.Sprintf("%s: sell %d%% at %.2fx", d.Label(), d.Percent, d.Multiplier)
}

// Evaluate returns at most one exit action for p at the freshly observed price.
//
// The caller must have folded price into p (high-water mark, last price)
// before calling. Nothing is decided while the entry price is unknown.
// Rules are checked in priority order and the first match ends the
// evaluation: take-profit ladder, trailing stop, hard stop, time exit.
// A matched rule whose sell percentage rounds to zero yields no action.
func (r Rules) Evaluate(p position.Position, price float64, now time.Time) (Decision, bool) {
	if p.EntryPrice <= 0 || price <= 0 || p.Closed() {
		return Decision{}, false
	}
	multiplier := price / p.EntryPrice

	for _, tier := range r.Tiers {
		if multiplier >= tier.Multiplier && p.SoldFraction < tier.TargetFraction {
			pct := sellPercent(tier.TargetFraction, p.SoldFraction)
			if pct <= 0 {
				return Decision{}, false
			}
			return Decision{
				Reason:     ReasonTakeProfit,
				Percent:    pct,
				Full:       tier.TargetFraction >= 1,
				Tier:       tier,
				Multiplier: multiplier,
			}, true
		}
	}

	// Trailing stop is gated on the current multiplier, not on whether the
	// position ever crossed the start threshold.
	if multiplier >= r.TrailingStartMultiplier && price <= p.HighWaterPrice*r.TrailingStopFactor {
		return r.exitAll(ReasonTrailingStop, p, multiplier)
	}

	if price <= p.EntryPrice*r.HardStopFactor {
		return r.exitAll(ReasonHardStop, p, multiplier)
	}

	if now.Sub(p.OpenedAt) > r.MaxHold && multiplier < r.TimeExitMultiplier {
		return r.exitAll(ReasonTimeExit, p, multiplier)
	}

	return Decision{}, false
}

func (r Rules) exitAll(reason Reason, p position.Position, multiplier float64) (Decision, bool) {
	pct := sellPercent(1, p.SoldFraction)
	if pct <= 0 {
		return Decision{}, false
	}
	return Decision{
		Reason:     reason,
		Percent:    pct,
		Full:       true,
		Multiplier: multiplier,
	}, true
}

// sellPercent is round((target - sold) * 100), rounding halves away from zero.
func sellPercent(target, sold float64) int {
	return int(decimal.NewFromFloat(target).
		Sub(decimal.NewFromFloat(sold)).
		Mul(hundred).
		Round(0).
		IntPart())
}
