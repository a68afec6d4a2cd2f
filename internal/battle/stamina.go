package battle

import (
	"fmt"
	"math"
	"strings"
)

// Tier classifies both heroes and team slot positions.
type Tier int

const (
	TierCommoner Tier = iota + 1
	TierElite
	TierLegendary
)

// SummonSlot is the team slot reserved for the summon. It has no tier.
const SummonSlot = 7

func (t Tier) String() string {
	switch t {
	case TierCommoner:
		return "COMMONER"
	case TierElite:
		return "ELITE"
	case TierLegendary:
		return "LEGENDARY"
	default:
		return "UNKNOWN"
	}
}

func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMMONER":
		return TierCommoner, nil
	case "ELITE":
		return TierElite, nil
	case "LEGENDARY":
		return TierLegendary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SlotTier returns the tier of a hero slot: 1-3 commoner, 4-5 elite,
// 6 legendary. Any other slot is untiered.
func SlotTier(slot int) (Tier, bool) {
	switch {
	case slot >= 1 && slot <= 3:
		return TierCommoner, true
	case slot == 4 || slot == 5:
		return TierElite, true
	case slot == 6:
		return TierLegendary, true
	}
	return 0, false
}

type offPositionRule struct {
	baseThreshold float64
	maxPenalty    float64
}

const offPositionThresholdPerLevel = 3.0

var offPositionRules = map[Tier]offPositionRule{
	TierCommoner:  {baseThreshold: 50, maxPenalty: 0.80},
	TierElite:     {baseThreshold: 100, maxPenalty: 0.65},
	TierLegendary: {baseThreshold: 150, maxPenalty: 0.50},
}

// OffPositionThreshold is the stamina a hero needs to play in slot without
// penalty when its own tier does not match the slot's.
func OffPositionThreshold(slot, level int) float64 {
	st, ok := SlotTier(slot)
	if !ok {
		return 0
	}
	return offPositionRules[st].baseThreshold + offPositionThresholdPerLevel*float64(level)
}

// OffPositionPenalty returns the fraction of stamina lost by a hero of tier
// heroTier playing in slot. The penalty grows linearly from zero at the slot
// threshold to the slot tier's cap at zero stamina.
func OffPositionPenalty(heroTier Tier, slot, level int, stamina float64) float64 {
	st, ok := SlotTier(slot)
	if !ok || st == heroTier {
		return 0
	}
	rule := offPositionRules[st]
	threshold := rule.baseThreshold + offPositionThresholdPerLevel*float64(level)
	if stamina >= threshold {
		return 0
	}
	shortfall := 1 - math.Max(stamina, 0)/threshold
	return rule.maxPenalty * shortfall
}

// StaminaEfficiency is min(1, stamina / (60 + 2.5*level)), never negative.
func StaminaEfficiency(stamina float64, level int) float64 {
	required := 60 + 2.5*float64(level)
	eff := stamina / required
	if eff > 1 {
		return 1
	}
	if eff < 0 {
		return 0
	}
	return eff
}

// TurnCapacity is the attack multiplier for a fighter on its wins-th
// consecutive round at the front. Fresh fighters hit at full power; each win
// tires them unless their stamina efficiency is high.
func TurnCapacity(wins int, staminaEff float64) float64 {
	switch {
	case wins <= 0:
		return 1.0
	case wins == 1:
		return (60 + 35*staminaEff) / 100
	case wins == 2:
		return (30 + 50*staminaEff) / 100
	case wins == 3:
		return (10 + 55*staminaEff) / 100
	case wins == 4:
		return (50 * staminaEff) / 100
	case wins == 5:
		return (35 * staminaEff) / 100
	case wins == 6:
		return (20 * staminaEff) / 100
	default:
		return (5 * staminaEff) / 100
	}
}
