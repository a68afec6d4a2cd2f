package battle

import (
	"fmt"
	"strings"
)

// Element is a fighter's elemental affinity.
type Element int

const (
	ElementNone Element = iota
	ElementFire
	ElementWater
	ElementWind
	ElementLightning
	ElementEarth
)

// elementalBonusFactor scales the element stat gap into attack value.
const elementalBonusFactor = 5.0

// advantage maps each element to the one element it beats.
var advantage = map[Element]Element{
	ElementFire:      ElementWind,
	ElementWater:     ElementFire,
	ElementLightning: ElementEarth,
	ElementWind:      ElementLightning,
	ElementEarth:     ElementWater,
}

func (e Element) String() string {
	switch e {
	case ElementNone:
		return "NONE"
	case ElementFire:
		return "FIRE"
	case ElementWater:
		return "WATER"
	case ElementWind:
		return "WIND"
	case ElementLightning:
		return "LIGHTNING"
	case ElementEarth:
		return "EARTH"
	default:
		return "UNKNOWN"
	}
}

// ParseElement accepts element names in any case. An empty string or
// "none" yields ElementNone.
func ParseElement(s string) (Element, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return ElementNone, nil
	case "FIRE":
		return ElementFire, nil
	case "WATER":
		return ElementWater, nil
	case "WIND":
		return ElementWind, nil
	case "LIGHTNING":
		return ElementLightning, nil
	case "EARTH":
		return ElementEarth, nil
	}
	return ElementNone, fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Element) UnmarshalText(b []byte) error {
	parsed, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Beats reports whether e holds type advantage over o.
func (e Element) Beats(o Element) bool {
	if e == ElementNone || o == ElementNone {
		return false
	}
	return advantage[e] == o
}

// ElementalBonus is the extra attack value an attacker gains from type
// advantage: (attackerStat - defenderStat) * 5 when the attacker's element
// beats the defender's and its element stat is strictly higher, else zero.
func ElementalBonus(attacker Element, attackerStat float64, defender Element, defenderStat float64) float64 {
	if !attacker.Beats(defender) {
		return 0
	}
	if attackerStat <= defenderStat {
		return 0
	}
	return (attackerStat - defenderStat) * elementalBonusFactor
}
