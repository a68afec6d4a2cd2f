// Package battle implements the arena duel: stat aggregation, spell and
// element resolution, stamina fatigue, the round loop and hero progression.
//
// The package performs no I/O. Callers hand it fully assembled rosters and
// persist whatever it returns.
package battle

// Stats is the six-value stat block shared by heroes, items, abilities and
// spell bonuses.
type Stats struct {
	PhysicalAttack float64 `json:"physicalAttack" yaml:"physical_attack"`
	MagicPower     float64 `json:"magicPower" yaml:"magic_power"`
	Dexterity      float64 `json:"dexterity" yaml:"dexterity"`
	Element        float64 `json:"element" yaml:"element"`
	Mana           float64 `json:"mana" yaml:"mana"`
	Stamina        float64 `json:"stamina" yaml:"stamina"`
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		PhysicalAttack: s.PhysicalAttack + o.PhysicalAttack,
		MagicPower:     s.MagicPower + o.MagicPower,
		Dexterity:      s.Dexterity + o.Dexterity,
		Element:        s.Element + o.Element,
		Mana:           s.Mana + o.Mana,
		Stamina:        s.Stamina + o.Stamina,
	}
}

func (s Stats) Scale(f float64) Stats {
	return Stats{
		PhysicalAttack: s.PhysicalAttack * f,
		MagicPower:     s.MagicPower * f,
		Dexterity:      s.Dexterity * f,
		Element:        s.Element * f,
		Mana:           s.Mana * f,
		Stamina:        s.Stamina * f,
	}
}

// Total sums all six values. Used for team power rankings.
func (s Stats) Total() float64 {
	return s.PhysicalAttack + s.MagicPower + s.Dexterity + s.Element + s.Mana + s.Stamina
}

// Template holds a hero's level-1 stats and per-level growth.
type Template struct {
	Base   Stats `json:"base" yaml:"base"`
	Growth Stats `json:"growth" yaml:"growth"`
}

// AtLevel returns base + growth*(level-1).
func (t Template) AtLevel(level int) Stats {
	return t.Base.Add(t.Growth.Scale(float64(level - 1)))
}

// BuildStats aggregates a fighter's stat block from its template, level,
// equipped item and ability bonuses and the team summon's magic power.
func BuildStats(t Template, level int, items, abilities []Stats, summonMagicPower float64) Stats {
	total := t.AtLevel(level)
	for _, it := range items {
		total = total.Add(it)
	}
	for _, ab := range abilities {
		total = total.Add(ab)
	}
	total.MagicPower += summonMagicPower
	return total
}
