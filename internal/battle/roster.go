package battle

import (
	"fmt"
	"sort"
)

// Roster is a player's team as supplied by the roster store: heroes in team
// slots 1-6 and an optional summon in slot 7.
type Roster struct {
	Owner  string        `json:"owner" yaml:"owner"`
	Heroes []HeroRecord  `json:"heroes" yaml:"heroes"`
	Summon *SummonRecord `json:"summon,omitempty" yaml:"summon,omitempty"`
}

type HeroRecord struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Level     int             `json:"level" yaml:"level"`
	Tier      Tier            `json:"tier" yaml:"tier"`
	Element   Element         `json:"element" yaml:"element"`
	Slot      int             `json:"slot" yaml:"slot"`
	Template  *Template       `json:"template,omitempty" yaml:"template,omitempty"`
	Items     []Stats         `json:"items,omitempty" yaml:"items,omitempty"`
	Abilities []AbilityRecord `json:"abilities,omitempty" yaml:"abilities,omitempty"`
}

// AbilityRecord is an equipped ability: a flat stat bonus and, optionally,
// a spell.
type AbilityRecord struct {
	Name  string `json:"name" yaml:"name"`
	Bonus Stats  `json:"bonus" yaml:"bonus"`
	Spell *Spell `json:"spell,omitempty" yaml:"spell,omitempty"`
}

type SummonRecord struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Level    int             `json:"level" yaml:"level"`
	Template *SummonTemplate `json:"template,omitempty" yaml:"template,omitempty"`
}

type SummonTemplate struct {
	BaseMagicPower   float64 `json:"baseMagicPower" yaml:"base_magic_power"`
	GrowthMagicPower float64 `json:"growthMagicPower" yaml:"growth_magic_power"`
	BaseMana         float64 `json:"baseMana" yaml:"base_mana"`
	GrowthMana       float64 `json:"growthMana" yaml:"growth_mana"`
}

// MagicPowerAt is the magic power bonus the summon grants every fighter on
// its side.
func (t SummonTemplate) MagicPowerAt(level int) float64 {
	return t.BaseMagicPower + t.GrowthMagicPower*float64(level-1)
}

// Fighter is one hero's stat snapshot for a single battle.
type Fighter struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Tier    Tier    `json:"tier"`
	Element Element `json:"element"`
	Slot    int     `json:"slot"`
	Stats   Stats   `json:"stats"`
	Spells  []Spell `json:"spells,omitempty"`

	// ConsecutiveWins counts rounds won in a row at the front.
	ConsecutiveWins int `json:"consecutiveWins"`
}

func (f *Fighter) key() string {
	if f.ID != "" {
		return f.ID
	}
	return f.Name
}

// Team is an ordered fighter queue. The summon bonus is already folded into
// every fighter's magic power.
type Team struct {
	Name        string    `json:"name"`
	Fighters    []Fighter `json:"fighters"`
	SummonBonus float64   `json:"summonBonus"`
	HasSummon   bool      `json:"hasSummon"`
}

// ManaPool is the shared mana the team starts a battle with.
func (t *Team) ManaPool() float64 {
	total := 0.0
	for _, f := range t.Fighters {
		total += f.Stats.Mana
	}
	return total
}

// Power sums every stat of every fighter.
func (t *Team) Power() float64 {
	total := 0.0
	for _, f := range t.Fighters {
		total += f.Stats.Total()
	}
	return total
}

// HeroNames lists fighter display names in queue order.
func (t *Team) HeroNames() []string {
	names := make([]string, len(t.Fighters))
	for i, f := range t.Fighters {
		names[i] = f.Name
	}
	return names
}

func (t *Team) clone() *Team {
	c := *t
	c.Fighters = make([]Fighter, len(t.Fighters))
	for i, f := range t.Fighters {
		f.Spells = append([]Spell(nil), f.Spells...)
		c.Fighters[i] = f
	}
	return &c
}

// LoadFighters turns a roster into a battle-ready team ordered by slot.
// Heroes without a stat template, with a level below 1 or outside slots 1-6
// are caller errors.
func LoadFighters(roster Roster) (*Team, error) {
	team := &Team{Name: roster.Owner}

	if s := roster.Summon; s != nil {
		if s.Template == nil {
			return nil, fmt.Errorf("summon %q: %w", s.Name, ErrMissingTemplate)
		}
		if s.Level < 1 {
			return nil, fmt.Errorf("summon %q: %w", s.Name, ErrInvalidLevel)
		}
		team.SummonBonus = s.Template.MagicPowerAt(s.Level)
		team.HasSummon = true
	}

	heroes := append([]HeroRecord(nil), roster.Heroes...)
	sort.SliceStable(heroes, func(i, j int) bool { return heroes[i].Slot < heroes[j].Slot })

	team.Fighters = make([]Fighter, 0, len(heroes))
	for _, h := range heroes {
		if h.Template == nil {
			return nil, fmt.Errorf("hero %q: %w", h.Name, ErrMissingTemplate)
		}
		if h.Level < 1 {
			return nil, fmt.Errorf("hero %q: %w", h.Name, ErrInvalidLevel)
		}
		if h.Tier < TierCommoner || h.Tier > TierLegendary {
			return nil, fmt.Errorf("hero %q: %w", h.Name, ErrUnknownTier)
		}
		if _, ok := SlotTier(h.Slot); !ok {
			return nil, fmt.Errorf("hero %q in slot %d: %w", h.Name, h.Slot, ErrInvalidSlot)
		}

		bonuses := make([]Stats, 0, len(h.Abilities))
		var spells []Spell
		for _, ab := range h.Abilities {
			bonuses = append(bonuses, ab.Bonus)
			if ab.Spell != nil {
				if err := ab.Spell.validate(); err != nil {
					return nil, fmt.Errorf("hero %q: %w", h.Name, err)
				}
				spells = append(spells, *ab.Spell)
			}
		}

		team.Fighters = append(team.Fighters, Fighter{
			ID:      h.ID,
			Name:    h.Name,
			Level:   h.Level,
			Tier:    h.Tier,
			Element: h.Element,
			Slot:    h.Slot,
			Stats:   BuildStats(*h.Template, h.Level, h.Items, bonuses, team.SummonBonus),
			Spells:  spells,
		})
	}
	return team, nil
}
