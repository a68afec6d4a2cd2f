package battle

import (
	"fmt"
	"strings"
)

// Trigger decides when a spell may fire.
type Trigger int

const (
	// TriggerAttack spells may fire on every round the fighter is at the front.
	TriggerAttack Trigger = iota + 1
	// TriggerEntrance spells may fire only on the fighter's first round.
	TriggerEntrance
)

func (t Trigger) String() string {
	switch t {
	case TriggerAttack:
		return "ATTACK"
	case TriggerEntrance:
		return "ENTRANCE"
	default:
		return "UNKNOWN"
	}
}

func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATTACK":
		return TriggerAttack, nil
	case "ENTRANCE":
		return TriggerEntrance, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
}

func (t Trigger) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Trigger) UnmarshalText(b []byte) error {
	parsed, err := ParseTrigger(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Spell is the triggered effect of an equipped ability.
type Spell struct {
	Name     string  `json:"name" yaml:"name"`
	Trigger  Trigger `json:"trigger" yaml:"trigger"`
	ManaCost float64 `json:"manaCost" yaml:"mana_cost"`
	Chance   float64 `json:"chance" yaml:"chance"`
	Bonus    Stats   `json:"bonus" yaml:"bonus"`
}

func (sp Spell) validate() error {
	if sp.Trigger != TriggerAttack && sp.Trigger != TriggerEntrance {
		return fmt.Errorf("spell %q: %w", sp.Name, ErrUnknownTrigger)
	}
	if sp.ManaCost < 0 || sp.Chance < 0 || sp.Chance > 1 {
		return fmt.Errorf("spell %q: %w", sp.Name, ErrInvalidSpell)
	}
	return nil
}

// SpellCast records a spell that fired during a round.
type SpellCast struct {
	Fighter  string  `json:"fighter"`
	Spell    string  `json:"spell"`
	Trigger  Trigger `json:"trigger"`
	ManaCost float64 `json:"manaCost"`
	ManaLeft float64 `json:"manaLeft"`
	Bonus    Stats   `json:"bonus"`
}

// castSpells rolls every spell of the side's active fighter for this round
// and returns the fighter's stats with fired bonuses applied. The fighter
// itself is not modified. ENTRANCE eligibility is consumed on the fighter's
// first activation even if nothing fires.
func castSpells(r Rand, s *sideState, f *Fighter) (Stats, []SpellCast) {
	stats := f.Stats
	entrance := !s.entered[f.key()]
	s.entered[f.key()] = true

	var casts []SpellCast
	for _, sp := range f.Spells {
		if sp.Trigger == TriggerEntrance && !entrance {
			continue
		}
		if s.mana < sp.ManaCost {
			continue
		}
		if r.Float64() >= sp.Chance {
			continue
		}
		s.mana -= sp.ManaCost
		stats = stats.Add(sp.Bonus)
		casts = append(casts, SpellCast{
			Fighter:  f.Name,
			Spell:    sp.Name,
			Trigger:  sp.Trigger,
			ManaCost: sp.ManaCost,
			ManaLeft: s.mana,
			Bonus:    sp.Bonus,
		})
	}
	return stats, casts
}
