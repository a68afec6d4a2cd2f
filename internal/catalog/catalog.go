// Package catalog loads hero, item, ability and summon templates, plus
// optional player fixtures, from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hero-manager/internal/battle"
)

type Catalog struct {
	Heroes    []HeroTemplate    `yaml:"heroes"`
	Items     []ItemTemplate    `yaml:"items"`
	Abilities []AbilityTemplate `yaml:"abilities"`
	Summons   []SummonTemplate  `yaml:"summons"`
	Players   []PlayerFixture   `yaml:"players"`
}

type HeroTemplate struct {
	Name        string         `yaml:"name"`
	DisplayName string         `yaml:"display_name"`
	Tier        battle.Tier    `yaml:"tier"`
	Element     battle.Element `yaml:"element"`
	Base        battle.Stats   `yaml:"base"`
	Growth      battle.Stats   `yaml:"growth"`
}

func (h HeroTemplate) Stats() battle.Template {
	return battle.Template{Base: h.Base, Growth: h.Growth}
}

type ItemTemplate struct {
	Name        string       `yaml:"name"`
	DisplayName string       `yaml:"display_name"`
	Bonus       battle.Stats `yaml:"bonus"`
}

// AbilityTemplate belongs to one hero template and may carry a spell.
type AbilityTemplate struct {
	Name        string        `yaml:"name"`
	DisplayName string        `yaml:"display_name"`
	Hero        string        `yaml:"hero"`
	Bonus       battle.Stats  `yaml:"bonus"`
	Spell       *battle.Spell `yaml:"spell,omitempty"`
}

type SummonTemplate struct {
	Name             string  `yaml:"name"`
	DisplayName      string  `yaml:"display_name"`
	BaseMagicPower   float64 `yaml:"base_magic_power"`
	GrowthMagicPower float64 `yaml:"growth_magic_power"`
	BaseMana         float64 `yaml:"base_mana"`
	GrowthMana       float64 `yaml:"growth_mana"`
}

func (s SummonTemplate) Stats() battle.SummonTemplate {
	return battle.SummonTemplate{
		BaseMagicPower:   s.BaseMagicPower,
		GrowthMagicPower: s.GrowthMagicPower,
		BaseMana:         s.BaseMana,
		GrowthMana:       s.GrowthMana,
	}
}

// PlayerFixture is a ready-made player with a team, used for seeding a
// development database and for offline simulations.
type PlayerFixture struct {
	Username string       `yaml:"username"`
	Gold     int          `yaml:"gold"`
	Team     []TeamEntry  `yaml:"team"`
	Summon   *SummonEntry `yaml:"summon,omitempty"`
}

type TeamEntry struct {
	Slot      int      `yaml:"slot"`
	Hero      string   `yaml:"hero"`
	Level     int      `yaml:"level"`
	Items     []string `yaml:"items,omitempty"`
	Abilities []string `yaml:"abilities,omitempty"`
}

type SummonEntry struct {
	Summon string `yaml:"summon"`
	Level  int    `yaml:"level"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that names are unique and every reference resolves.
func (c *Catalog) Validate() error {
	var errs []error

	heroes := map[string]bool{}
	for _, h := range c.Heroes {
		if h.Name == "" {
			errs = append(errs, errors.New("hero template without name"))
			continue
		}
		if heroes[h.Name] {
			errs = append(errs, fmt.Errorf("duplicate hero template %q", h.Name))
		}
		heroes[h.Name] = true
		if h.Tier == 0 {
			errs = append(errs, fmt.Errorf("hero template %q: %w", h.Name, battle.ErrUnknownTier))
		}
	}

	items := map[string]bool{}
	for _, it := range c.Items {
		if items[it.Name] {
			errs = append(errs, fmt.Errorf("duplicate item template %q", it.Name))
		}
		items[it.Name] = true
	}

	abilities := map[string]string{}
	for _, a := range c.Abilities {
		if _, ok := abilities[a.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate ability template %q", a.Name))
		}
		abilities[a.Name] = a.Hero
		if !heroes[a.Hero] {
			errs = append(errs, fmt.Errorf("ability %q: unknown hero %q", a.Name, a.Hero))
		}
		if sp := a.Spell; sp != nil {
			if sp.Trigger == 0 {
				errs = append(errs, fmt.Errorf("ability %q: %w", a.Name, battle.ErrUnknownTrigger))
			}
			if sp.Chance < 0 || sp.Chance > 1 {
				errs = append(errs, fmt.Errorf("ability %q: spell chance %v outside [0, 1]", a.Name, sp.Chance))
			}
			if sp.ManaCost < 0 {
				errs = append(errs, fmt.Errorf("ability %q: negative spell mana cost %v: %w", a.Name, sp.ManaCost, battle.ErrInvalidSpell))
			}
		}
	}

	summons := map[string]bool{}
	for _, s := range c.Summons {
		if summons[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate summon template %q", s.Name))
		}
		summons[s.Name] = true
	}

	users := map[string]bool{}
	for _, p := range c.Players {
		if users[p.Username] {
			errs = append(errs, fmt.Errorf("duplicate player %q", p.Username))
		}
		users[p.Username] = true

		slots := map[int]bool{}
		for _, e := range p.Team {
			if _, ok := battle.SlotTier(e.Slot); !ok {
				errs = append(errs, fmt.Errorf("player %q: %w (got %d)", p.Username, battle.ErrInvalidSlot, e.Slot))
			}
			if slots[e.Slot] {
				errs = append(errs, fmt.Errorf("player %q: slot %d used twice", p.Username, e.Slot))
			}
			slots[e.Slot] = true
			if !heroes[e.Hero] {
				errs = append(errs, fmt.Errorf("player %q: unknown hero %q", p.Username, e.Hero))
			}
			for _, it := range e.Items {
				if !items[it] {
					errs = append(errs, fmt.Errorf("player %q: unknown item %q", p.Username, it))
				}
			}
			for _, ab := range e.Abilities {
				owner, ok := abilities[ab]
				switch {
				case !ok:
					errs = append(errs, fmt.Errorf("player %q: unknown ability %q", p.Username, ab))
				case owner != e.Hero:
					errs = append(errs, fmt.Errorf("player %q: ability %q belongs to %q", p.Username, ab, owner))
				}
			}
		}
		if p.Summon != nil && !summons[p.Summon.Summon] {
			errs = append(errs, fmt.Errorf("player %q: unknown summon %q", p.Username, p.Summon.Summon))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Catalog) Hero(name string) (HeroTemplate, bool) {
	for _, h := range c.Heroes {
		if h.Name == name {
			return h, true
		}
	}
	return HeroTemplate{}, false
}

func (c *Catalog) Item(name string) (ItemTemplate, bool) {
	for _, it := range c.Items {
		if it.Name == name {
			return it, true
		}
	}
	return ItemTemplate{}, false
}

func (c *Catalog) Ability(name string) (AbilityTemplate, bool) {
	for _, a := range c.Abilities {
		if a.Name == name {
			return a, true
		}
	}
	return AbilityTemplate{}, false
}

func (c *Catalog) Summon(name string) (SummonTemplate, bool) {
	for _, s := range c.Summons {
		if s.Name == name {
			return s, true
		}
	}
	return SummonTemplate{}, false
}

func (c *Catalog) Player(username string) (PlayerFixture, bool) {
	for _, p := range c.Players {
		if strings.EqualFold(p.Username, username) {
			return p, true
		}
	}
	return PlayerFixture{}, false
}

// Roster assembles a fixture's team into an engine roster. Hero ids are
// "<username>/<slot>" since fixtures are not persisted.
func (c *Catalog) Roster(p PlayerFixture) (battle.Roster, error) {
	roster := battle.Roster{Owner: p.Username}
	for _, e := range p.Team {
		tmpl, ok := c.Hero(e.Hero)
		if !ok {
			return battle.Roster{}, fmt.Errorf("player %q: unknown hero %q", p.Username, e.Hero)
		}
		stats := tmpl.Stats()
		rec := battle.HeroRecord{
			ID:       fmt.Sprintf("%s/%d", p.Username, e.Slot),
			Name:     tmpl.DisplayName,
			Level:    e.Level,
			Tier:     tmpl.Tier,
			Element:  tmpl.Element,
			Slot:     e.Slot,
			Template: &stats,
		}
		for _, name := range e.Items {
			it, ok := c.Item(name)
			if !ok {
				return battle.Roster{}, fmt.Errorf("player %q: unknown item %q", p.Username, name)
			}
			rec.Items = append(rec.Items, it.Bonus)
		}
		for _, name := range e.Abilities {
			ab, ok := c.Ability(name)
			if !ok {
				return battle.Roster{}, fmt.Errorf("player %q: unknown ability %q", p.Username, name)
			}
			rec.Abilities = append(rec.Abilities, battle.AbilityRecord{Name: ab.DisplayName, Bonus: ab.Bonus, Spell: ab.Spell})
		}
		roster.Heroes = append(roster.Heroes, rec)
	}
	if s := p.Summon; s != nil {
		tmpl, ok := c.Summon(s.Summon)
		if !ok {
			return battle.Roster{}, fmt.Errorf("player %q: unknown summon %q", p.Username, s.Summon)
		}
		stats := tmpl.Stats()
		roster.Summon = &battle.SummonRecord{
			ID:       fmt.Sprintf("%s/%d", p.Username, battle.SummonSlot),
			Name:     tmpl.DisplayName,
			Level:    s.Level,
			Template: &stats,
		}
	}
	return roster, nil
}
