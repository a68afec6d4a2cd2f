package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hero-manager/internal/battle"
	"hero-manager/internal/catalog"
)

// CatalogRepository stores game templates and development fixtures.
type CatalogRepository struct {
	db      *sql.DB
	players *PlayerRepository
	rosters *RosterRepository
	logger  zerolog.Logger
}

func NewCatalogRepository(sqlDB *sql.DB, players *PlayerRepository, rosters *RosterRepository, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{db: sqlDB, players: players, rosters: rosters, logger: logger}
}

// Seed upserts every template in c and creates its fixture players that do
// not exist yet, all in one transaction.
func (r *CatalogRepository) Seed(ctx context.Context, c *catalog.Catalog, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, h := range c.Heroes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO hero_templates (name, display_name, tier, element,
				base_physical_attack, base_magic_power, base_dexterity, base_element, base_mana, base_stamina,
				growth_physical_attack, growth_magic_power, growth_dexterity, growth_element, growth_mana, growth_stamina)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				display_name = excluded.display_name, tier = excluded.tier, element = excluded.element,
				base_physical_attack = excluded.base_physical_attack, base_magic_power = excluded.base_magic_power,
				base_dexterity = excluded.base_dexterity, base_element = excluded.base_element,
				base_mana = excluded.base_mana, base_stamina = excluded.base_stamina,
				growth_physical_attack = excluded.growth_physical_attack, growth_magic_power = excluded.growth_magic_power,
				growth_dexterity = excluded.growth_dexterity, growth_element = excluded.growth_element,
				growth_mana = excluded.growth_mana, growth_stamina = excluded.growth_stamina`,
			h.Name, h.DisplayName, h.Tier.String(), h.Element.String(),
			h.Base.PhysicalAttack, h.Base.MagicPower, h.Base.Dexterity, h.Base.Element, h.Base.Mana, h.Base.Stamina,
			h.Growth.PhysicalAttack, h.Growth.MagicPower, h.Growth.Dexterity, h.Growth.Element, h.Growth.Mana, h.Growth.Stamina,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert hero template %s: %w", h.Name, err)
		}
	}

	for _, it := range c.Items {
		b := it.Bonus
		_, err := tx.ExecContext(ctx, `
			INSERT INTO item_templates (name, display_name,
				bonus_physical_attack, bonus_magic_power, bonus_dexterity, bonus_element, bonus_mana, bonus_stamina)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				display_name = excluded.display_name,
				bonus_physical_attack = excluded.bonus_physical_attack, bonus_magic_power = excluded.bonus_magic_power,
				bonus_dexterity = excluded.bonus_dexterity, bonus_element = excluded.bonus_element,
				bonus_mana = excluded.bonus_mana, bonus_stamina = excluded.bonus_stamina`,
			it.Name, it.DisplayName, b.PhysicalAttack, b.MagicPower, b.Dexterity, b.Element, b.Mana, b.Stamina,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert item template %s: %w", it.Name, err)
		}
	}

	for _, a := range c.Abilities {
		b := a.Bonus
		var (
			spellName, trigger sql.NullString
			cost, chance       float64
			sb                 battle.Stats
		)
		if sp := a.Spell; sp != nil {
			spellName = sql.NullString{String: sp.Name, Valid: true}
			trigger = sql.NullString{String: sp.Trigger.String(), Valid: true}
			cost, chance, sb = sp.ManaCost, sp.Chance, sp.Bonus
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ability_templates (name, display_name, hero_template,
				bonus_physical_attack, bonus_magic_power, bonus_dexterity, bonus_element, bonus_mana, bonus_stamina,
				spell_name, spell_trigger, spell_mana_cost, spell_chance,
				spell_physical_attack, spell_magic_power, spell_dexterity, spell_element, spell_mana, spell_stamina)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				display_name = excluded.display_name, hero_template = excluded.hero_template,
				bonus_physical_attack = excluded.bonus_physical_attack, bonus_magic_power = excluded.bonus_magic_power,
				bonus_dexterity = excluded.bonus_dexterity, bonus_element = excluded.bonus_element,
				bonus_mana = excluded.bonus_mana, bonus_stamina = excluded.bonus_stamina,
				spell_name = excluded.spell_name, spell_trigger = excluded.spell_trigger,
				spell_mana_cost = excluded.spell_mana_cost, spell_chance = excluded.spell_chance,
				spell_physical_attack = excluded.spell_physical_attack, spell_magic_power = excluded.spell_magic_power,
				spell_dexterity = excluded.spell_dexterity, spell_element = excluded.spell_element,
				spell_mana = excluded.spell_mana, spell_stamina = excluded.spell_stamina`,
			a.Name, a.DisplayName, a.Hero,
			b.PhysicalAttack, b.MagicPower, b.Dexterity, b.Element, b.Mana, b.Stamina,
			spellName, trigger, cost, chance,
			sb.PhysicalAttack, sb.MagicPower, sb.Dexterity, sb.Element, sb.Mana, sb.Stamina,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert ability template %s: %w", a.Name, err)
		}
	}

	for _, s := range c.Summons {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO summon_templates (name, display_name, base_magic_power, growth_magic_power, base_mana, growth_mana)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				display_name = excluded.display_name,
				base_magic_power = excluded.base_magic_power, growth_magic_power = excluded.growth_magic_power,
				base_mana = excluded.base_mana, growth_mana = excluded.growth_mana`,
			s.Name, s.DisplayName, s.BaseMagicPower, s.GrowthMagicPower, s.BaseMana, s.GrowthMana,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert summon template %s: %w", s.Name, err)
		}
	}

	created, err := r.seedPlayers(ctx, tx, c, now)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}

	r.logger.Info().
		Int("heroes", len(c.Heroes)).
		Int("items", len(c.Items)).
		Int("abilities", len(c.Abilities)).
		Int("summons", len(c.Summons)).
		Int("players_created", created).
		Msg("catalog seeded")
	return nil
}

func (r *CatalogRepository) seedPlayers(ctx context.Context, tx *sql.Tx, c *catalog.Catalog, now time.Time) (int, error) {
	players := r.players.WithTx(tx)
	rosters := r.rosters.WithTx(tx)

	created := 0
	for _, fixture := range c.Players {
		if _, err := players.GetByUsername(ctx, fixture.Username); err == nil {
			continue
		} else if err != ErrNotFound {
			return 0, err
		}

		p, err := players.Create(ctx, fixture.Username, now)
		if err != nil {
			return 0, err
		}
		if fixture.Gold > 0 {
			if err := players.AddGold(ctx, p.ID, fixture.Gold, now); err != nil {
				return 0, err
			}
		}
		for _, e := range fixture.Team {
			heroID, err := rosters.CreateHero(ctx, p.ID, e.Hero, e.Level, e.Slot)
			if err != nil {
				return 0, err
			}
			if err := rosters.Equip(ctx, heroID, e.Items, e.Abilities); err != nil {
				return 0, err
			}
		}
		if s := fixture.Summon; s != nil {
			if _, err := rosters.CreateSummon(ctx, p.ID, s.Summon, s.Level); err != nil {
				return 0, err
			}
		}
		created++
	}
	return created, nil
}
