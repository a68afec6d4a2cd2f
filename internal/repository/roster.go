package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"hero-manager/internal/battle"
)

// RosterRepository reads and writes team compositions: heroes, their
// equipment and the slot layout.
type RosterRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewRosterRepository(sqlDB *sql.DB, logger zerolog.Logger) *RosterRepository {
	return &RosterRepository{db: sqlDB, logger: logger}
}

func (r *RosterRepository) WithTx(tx *sql.Tx) *RosterRepository {
	return &RosterRepository{db: tx, logger: r.logger}
}

// LoadRoster assembles the player's current team in slot order, with each
// hero's template, equipped items and abilities, plus the slot-7 summon.
// A player with no team gets an empty roster.
func (r *RosterRepository) LoadRoster(ctx context.Context, playerID string) (battle.Roster, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM players WHERE id = ?`, playerID).Scan(&owner)
	if err != nil {
		return battle.Roster{}, notFound(err)
	}
	roster := battle.Roster{Owner: owner}

	rows, err := r.db.QueryContext(ctx, `
		SELECT h.id, t.display_name, h.level, t.tier, t.element, s.slot_number,
			t.base_physical_attack, t.base_magic_power, t.base_dexterity,
			t.base_element, t.base_mana, t.base_stamina,
			t.growth_physical_attack, t.growth_magic_power, t.growth_dexterity,
			t.growth_element, t.growth_mana, t.growth_stamina
		FROM team_slots s
		JOIN heroes h ON h.id = s.hero_id
		JOIN hero_templates t ON t.name = h.template
		WHERE s.player_id = ? AND s.slot_number BETWEEN 1 AND 6
		ORDER BY s.slot_number`, playerID)
	if err != nil {
		return battle.Roster{}, fmt.Errorf("failed to query team for %s: %w", playerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h             battle.HeroRecord
			tier, element string
			tmpl          battle.Template
		)
		err := rows.Scan(&h.ID, &h.Name, &h.Level, &tier, &element, &h.Slot,
			&tmpl.Base.PhysicalAttack, &tmpl.Base.MagicPower, &tmpl.Base.Dexterity,
			&tmpl.Base.Element, &tmpl.Base.Mana, &tmpl.Base.Stamina,
			&tmpl.Growth.PhysicalAttack, &tmpl.Growth.MagicPower, &tmpl.Growth.Dexterity,
			&tmpl.Growth.Element, &tmpl.Growth.Mana, &tmpl.Growth.Stamina,
		)
		if err != nil {
			return battle.Roster{}, fmt.Errorf("failed to scan team hero: %w", err)
		}
		if h.Tier, err = battle.ParseTier(tier); err != nil {
			return battle.Roster{}, fmt.Errorf("hero %s: %w", h.ID, err)
		}
		if h.Element, err = battle.ParseElement(element); err != nil {
			return battle.Roster{}, fmt.Errorf("hero %s: %w", h.ID, err)
		}
		h.Template = &tmpl
		roster.Heroes = append(roster.Heroes, h)
	}
	if err := rows.Err(); err != nil {
		return battle.Roster{}, err
	}
	rows.Close()

	for i := range roster.Heroes {
		h := &roster.Heroes[i]
		if h.Items, err = r.equippedItems(ctx, h.ID); err != nil {
			return battle.Roster{}, err
		}
		if h.Abilities, err = r.equippedAbilities(ctx, h.ID); err != nil {
			return battle.Roster{}, err
		}
	}

	summon, err := r.teamSummon(ctx, playerID)
	if err != nil {
		return battle.Roster{}, err
	}
	roster.Summon = summon
	return roster, nil
}

func (r *RosterRepository) equippedItems(ctx context.Context, heroID string) ([]battle.Stats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.bonus_physical_attack, t.bonus_magic_power, t.bonus_dexterity,
			t.bonus_element, t.bonus_mana, t.bonus_stamina
		FROM equipped_items e
		JOIN item_templates t ON t.name = e.template
		WHERE e.hero_id = ?
		ORDER BY e.slot`, heroID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for hero %s: %w", heroID, err)
	}
	defer rows.Close()

	var items []battle.Stats
	for rows.Next() {
		var s battle.Stats
		if err := rows.Scan(&s.PhysicalAttack, &s.MagicPower, &s.Dexterity, &s.Element, &s.Mana, &s.Stamina); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *RosterRepository) equippedAbilities(ctx context.Context, heroID string) ([]battle.AbilityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.display_name,
			t.bonus_physical_attack, t.bonus_magic_power, t.bonus_dexterity,
			t.bonus_element, t.bonus_mana, t.bonus_stamina,
			t.spell_name, t.spell_trigger, t.spell_mana_cost, t.spell_chance,
			t.spell_physical_attack, t.spell_magic_power, t.spell_dexterity,
			t.spell_element, t.spell_mana, t.spell_stamina
		FROM equipped_abilities e
		JOIN ability_templates t ON t.name = e.template
		WHERE e.hero_id = ?
		ORDER BY e.slot`, heroID)
	if err != nil {
		return nil, fmt.Errorf("failed to query abilities for hero %s: %w", heroID, err)
	}
	defer rows.Close()

	var abilities []battle.AbilityRecord
	for rows.Next() {
		var (
			a               battle.AbilityRecord
			spellName, trig sql.NullString
			sp              battle.Spell
		)
		err := rows.Scan(&a.Name,
			&a.Bonus.PhysicalAttack, &a.Bonus.MagicPower, &a.Bonus.Dexterity,
			&a.Bonus.Element, &a.Bonus.Mana, &a.Bonus.Stamina,
			&spellName, &trig, &sp.ManaCost, &sp.Chance,
			&sp.Bonus.PhysicalAttack, &sp.Bonus.MagicPower, &sp.Bonus.Dexterity,
			&sp.Bonus.Element, &sp.Bonus.Mana, &sp.Bonus.Stamina,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ability: %w", err)
		}
		if spellName.Valid && trig.Valid {
			if sp.Trigger, err = battle.ParseTrigger(trig.String); err != nil {
				return nil, fmt.Errorf("ability %s: %w", a.Name, err)
			}
			sp.Name = spellName.String
			a.Spell = &sp
		}
		abilities = append(abilities, a)
	}
	return abilities, rows.Err()
}

func (r *RosterRepository) teamSummon(ctx context.Context, playerID string) (*battle.SummonRecord, error) {
	var (
		s    battle.SummonRecord
		tmpl battle.SummonTemplate
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT m.id, t.display_name, m.level,
			t.base_magic_power, t.growth_magic_power, t.base_mana, t.growth_mana
		FROM team_slots s
		JOIN summons m ON m.id = s.summon_id
		JOIN summon_templates t ON t.name = m.template
		WHERE s.player_id = ? AND s.slot_number = ?`, playerID, battle.SummonSlot,
	).Scan(&s.ID, &s.Name, &s.Level, &tmpl.BaseMagicPower, &tmpl.GrowthMagicPower, &tmpl.BaseMana, &tmpl.GrowthMana)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summon for %s: %w", playerID, err)
	}
	s.Template = &tmpl
	return &s, nil
}

// CreateHero recruits a hero for the player and, when slot is 1-6, places it
// in that team slot.
func (r *RosterRepository) CreateHero(ctx context.Context, playerID, template string, level, slot int) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO heroes (id, player_id, template, level) VALUES (?, ?, ?, ?)`,
		id, playerID, template, level)
	if err != nil {
		return "", fmt.Errorf("failed to create hero %s: %w", template, err)
	}
	if _, ok := battle.SlotTier(slot); ok {
		if err := r.assignSlot(ctx, playerID, slot, id, ""); err != nil {
			return "", err
		}
	}
	return id, nil
}

// CreateSummon adds a summon for the player and places it in slot 7.
func (r *RosterRepository) CreateSummon(ctx context.Context, playerID, template string, level int) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO summons (id, player_id, template, level) VALUES (?, ?, ?, ?)`,
		id, playerID, template, level)
	if err != nil {
		return "", fmt.Errorf("failed to create summon %s: %w", template, err)
	}
	if err := r.assignSlot(ctx, playerID, battle.SummonSlot, "", id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RosterRepository) assignSlot(ctx context.Context, playerID string, slot int, heroID, summonID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_slots (player_id, slot_number, hero_id, summon_id)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT (player_id, slot_number) DO UPDATE
		SET hero_id = excluded.hero_id, summon_id = excluded.summon_id`,
		playerID, slot, heroID, summonID)
	if err != nil {
		return fmt.Errorf("failed to assign slot %d for %s: %w", slot, playerID, err)
	}
	return nil
}

// Equip puts an item and abilities on a hero, in the order given.
func (r *RosterRepository) Equip(ctx context.Context, heroID string, items, abilities []string) error {
	for i, it := range items {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO equipped_items (hero_id, template, slot) VALUES (?, ?, ?)
			ON CONFLICT (hero_id, slot) DO UPDATE SET template = excluded.template`,
			heroID, it, i+1)
		if err != nil {
			return fmt.Errorf("failed to equip item %s on %s: %w", it, heroID, err)
		}
	}
	for i, ab := range abilities {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO equipped_abilities (hero_id, template, slot) VALUES (?, ?, ?)
			ON CONFLICT (hero_id, slot) DO UPDATE SET template = excluded.template`,
			heroID, ab, i+1)
		if err != nil {
			return fmt.Errorf("failed to equip ability %s on %s: %w", ab, heroID, err)
		}
	}
	return nil
}
