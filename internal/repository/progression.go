package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"hero-manager/internal/battle"
	"hero-manager/internal/domain"
)

// ProgressionRepository writes battle experience back to heroes and summons.
// Callers run it inside the same transaction as the rest of the battle's
// bookkeeping via WithTx.
type ProgressionRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewProgressionRepository(sqlDB *sql.DB, logger zerolog.Logger) *ProgressionRepository {
	return &ProgressionRepository{db: sqlDB, logger: logger}
}

func (r *ProgressionRepository) WithTx(tx *sql.Tx) *ProgressionRepository {
	return &ProgressionRepository{db: tx, logger: r.logger}
}

// ApplyHeroXP credits the XP a side earned to the player's heroes that
// fought, levels them up and records their clash counts. Each hero gets the
// XP on its own fighter record.
func (r *ProgressionRepository) ApplyHeroXP(ctx context.Context, playerID string, side battle.SideResult) ([]domain.LevelUp, error) {
	var ups []domain.LevelUp
	for _, f := range side.Fighters {
		var cur battle.Progress
		err := r.db.QueryRowContext(ctx,
			`SELECT level, current_xp FROM heroes WHERE id = ? AND player_id = ?`, f.ID, playerID,
		).Scan(&cur.Level, &cur.XP)
		if err == sql.ErrNoRows {
			r.logger.Warn().Str("hero_id", f.ID).Str("player_id", playerID).Msg("fighter has no hero row, skipping progression")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read hero %s: %w", f.ID, err)
		}

		next, gained := battle.ApplyXP(cur, f.XP)
		_, err = r.db.ExecContext(ctx, `
			UPDATE heroes
			SET level = ?, current_xp = ?, clashes_won = clashes_won + ?, clashes_lost = clashes_lost + ?
			WHERE id = ?`,
			next.Level, next.XP, f.RoundsWon, f.RoundsLost, f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update hero %s: %w", f.ID, err)
		}
		if gained > 0 {
			ups = append(ups, domain.LevelUp{ID: f.ID, Name: f.Name, FromLevel: cur.Level, ToLevel: next.Level})
			r.logger.Info().Str("hero_id", f.ID).Int("level", next.Level).Msg("hero levelled up")
		}
	}
	return ups, nil
}

// ApplySummonXP credits xp to the summon in the player's slot 7. Players
// without a summon are skipped; the returned LevelUp is nil unless the
// summon gained a level.
func (r *ProgressionRepository) ApplySummonXP(ctx context.Context, playerID string, xp int) (*domain.LevelUp, error) {
	if xp <= 0 {
		return nil, nil
	}

	var (
		id, name string
		cur      battle.Progress
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT m.id, t.display_name, m.level, m.current_xp
		FROM team_slots s
		JOIN summons m ON m.id = s.summon_id
		JOIN summon_templates t ON t.name = m.template
		WHERE s.player_id = ? AND s.slot_number = ?`, playerID, battle.SummonSlot,
	).Scan(&id, &name, &cur.Level, &cur.XP)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read summon for %s: %w", playerID, err)
	}

	next, gained := battle.ApplyXP(cur, xp)
	if _, err := r.db.ExecContext(ctx, `UPDATE summons SET level = ?, current_xp = ? WHERE id = ?`, next.Level, next.XP, id); err != nil {
		return nil, fmt.Errorf("failed to update summon %s: %w", id, err)
	}
	if gained == 0 {
		return nil, nil
	}
	return &domain.LevelUp{ID: id, Name: name, FromLevel: cur.Level, ToLevel: next.Level}, nil
}
