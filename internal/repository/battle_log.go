package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"hero-manager/internal/battle"
	"hero-manager/internal/domain"
)

type BattleLogRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewBattleLogRepository(sqlDB *sql.DB, logger zerolog.Logger) *BattleLogRepository {
	return &BattleLogRepository{db: sqlDB, logger: logger}
}

func (r *BattleLogRepository) WithTx(tx *sql.Tx) *BattleLogRepository {
	return &BattleLogRepository{db: tx, logger: r.logger}
}

// Insert stores a finished battle and fills in its id and creation time.
func (r *BattleLogRepository) Insert(ctx context.Context, log *domain.BattleLog, now time.Time) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}
	outcome, err := json.Marshal(log.Outcome)
	if err != nil {
		return fmt.Errorf("failed to encode battle outcome: %w", err)
	}

	now = now.UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO battle_logs (id, challenger_id, defender_id, winner_id, challenger_gold, defender_gold,
			energy_cost, is_return_challenge, return_challenge_used, outcome_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, log.ChallengerID, log.DefenderID, log.WinnerID, log.ChallengerGold, log.DefenderGold,
		log.EnergyCost, log.IsReturnChallenge, string(outcome), now)
	if err != nil {
		return fmt.Errorf("failed to insert battle log: %w", err)
	}

	log.ID = id
	log.CreatedAt = now
	r.logger.Debug().Str("battle_id", id).Msg("battle log stored")
	return nil
}

func (r *BattleLogRepository) Get(ctx context.Context, id string) (*domain.BattleLog, error) {
	var (
		log     domain.BattleLog
		outcome string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, challenger_id, defender_id, winner_id, challenger_gold, defender_gold,
			energy_cost, is_return_challenge, return_challenge_used, outcome_json, created_at
		FROM battle_logs WHERE id = ?`, id,
	).Scan(&log.ID, &log.ChallengerID, &log.DefenderID, &log.WinnerID, &log.ChallengerGold, &log.DefenderGold,
		&log.EnergyCost, &log.IsReturnChallenge, &log.ReturnChallengeUsed, &outcome, &log.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	log.Outcome = &battle.BattleOutcome{}
	if err := json.Unmarshal([]byte(outcome), log.Outcome); err != nil {
		return nil, fmt.Errorf("failed to decode battle %s: %w", id, err)
	}
	return &log, nil
}

// History lists a player's battles, newest first, from that player's side.
// A battle the player defended can be answered with a return challenge
// until that opportunity is used.
func (r *BattleLogRepository) History(ctx context.Context, playerID string, limit, offset int) ([]domain.BattleSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id,
			CASE WHEN b.challenger_id = ?1 THEN b.defender_id ELSE b.challenger_id END,
			COALESCE(p.username, 'Unknown'),
			b.winner_id = ?1,
			CASE WHEN b.challenger_id = ?1 THEN b.challenger_gold ELSE b.defender_gold END,
			b.challenger_id = ?1,
			b.defender_id = ?1 AND b.return_challenge_used = 0,
			b.created_at
		FROM battle_logs b
		LEFT JOIN players p ON p.id = CASE WHEN b.challenger_id = ?1 THEN b.defender_id ELSE b.challenger_id END
		WHERE b.challenger_id = ?1 OR b.defender_id = ?1
		ORDER BY b.created_at DESC, b.rowid DESC
		LIMIT ?2 OFFSET ?3`, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query battle history: %w", err)
	}
	defer rows.Close()

	var out []domain.BattleSummary
	for rows.Next() {
		var (
			s   domain.BattleSummary
			won bool
		)
		if err := rows.Scan(&s.BattleID, &s.OpponentID, &s.OpponentUsername, &won, &s.GoldEarned,
			&s.WasChallenger, &s.CanReturnChallenge, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan battle summary: %w", err)
		}
		s.Result = "LOSS"
		if won {
			s.Result = "WIN"
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PendingReturn returns the newest unused battle in which challengerID
// attacked defenderID, or "" if there is none. Its existence lets the
// defender strike back at a discount.
func (r *BattleLogRepository) PendingReturn(ctx context.Context, challengerID, defenderID string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM battle_logs
		WHERE challenger_id = ? AND defender_id = ? AND return_challenge_used = 0
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, challengerID, defenderID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up return challenge: %w", err)
	}
	return id, nil
}

func (r *BattleLogRepository) MarkReturnUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE battle_logs SET return_challenge_used = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark return challenge %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
