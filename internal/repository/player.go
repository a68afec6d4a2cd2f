package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"hero-manager/internal/constants"
	"hero-manager/internal/domain"
)

type PlayerRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{db: tx, logger: r.logger}
}

const playerColumns = `id, username, gold, arena_energy, last_energy_update, online_until,
	wins, losses, win_streak, best_win_streak, loss_streak, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (*domain.Player, error) {
	var (
		p           domain.Player
		onlineUntil sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Username, &p.Gold, &p.ArenaEnergy, &p.LastEnergyUpdate, &onlineUntil,
		&p.Wins, &p.Losses, &p.WinStreak, &p.BestWinStreak, &p.LossStreak, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if onlineUntil.Valid {
		t := onlineUntil.Time
		p.OnlineUntil = &t
	}
	return &p, nil
}

// Create registers a player with a full energy bar.
func (r *PlayerRepository) Create(ctx context.Context, username string, now time.Time) (*domain.Player, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	now = now.UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO players (id, username, arena_energy, last_energy_update, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, username, constants.MaxArenaEnergy, now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", username, err)
	}
	r.logger.Debug().Str("player_id", id).Str("username", username).Msg("player created")
	return r.Get(ctx, id)
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE username = ?`, username)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListOthers returns every player except excludeID, by username.
func (r *PlayerRepository) ListOthers(ctx context.Context, excludeID string) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id <> ? ORDER BY username`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// SaveArenaState persists energy bookkeeping and the online window.
func (r *PlayerRepository) SaveArenaState(ctx context.Context, p *domain.Player, now time.Time) error {
	var onlineUntil sql.NullTime
	if p.OnlineUntil != nil {
		onlineUntil = sql.NullTime{Time: p.OnlineUntil.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET arena_energy = ?, last_energy_update = ?, online_until = ?, updated_at = ?
		WHERE id = ?`,
		p.ArenaEnergy, p.LastEnergyUpdate.UTC(), onlineUntil, now.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save arena state for %s: %w", p.ID, err)
	}
	return nil
}

func (r *PlayerRepository) AddGold(ctx context.Context, id string, amount int, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET gold = gold + ?, updated_at = ? WHERE id = ?`, amount, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to add gold to %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordResult bumps win/loss totals and streaks after a battle.
func (r *PlayerRepository) RecordResult(ctx context.Context, id string, won bool, now time.Time) error {
	query := `
		UPDATE players
		SET losses = losses + 1, loss_streak = loss_streak + 1, win_streak = 0, updated_at = ?
		WHERE id = ?`
	if won {
		query = `
			UPDATE players
			SET wins = wins + 1,
				win_streak = win_streak + 1,
				best_win_streak = MAX(best_win_streak, win_streak + 1),
				loss_streak = 0,
				updated_at = ?
			WHERE id = ?`
	}
	if _, err := r.db.ExecContext(ctx, query, now.UTC(), id); err != nil {
		return fmt.Errorf("failed to record result for %s: %w", id, err)
	}
	return nil
}

// Leaderboard ranks players by wins, then best streak, then fewest losses.
func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, wins, losses, best_win_streak, win_streak
		FROM players
		ORDER BY wins DESC, best_win_streak DESC, losses ASC, username ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		e := domain.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Wins, &e.Losses, &e.BestWinStreak, &e.WinStreak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
