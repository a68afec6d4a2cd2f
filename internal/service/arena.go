package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hero-manager/internal/api"
	"hero-manager/internal/battle"
	"hero-manager/internal/config"
	"hero-manager/internal/constants"
	"hero-manager/internal/domain"
	"hero-manager/internal/repository"
)

var (
	ErrSelfChallenge      = errors.New("cannot challenge your own team")
	ErrInsufficientEnergy = errors.New("insufficient arena energy")
)

const rosterLoadConcurrency = 8

type ChallengeResult struct {
	BattleID          string
	Result            string // "WIN" or "LOSS"
	GoldEarned        int
	EnergyCost        int
	EnergyRemaining   int
	IsReturnChallenge bool
	LevelUps          []domain.LevelUp
	Outcome           *battle.BattleOutcome
}

type OpponentPage struct {
	Opponents    []domain.Opponent
	TotalPlayers int
	Page         int
	Size         int
}

// BattleView is a stored battle from one participant's side.
type BattleView struct {
	BattleID   string
	Result     string
	GoldEarned int
	EnergyCost int
	CreatedAt  time.Time
	Outcome    *battle.BattleOutcome
}

type ArenaService struct {
	db          *sql.DB
	players     *repository.PlayerRepository
	rosters     *repository.RosterRepository
	progression *repository.ProgressionRepository
	battles     *repository.BattleLogRepository
	notifier    *api.WebhookNotifier
	seed        int64
	logger      zerolog.Logger
	now         func() time.Time
}

func NewArenaService(
	sqlDB *sql.DB,
	players *repository.PlayerRepository,
	rosters *repository.RosterRepository,
	progression *repository.ProgressionRepository,
	battles *repository.BattleLogRepository,
	notifier *api.WebhookNotifier,
	cfg *config.Config,
	logger zerolog.Logger,
) *ArenaService {
	return &ArenaService{
		db:          sqlDB,
		players:     players,
		rosters:     rosters,
		progression: progression,
		battles:     battles,
		notifier:    notifier,
		seed:        cfg.BattleSeed,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type contender struct {
	player *domain.Player
	team   *battle.Team
}

func (s *ArenaService) loadContender(ctx context.Context, playerID string) (*contender, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}
	roster, err := s.rosters.LoadRoster(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for %s: %w", playerID, err)
	}
	team, err := battle.LoadFighters(roster)
	if err != nil {
		return nil, fmt.Errorf("invalid roster for %s: %w", playerID, err)
	}
	return &contender{player: p, team: team}, nil
}

func (s *ArenaService) battleOptions() []battle.Option {
	opts := []battle.Option{battle.WithLogger(s.logger)}
	if s.seed != 0 {
		opts = append(opts, battle.WithSeed(s.seed))
	}
	return opts
}

// Challenge pits challengerID's team against defenderID's, charges energy,
// pays gold, applies experience and stores the battle log. Everything but the
// webhook runs in one transaction.
func (s *ArenaService) Challenge(ctx context.Context, challengerID, defenderID string) (*ChallengeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if challengerID == defenderID {
		return nil, ErrSelfChallenge
	}

	s.logger.Info().Str("challenger", challengerID).Str("defender", defenderID).Msg("arena challenge")

	var challenger, defender *contender
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		challenger, err = s.loadContender(gCtx, challengerID)
		return err
	})
	g.Go(func() error {
		var err error
		defender, err = s.loadContender(gCtx, defenderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(challenger.team.Fighters) == 0 {
		return nil, battle.ErrEmptyChallenger
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)
	battles := s.battles.WithTx(tx)
	progression := s.progression.WithTx(tx)
	now := s.now()

	// Re-read under the write lock so concurrent challenges cannot spend the
	// same energy twice.
	cp, err := players.Get(ctx, challengerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", challengerID, err)
	}

	returnID, err := battles.PendingReturn(ctx, defenderID, challengerID)
	if err != nil {
		return nil, err
	}
	isReturn := returnID != ""
	cost := ChallengeCost(isReturn, defender.player.IsOnline(now))

	refreshEnergy(cp, now)
	if cp.ArenaEnergy < cost {
		wait := NextEnergyIn(cp.ArenaEnergy, cp.LastEnergyUpdate, now)
		return nil, fmt.Errorf("%w: need %d, have %d, next point in %s",
			ErrInsufficientEnergy, cost, cp.ArenaEnergy, wait.Round(time.Second))
	}
	cp.ArenaEnergy -= cost
	markOnline(cp, now)
	if err := players.SaveArenaState(ctx, cp, now); err != nil {
		return nil, err
	}

	outcome, err := battle.Simulate(challenger.team, defender.team, s.battleOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate battle: %w", err)
	}
	challengerWon := outcome.Winner == battle.SideChallenger

	challengerGold, defenderGold := constants.LoserGold, constants.WinnerGold
	winnerID := defenderID
	if challengerWon {
		challengerGold, defenderGold = constants.WinnerGold, constants.LoserGold
		winnerID = challengerID
	}

	if err := players.AddGold(ctx, challengerID, challengerGold, now); err != nil {
		return nil, err
	}
	if err := players.AddGold(ctx, defenderID, defenderGold, now); err != nil {
		return nil, err
	}
	if err := players.RecordResult(ctx, challengerID, challengerWon, now); err != nil {
		return nil, err
	}
	if err := players.RecordResult(ctx, defenderID, !challengerWon, now); err != nil {
		return nil, err
	}

	levelUps, err := s.applyProgression(ctx, progression, challengerID, outcome.Challenger)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyProgression(ctx, progression, defenderID, outcome.Defender); err != nil {
		return nil, err
	}

	log := &domain.BattleLog{
		ChallengerID:      challengerID,
		DefenderID:        defenderID,
		WinnerID:          winnerID,
		ChallengerGold:    challengerGold,
		DefenderGold:      defenderGold,
		EnergyCost:        cost,
		IsReturnChallenge: isReturn,
		Outcome:           outcome,
	}
	if err := battles.Insert(ctx, log, now); err != nil {
		return nil, err
	}
	if isReturn {
		if err := battles.MarkReturnUsed(ctx, returnID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit battle: %w", err)
	}

	s.logger.Info().
		Str("battle_id", log.ID).
		Str("winner", string(outcome.Winner)).
		Int("rounds", len(outcome.Rounds)).
		Int("energy_cost", cost).
		Bool("return_challenge", isReturn).
		Msg("battle finished")

	s.notify(log, challenger.player.Username, defender.player.Username)

	result := "LOSS"
	if challengerWon {
		result = "WIN"
	}
	return &ChallengeResult{
		BattleID:          log.ID,
		Result:            result,
		GoldEarned:        challengerGold,
		EnergyCost:        cost,
		EnergyRemaining:   cp.ArenaEnergy,
		IsReturnChallenge: isReturn,
		LevelUps:          levelUps,
		Outcome:           outcome,
	}, nil
}

func (s *ArenaService) applyProgression(ctx context.Context, repo *repository.ProgressionRepository, playerID string, side battle.SideResult) ([]domain.LevelUp, error) {
	ups, err := repo.ApplyHeroXP(ctx, playerID, side)
	if err != nil {
		return nil, fmt.Errorf("failed to apply hero xp for %s: %w", playerID, err)
	}
	up, err := repo.ApplySummonXP(ctx, playerID, side.SummonXP)
	if err != nil {
		return nil, fmt.Errorf("failed to apply summon xp for %s: %w", playerID, err)
	}
	if up != nil {
		ups = append(ups, *up)
	}
	return ups, nil
}

// notify sends the webhook in the background; failures are only logged.
func (s *ArenaService) notify(log *domain.BattleLog, challenger, defender string) {
	if !s.notifier.Enabled() {
		return
	}
	event := api.BattleEvent{
		BattleID:          log.ID,
		ChallengerID:      log.ChallengerID,
		Challenger:        challenger,
		DefenderID:        log.DefenderID,
		Defender:          defender,
		Winner:            string(log.Outcome.Winner),
		Rounds:            len(log.Outcome.Rounds),
		EnergyCost:        log.EnergyCost,
		IsReturnChallenge: log.IsReturnChallenge,
		Seed:              log.Outcome.Seed,
		CreatedAt:         log.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.WebhookTimeout)
		defer cancel()
		if err := s.notifier.NotifyBattle(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("battle_id", event.BattleID).Msg("failed to deliver battle webhook")
		}
	}()
}

// ListOpponents ranks every other player with a non-empty team by team
// power and prices a challenge against each.
func (s *ArenaService) ListOpponents(ctx context.Context, playerID string, page, size int) (*OpponentPage, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	page, size = normalizePage(page, size)

	others, err := s.players.ListOthers(ctx, playerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	opponents := make([]*domain.Opponent, len(others))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(rosterLoadConcurrency)
	for i := range others {
		p := others[i]
		g.Go(func() error {
			roster, err := s.rosters.LoadRoster(gCtx, p.ID)
			if err != nil {
				return fmt.Errorf("failed to load roster for %s: %w", p.ID, err)
			}
			team, err := battle.LoadFighters(roster)
			if err != nil {
				s.logger.Warn().Err(err).Str("player_id", p.ID).Msg("skipping opponent with invalid roster")
				return nil
			}
			if len(team.Fighters) == 0 {
				return nil
			}
			returnID, err := s.battles.PendingReturn(gCtx, p.ID, playerID)
			if err != nil {
				return err
			}
			online := p.IsOnline(now)
			opponents[i] = &domain.Opponent{
				PlayerID:         p.ID,
				Username:         p.Username,
				TeamPower:        math.Round(team.Power()*100) / 100,
				HeroCount:        len(team.Fighters),
				IsOnline:         online,
				HasPendingReturn: returnID != "",
				EnergyCost:       ChallengeCost(returnID != "", online),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ranked []domain.Opponent
	for _, o := range opponents {
		if o != nil {
			ranked = append(ranked, *o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TeamPower > ranked[j].TeamPower })

	result := &OpponentPage{TotalPlayers: len(ranked), Page: page, Size: size}
	start := page * size
	if start < len(ranked) {
		end := min(start+size, len(ranked))
		result.Opponents = ranked[start:end]
	}
	return result, nil
}

func (s *ArenaService) BattleHistory(ctx context.Context, playerID string, page, size int) ([]domain.BattleSummary, error) {
	page, size = normalizePage(page, size)
	return s.battles.History(ctx, playerID, size, page*size)
}

// GetBattle returns a stored battle. Battles the player took no part in are
// reported as not found.
func (s *ArenaService) GetBattle(ctx context.Context, playerID, battleID string) (*BattleView, error) {
	log, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if log.ChallengerID != playerID && log.DefenderID != playerID {
		return nil, repository.ErrNotFound
	}

	view := &BattleView{
		BattleID:   log.ID,
		Result:     "LOSS",
		GoldEarned: log.DefenderGold,
		EnergyCost: log.EnergyCost,
		CreatedAt:  log.CreatedAt,
		Outcome:    log.Outcome,
	}
	if log.WinnerID == playerID {
		view.Result = "WIN"
	}
	if log.ChallengerID == playerID {
		view.GoldEarned = log.ChallengerGold
	}
	return view, nil
}

func (s *ArenaService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > constants.LeaderboardLimit {
		limit = constants.LeaderboardLimit
	}
	return s.players.Leaderboard(ctx, limit)
}

// Preview runs a battle between two ad-hoc rosters without touching any
// player state. A zero seed draws a random one.
func (s *ArenaService) Preview(challenger, defender battle.Roster, seed int64) (*battle.BattleOutcome, error) {
	ct, err := battle.LoadFighters(challenger)
	if err != nil {
		return nil, fmt.Errorf("challenger roster: %w", err)
	}
	dt, err := battle.LoadFighters(defender)
	if err != nil {
		return nil, fmt.Errorf("defender roster: %w", err)
	}
	opts := s.battleOptions()
	if seed != 0 {
		opts = append(opts, battle.WithSeed(seed))
	}
	return battle.Simulate(ct, dt, opts...)
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = constants.DefaultPageSize
	}
	if size > constants.MaxPageSize {
		size = constants.MaxPageSize
	}
	return page, size
}
