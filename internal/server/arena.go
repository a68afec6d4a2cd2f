package server

import (
	"context"
	"errors"
	"net/http"

	"hero-manager/internal/battle"
	"hero-manager/internal/domain"
	"hero-manager/internal/repository"
	"hero-manager/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ArenaServicePath = "/heromanager.v1.ArenaService/"

const (
	ChallengeProcedure     = ArenaServicePath + "Challenge"
	ListOpponentsProcedure = ArenaServicePath + "ListOpponents"
	BattleHistoryProcedure = ArenaServicePath + "GetBattleHistory"
	GetBattleProcedure     = ArenaServicePath + "GetBattle"
	LeaderboardProcedure   = ArenaServicePath + "GetLeaderboard"
	SimulateProcedure      = ArenaServicePath + "Simulate"
)

type ArenaServer struct {
	arenaSvc *service.ArenaService
	logger   zerolog.Logger
}

func NewArenaServer(arenaSvc *service.ArenaService, logger zerolog.Logger) *ArenaServer {
	return &ArenaServer{arenaSvc: arenaSvc, logger: logger}
}

// Handler mounts every arena procedure and returns the path prefix to serve
// it under.
func (s *ArenaServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ChallengeProcedure, connect.NewUnaryHandler(ChallengeProcedure, s.Challenge, opts...))
	mux.Handle(ListOpponentsProcedure, connect.NewUnaryHandler(ListOpponentsProcedure, s.ListOpponents, opts...))
	mux.Handle(BattleHistoryProcedure, connect.NewUnaryHandler(BattleHistoryProcedure, s.GetBattleHistory, opts...))
	mux.Handle(GetBattleProcedure, connect.NewUnaryHandler(GetBattleProcedure, s.GetBattle, opts...))
	mux.Handle(LeaderboardProcedure, connect.NewUnaryHandler(LeaderboardProcedure, s.GetLeaderboard, opts...))
	mux.Handle(SimulateProcedure, connect.NewUnaryHandler(SimulateProcedure, s.Simulate, opts...))
	return ArenaServicePath, mux
}

func (s *ArenaServer) Challenge(ctx context.Context, req *connect.Request[ChallengeRequest]) (*connect.Response[ChallengeResponse], error) {
	if req.Msg.ChallengerID == "" || req.Msg.DefenderID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("challengerId and defenderId are required"))
	}

	res, err := s.arenaSvc.Challenge(ctx, req.Msg.ChallengerID, req.Msg.DefenderID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	return connect.NewResponse(&ChallengeResponse{
		BattleID:             res.BattleID,
		Result:               res.Result,
		GoldEarned:           res.GoldEarned,
		EnergyCost:           res.EnergyCost,
		ArenaEnergyRemaining: res.EnergyRemaining,
		IsReturnChallenge:    res.IsReturnChallenge,
		LevelUps:             levelUps(res.LevelUps),
		BattleLog:            res.Outcome,
	}), nil
}

func (s *ArenaServer) ListOpponents(ctx context.Context, req *connect.Request[ListOpponentsRequest]) (*connect.Response[ListOpponentsResponse], error) {
	if req.Msg.PlayerID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playerId is required"))
	}

	page, err := s.arenaSvc.ListOpponents(ctx, req.Msg.PlayerID, req.Msg.Page, req.Msg.Size)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	opponents := make([]Opponent, 0, len(page.Opponents))
	for _, o := range page.Opponents {
		opponents = append(opponents, Opponent{
			PlayerID:         o.PlayerID,
			Username:         o.Username,
			TeamPower:        o.TeamPower,
			HeroCount:        o.HeroCount,
			IsOnline:         o.IsOnline,
			HasPendingReturn: o.HasPendingReturn,
			EnergyCost:       o.EnergyCost,
		})
	}

	return connect.NewResponse(&ListOpponentsResponse{
		Opponents:    opponents,
		TotalPlayers: page.TotalPlayers,
		Page:         page.Page,
		Size:         page.Size,
	}), nil
}

func (s *ArenaServer) GetBattleHistory(ctx context.Context, req *connect.Request[BattleHistoryRequest]) (*connect.Response[BattleHistoryResponse], error) {
	if req.Msg.PlayerID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playerId is required"))
	}

	summaries, err := s.arenaSvc.BattleHistory(ctx, req.Msg.PlayerID, req.Msg.Page, req.Msg.Size)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	battles := make([]BattleSummary, 0, len(summaries))
	for _, b := range summaries {
		battles = append(battles, BattleSummary{
			BattleID:           b.BattleID,
			OpponentID:         b.OpponentID,
			OpponentUsername:   b.OpponentUsername,
			Result:             b.Result,
			GoldEarned:         b.GoldEarned,
			WasChallenger:      b.WasChallenger,
			CanReturnChallenge: b.CanReturnChallenge,
			CreatedAt:          b.CreatedAt,
		})
	}

	return connect.NewResponse(&BattleHistoryResponse{
		Battles: battles,
		Page:    req.Msg.Page,
	}), nil
}

func (s *ArenaServer) GetBattle(ctx context.Context, req *connect.Request[GetBattleRequest]) (*connect.Response[GetBattleResponse], error) {
	if req.Msg.PlayerID == "" || req.Msg.BattleID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playerId and battleId are required"))
	}

	view, err := s.arenaSvc.GetBattle(ctx, req.Msg.PlayerID, req.Msg.BattleID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	return connect.NewResponse(&GetBattleResponse{
		BattleID:   view.BattleID,
		Result:     view.Result,
		GoldEarned: view.GoldEarned,
		EnergyCost: view.EnergyCost,
		CreatedAt:  view.CreatedAt,
		BattleLog:  view.Outcome,
	}), nil
}

func (s *ArenaServer) GetLeaderboard(ctx context.Context, req *connect.Request[LeaderboardRequest]) (*connect.Response[LeaderboardResponse], error) {
	rows, err := s.arenaSvc.Leaderboard(ctx, req.Msg.Limit)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:          e.Rank,
			PlayerID:      e.PlayerID,
			Username:      e.Username,
			Wins:          e.Wins,
			Losses:        e.Losses,
			WinStreak:     e.WinStreak,
			BestWinStreak: e.BestWinStreak,
		})
	}
	return connect.NewResponse(&LeaderboardResponse{Entries: entries}), nil
}

func (s *ArenaServer) Simulate(ctx context.Context, req *connect.Request[SimulateRequest]) (*connect.Response[SimulateResponse], error) {
	outcome, err := s.arenaSvc.Preview(req.Msg.Challenger, req.Msg.Defender, req.Msg.Seed)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&SimulateResponse{BattleLog: outcome}), nil
}

func (s *ArenaServer) toConnectError(ctx context.Context, err error) error {
	code := errorCode(err)
	if code == connect.CodeInternal {
		zerolog.Ctx(ctx).Error().Err(err).Msg("arena request failed")
	}
	return connect.NewError(code, err)
}

func errorCode(err error) connect.Code {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, service.ErrInsufficientEnergy):
		return connect.CodeResourceExhausted
	case errors.Is(err, service.ErrSelfChallenge),
		errors.Is(err, battle.ErrEmptyChallenger):
		return connect.CodeFailedPrecondition
	case errors.Is(err, battle.ErrNilTeam),
		errors.Is(err, battle.ErrMissingTemplate),
		errors.Is(err, battle.ErrInvalidLevel),
		errors.Is(err, battle.ErrInvalidSlot),
		errors.Is(err, battle.ErrUnknownTier),
		errors.Is(err, battle.ErrUnknownTrigger),
		errors.Is(err, battle.ErrInvalidSpell):
		return connect.CodeInvalidArgument
	}
	return connect.CodeInternal
}

func levelUps(ups []domain.LevelUp) []LevelUp {
	if len(ups) == 0 {
		return nil
	}
	out := make([]LevelUp, len(ups))
	for i, u := range ups {
		out[i] = LevelUp{ID: u.ID, Name: u.Name, FromLevel: u.FromLevel, ToLevel: u.ToLevel}
	}
	return out
}
