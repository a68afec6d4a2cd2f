package server

import (
	"time"

	"hero-manager/internal/battle"
)

type ChallengeRequest struct {
	ChallengerID string `json:"challengerId"`
	DefenderID   string `json:"defenderId"`
}

type LevelUp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FromLevel int    `json:"fromLevel"`
	ToLevel   int    `json:"toLevel"`
}

type ChallengeResponse struct {
	BattleID             string                `json:"battleId"`
	Result               string                `json:"result"`
	GoldEarned           int                   `json:"goldEarned"`
	EnergyCost           int                   `json:"energyCost"`
	ArenaEnergyRemaining int                   `json:"arenaEnergyRemaining"`
	IsReturnChallenge    bool                  `json:"isReturnChallenge"`
	LevelUps             []LevelUp             `json:"levelUps,omitempty"`
	BattleLog            *battle.BattleOutcome `json:"battleLog"`
}

type ListOpponentsRequest struct {
	PlayerID string `json:"playerId"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

type Opponent struct {
	PlayerID         string  `json:"playerId"`
	Username         string  `json:"username"`
	TeamPower        float64 `json:"teamPower"`
	HeroCount        int     `json:"heroCount"`
	IsOnline         bool    `json:"isOnline"`
	HasPendingReturn bool    `json:"hasPendingReturn"`
	EnergyCost       int     `json:"energyCost"`
}

type ListOpponentsResponse struct {
	Opponents    []Opponent `json:"opponents"`
	TotalPlayers int        `json:"totalPlayers"`
	Page         int        `json:"page"`
	Size         int        `json:"size"`
}

type BattleHistoryRequest struct {
	PlayerID string `json:"playerId"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

type BattleSummary struct {
	BattleID           string    `json:"battleId"`
	OpponentID         string    `json:"opponentId"`
	OpponentUsername   string    `json:"opponentUsername"`
	Result             string    `json:"result"`
	GoldEarned         int       `json:"goldEarned"`
	WasChallenger      bool      `json:"wasChallenger"`
	CanReturnChallenge bool      `json:"canReturnChallenge"`
	CreatedAt          time.Time `json:"createdAt"`
}

type BattleHistoryResponse struct {
	Battles []BattleSummary `json:"battles"`
	Page    int             `json:"page"`
}

type GetBattleRequest struct {
	PlayerID string `json:"playerId"`
	BattleID string `json:"battleId"`
}

type GetBattleResponse struct {
	BattleID   string                `json:"battleId"`
	Result     string                `json:"result"`
	GoldEarned int                   `json:"goldEarned"`
	EnergyCost int                   `json:"energyCost"`
	CreatedAt  time.Time             `json:"createdAt"`
	BattleLog  *battle.BattleOutcome `json:"battleLog"`
}

type LeaderboardRequest struct {
	Limit int `json:"limit"`
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	PlayerID      string `json:"playerId"`
	Username      string `json:"username"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	WinStreak     int    `json:"winStreak"`
	BestWinStreak int    `json:"bestWinStreak"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// SimulateRequest previews a battle between two inline rosters. Seed 0
// draws a random seed, reported back on the outcome.
type SimulateRequest struct {
	Challenger battle.Roster `json:"challenger"`
	Defender   battle.Roster `json:"defender"`
	Seed       int64         `json:"seed"`
}

type SimulateResponse struct {
	BattleLog *battle.BattleOutcome `json:"battleLog"`
}
