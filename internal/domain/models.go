package domain

import (
	"time"

	"hero-manager/internal/battle"
)

type Player struct {
	ID               string
	Username         string
	Gold             int
	ArenaEnergy      int
	LastEnergyUpdate time.Time
	OnlineUntil      *time.Time
	Wins             int
	Losses           int
	WinStreak        int
	BestWinStreak    int
	LossStreak       int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOnline reports whether the player acted in the arena recently enough to
// count as online at now.
func (p *Player) IsOnline(now time.Time) bool {
	return p.OnlineUntil != nil && p.OnlineUntil.After(now)
}

type Hero struct {
	ID          string
	PlayerID    string
	Template    string
	DisplayName string
	Tier        battle.Tier
	Element     battle.Element
	Level       int
	CurrentXP   int
	ClashesWon  int
	ClashesLost int
}

type Summon struct {
	ID          string
	PlayerID    string
	Template    string
	DisplayName string
	Level       int
	CurrentXP   int
}

type BattleLog struct {
	ID                  string
	ChallengerID        string
	DefenderID          string
	WinnerID            string
	ChallengerGold      int
	DefenderGold        int
	EnergyCost          int
	IsReturnChallenge   bool
	ReturnChallengeUsed bool
	Outcome             *battle.BattleOutcome
	CreatedAt           time.Time
}

// BattleSummary is one row of a player's battle history, seen from that
// player's side.
type BattleSummary struct {
	BattleID           string
	OpponentID         string
	OpponentUsername   string
	Result             string // "WIN" or "LOSS"
	GoldEarned         int
	WasChallenger      bool
	CanReturnChallenge bool
	CreatedAt          time.Time
}

type Opponent struct {
	PlayerID         string
	Username         string
	TeamPower        float64
	HeroCount        int
	IsOnline         bool
	HasPendingReturn bool
	EnergyCost       int
}

type LeaderboardEntry struct {
	Rank          int
	PlayerID      string
	Username      string
	Wins          int
	Losses        int
	BestWinStreak int
	WinStreak     int
}

// LevelUp reports a hero or summon that gained levels from a battle.
type LevelUp struct {
	ID        string
	Name      string
	FromLevel int
	ToLevel   int
}
