package constants

import "time"

const (
	WebhookTimeout  = 5 * time.Second
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Arena energy.
const (
	MaxArenaEnergy      = 120
	EnergyRegenInterval = 10 * time.Minute
	OnlineWindow        = 40 * time.Minute
)

// Challenge costs and rewards.
const (
	ReturnChallengeCost  = 4
	OnlineChallengeCost  = 5
	OfflineChallengeCost = 7

	WinnerGold = 2
	LoserGold  = 1
)

const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	LeaderboardLimit = 100
)
