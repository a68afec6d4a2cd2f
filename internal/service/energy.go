package service

import (
	"time"

	"hero-manager/internal/constants"
	"hero-manager/internal/domain"
)

// RegenerateEnergy adds one point per elapsed regeneration interval since
// last, capped at the maximum. The returned timestamp advances only by whole
// intervals so a partial tick carries over.
func RegenerateEnergy(energy int, last, now time.Time) (int, time.Time) {
	if !now.After(last) {
		return energy, last
	}
	ticks := int(now.Sub(last) / constants.EnergyRegenInterval)
	if ticks == 0 {
		return energy, last
	}
	energy += ticks
	if energy > constants.MaxArenaEnergy {
		energy = constants.MaxArenaEnergy
	}
	return energy, last.Add(time.Duration(ticks) * constants.EnergyRegenInterval)
}

// NextEnergyIn is the wait until the next point regenerates. It is zero when
// the bar is full.
func NextEnergyIn(energy int, last, now time.Time) time.Duration {
	if energy >= constants.MaxArenaEnergy {
		return 0
	}
	into := now.Sub(last) % constants.EnergyRegenInterval
	if into < 0 {
		into = 0
	}
	return constants.EnergyRegenInterval - into
}

// ChallengeCost prices a challenge: a return challenge is cheapest, then an
// online defender, then an offline one.
func ChallengeCost(isReturn, defenderOnline bool) int {
	switch {
	case isReturn:
		return constants.ReturnChallengeCost
	case defenderOnline:
		return constants.OnlineChallengeCost
	default:
		return constants.OfflineChallengeCost
	}
}

// refreshEnergy brings p's energy up to date in place.
func refreshEnergy(p *domain.Player, now time.Time) {
	p.ArenaEnergy, p.LastEnergyUpdate = RegenerateEnergy(p.ArenaEnergy, p.LastEnergyUpdate, now)
}

func markOnline(p *domain.Player, now time.Time) {
	until := now.Add(constants.OnlineWindow)
	p.OnlineUntil = &until
}
