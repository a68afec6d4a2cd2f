package battle

// Progress is a hero's or summon's persisted level and experience.
type Progress struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// XPThreshold is the experience needed to leave level: level²*10.
func XPThreshold(level int) int {
	return level * level * 10
}

// ApplyXP adds gained experience and levels up as many times as the total
// allows, carrying the remainder. It returns the new progress and the number
// of levels gained.
func ApplyXP(p Progress, gained int) (Progress, int) {
	if p.Level < 1 {
		p.Level = 1
	}
	p.XP += gained
	levels := 0
	for p.XP >= XPThreshold(p.Level) {
		p.XP -= XPThreshold(p.Level)
		p.Level++
		levels++
	}
	return p, levels
}

// SummonXP is the experience a team's summon earns from a battle.
func SummonXP(won bool) int {
	if won {
		return summonXPAward
	}
	return 0
}
