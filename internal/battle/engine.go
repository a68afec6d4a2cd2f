package battle

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Side names one of the two teams in a battle.
type Side string

const (
	SideChallenger Side = "challenger"
	SideDefender   Side = "defender"
)

// Round winner tags. The challenger's fighter is always the attacker.
const (
	RoundWinnerAttacker = "attacker"
	RoundWinnerDefender = "defender"
)

// State is the round engine's position in its state machine.
type State int

const (
	StateRunning State = iota
	StateChallengerWon
	StateDefenderWon
)

const (
	physicalAttackWeight = 0.5
	dexterityWeight      = 0.33
	magicFactorMin       = 0.1
	magicFactorMax       = 1.0

	xpPerWin        = 4
	xpPerLoserLevel = 2
	summonXPAward   = 1
)

// FighterSnapshot is how one active fighter entered a round.
type FighterSnapshot struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Level              int     `json:"level"`
	Slot               int     `json:"slot"`
	Element            Element `json:"element"`
	Stats              Stats   `json:"stats"`
	ConsecutiveWins    int     `json:"consecutiveWins"`
	OffPositionPenalty float64 `json:"offPositionPenalty"`
	StaminaEfficiency  float64 `json:"staminaEfficiency"`
	StaminaModifier    float64 `json:"staminaModifier"`
	MagicFactor        float64 `json:"magicFactor"`
	ElementalBonus     float64 `json:"elementalBonus"`
	AttackValue        float64 `json:"attackValue"`
}

// Round is the immutable log record of one exchange.
type Round struct {
	Number           int             `json:"roundNumber"`
	Attacker         FighterSnapshot `json:"attacker"`
	Defender         FighterSnapshot `json:"defender"`
	AttackerSpells   []SpellCast     `json:"attackerSpells,omitempty"`
	DefenderSpells   []SpellCast     `json:"defenderSpells,omitempty"`
	AttackerManaLeft float64         `json:"attackerManaLeft"`
	DefenderManaLeft float64         `json:"defenderManaLeft"`
	Winner           string          `json:"winner"`
}

// FighterRecord tracks one fighter's battle. XP is this fighter's own
// share, unlike SideResult.XP which sums by display name.
type FighterRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	RoundsWon     int    `json:"roundsWon"`
	RoundsLost    int    `json:"roundsLost"`
	LongestStreak int    `json:"longestStreak"`
	Eliminated    bool   `json:"eliminated"`
	XP            int    `json:"xp"`
}

// SideResult is everything the outcome reports about one team.
type SideResult struct {
	Name     string          `json:"name"`
	Heroes   []string        `json:"heroes"`
	XP       map[string]int  `json:"xpGained"`
	SummonXP int             `json:"summonXp"`
	ManaLeft float64         `json:"manaLeft"`
	Fighters []FighterRecord `json:"fighters"`
}

// BattleOutcome is the engine's sole return value.
type BattleOutcome struct {
	Winner     Side       `json:"winner"`
	Seed       int64      `json:"seed,omitempty"`
	Challenger SideResult `json:"challenger"`
	Defender   SideResult `json:"defender"`
	Rounds     []Round    `json:"rounds"`
}

// Result returns the outcome from the given side's perspective.
func (o *BattleOutcome) Result(side Side) *SideResult {
	if side == SideChallenger {
		return &o.Challenger
	}
	return &o.Defender
}

type Option func(*options)

type options struct {
	rng    Rand
	seed   int64
	seeded bool
	logger zerolog.Logger
}

// WithRand makes the battle draw from r. The outcome's Seed is left empty.
func WithRand(r Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithSeed makes the battle reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithLogger enables debug traces of every round.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type sideState struct {
	label   Side
	team    *Team
	idx     int
	mana    float64
	entered map[string]bool
	xp      map[string]int
	records []FighterRecord
}

func newSideState(label Side, team *Team) *sideState {
	records := make([]FighterRecord, len(team.Fighters))
	for i, f := range team.Fighters {
		records[i] = FighterRecord{ID: f.ID, Name: f.Name, Level: f.Level}
	}
	return &sideState{
		label:   label,
		team:    team,
		mana:    team.ManaPool(),
		entered: map[string]bool{},
		xp:      map[string]int{},
		records: records,
	}
}

func (s *sideState) exhausted() bool { return s.idx >= len(s.team.Fighters) }
func (s *sideState) active() *Fighter { return &s.team.Fighters[s.idx] }

func (s *sideState) result(won bool) SideResult {
	res := SideResult{
		Name:     s.team.Name,
		Heroes:   s.team.HeroNames(),
		XP:       s.xp,
		ManaLeft: s.mana,
		Fighters: s.records,
	}
	res.SummonXP = SummonXP(won)
	return res
}

type engine struct {
	rng        Rand
	logger     zerolog.Logger
	challenger *sideState
	defender   *sideState
	state      State
	rounds     []Round
}

// Simulate runs a full battle between two teams and returns its outcome.
//
// The teams are copied; the caller's values are never modified. The
// challenger's front fighter is the attacker of every round and the
// defender wins ties. An empty defender team loses without a round being
// played; an empty challenger team is ErrEmptyChallenger.
//
// Without WithRand or WithSeed a fresh seed is drawn per call and reported
// on the outcome so the battle can be replayed.
func Simulate(challenger, defender *Team, opts ...Option) (*BattleOutcome, error) {
	if challenger == nil || defender == nil {
		return nil, ErrNilTeam
	}
	if len(challenger.Fighters) == 0 {
		return nil, ErrEmptyChallenger
	}
	if err := validateTeam(challenger); err != nil {
		return nil, fmt.Errorf("challenger %q: %w", challenger.Name, err)
	}
	if err := validateTeam(defender); err != nil {
		return nil, fmt.Errorf("defender %q: %w", defender.Name, err)
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		if !o.seeded {
			seed, err := NewSeed()
			if err != nil {
				return nil, err
			}
			o.seed = seed
		}
		o.rng = NewRand(o.seed)
	}

	e := &engine{
		rng:        o.rng,
		logger:     o.logger,
		challenger: newSideState(SideChallenger, challenger.clone()),
		defender:   newSideState(SideDefender, defender.clone()),
	}
	e.run()

	winner := SideDefender
	if e.state == StateChallengerWon {
		winner = SideChallenger
	}
	e.logger.Debug().
		Str("winner", string(winner)).
		Int("rounds", len(e.rounds)).
		Msg("battle finished")

	return &BattleOutcome{
		Winner:     winner,
		Seed:       o.seed,
		Challenger: e.challenger.result(winner == SideChallenger),
		Defender:   e.defender.result(winner == SideDefender),
		Rounds:     e.rounds,
	}, nil
}

func validateTeam(t *Team) error {
	for _, f := range t.Fighters {
		if f.Level < 1 {
			return fmt.Errorf("fighter %q: %w", f.Name, ErrInvalidLevel)
		}
		if _, ok := SlotTier(f.Slot); !ok {
			return fmt.Errorf("fighter %q in slot %d: %w", f.Name, f.Slot, ErrInvalidSlot)
		}
		for _, sp := range f.Spells {
			if err := sp.validate(); err != nil {
				return fmt.Errorf("fighter %q: %w", f.Name, err)
			}
		}
	}
	return nil
}

func (e *engine) run() {
	e.state = StateRunning
	for e.state == StateRunning {
		switch {
		case e.defender.exhausted():
			e.state = StateChallengerWon
		case e.challenger.exhausted():
			e.state = StateDefenderWon
		default:
			e.rounds = append(e.rounds, e.playRound(len(e.rounds)+1))
		}
	}
}

func (e *engine) playRound(number int) Round {
	c, d := e.challenger, e.defender
	att, def := c.active(), d.active()

	attStats, attCasts := castSpells(e.rng, c, att)
	defStats, defCasts := castSpells(e.rng, d, def)

	attSnap := e.evaluate(att, attStats, def, defStats)
	defSnap := e.evaluate(def, defStats, att, attStats)

	round := Round{
		Number:           number,
		AttackerSpells:   attCasts,
		DefenderSpells:   defCasts,
		AttackerManaLeft: c.mana,
		DefenderManaLeft: d.mana,
	}

	// Ties favour the defender.
	if attSnap.AttackValue > defSnap.AttackValue {
		round.Winner = RoundWinnerAttacker
		e.settle(c, d)
	} else {
		round.Winner = RoundWinnerDefender
		e.settle(d, c)
	}

	round.Attacker = roundSnapshot(attSnap)
	round.Defender = roundSnapshot(defSnap)

	e.logger.Debug().
		Int("round", number).
		Str("attacker", att.Name).
		Float64("attacker_value", attSnap.AttackValue).
		Str("defender", def.Name).
		Float64("defender_value", defSnap.AttackValue).
		Str("winner", round.Winner).
		Msg("round resolved")

	return round
}

// evaluate computes f's attack value for this round. stats already include
// any spell bonuses fired this round.
func (e *engine) evaluate(f *Fighter, stats Stats, opp *Fighter, oppStats Stats) FighterSnapshot {
	penalty := OffPositionPenalty(f.Tier, f.Slot, f.Level, stats.Stamina)
	eff := StaminaEfficiency(stats.Stamina*(1-penalty), f.Level)
	capacity := TurnCapacity(f.ConsecutiveWins, eff)
	magic := uniform(e.rng, magicFactorMin, magicFactorMax)
	bonus := ElementalBonus(f.Element, stats.Element, opp.Element, oppStats.Element)

	base := stats.PhysicalAttack*physicalAttackWeight + stats.MagicPower*magic + stats.Dexterity*dexterityWeight

	return FighterSnapshot{
		ID:                 f.ID,
		Name:               f.Name,
		Level:              f.Level,
		Slot:               f.Slot,
		Element:            f.Element,
		Stats:              stats,
		ConsecutiveWins:    f.ConsecutiveWins,
		OffPositionPenalty: penalty,
		StaminaEfficiency:  eff,
		StaminaModifier:    capacity,
		MagicFactor:        magic,
		ElementalBonus:     bonus,
		AttackValue:        base*capacity + bonus,
	}
}

// settle applies a round result: the loser's front fighter is eliminated and
// the winner's fighter is credited XP and a streak win.
func (e *engine) settle(winner, loser *sideState) {
	wf, lf := winner.active(), loser.active()

	wf.ConsecutiveWins++
	wr := &winner.records[winner.idx]
	wr.RoundsWon++
	if wf.ConsecutiveWins > wr.LongestStreak {
		wr.LongestStreak = wf.ConsecutiveWins
	}
	gain := xpPerWin + xpPerLoserLevel*lf.Level
	wr.XP += gain
	winner.xp[wf.Name] += gain

	lf.ConsecutiveWins = 0
	lr := &loser.records[loser.idx]
	lr.RoundsLost++
	lr.Eliminated = true
	loser.idx++
}

// roundSnapshot rounds the displayed numbers to two decimals. Comparisons are
// made on the unrounded values.
func roundSnapshot(s FighterSnapshot) FighterSnapshot {
	s.OffPositionPenalty = round2(s.OffPositionPenalty)
	s.StaminaEfficiency = round2(s.StaminaEfficiency)
	s.StaminaModifier = round2(s.StaminaModifier)
	s.MagicFactor = round2(s.MagicFactor)
	s.ElementalBonus = round2(s.ElementalBonus)
	s.AttackValue = round2(s.AttackValue)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
