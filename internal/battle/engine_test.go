package battle

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimulateSingleDuel(t *testing.T) {
	challenger := &Team{Name: "alice", Fighters: []Fighter{commoner("Knight", 1, Stats{PhysicalAttack: 10, Stamina: 100})}}
	defender := &Team{Name: "bob", Fighters: []Fighter{commoner("Squire", 1, Stats{PhysicalAttack: 5, Stamina: 100})}}

	out, err := Simulate(challenger, defender, WithSeed(7))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if out.Winner != SideChallenger {
		t.Fatalf("expected challenger to win, got %s", out.Winner)
	}
	if len(out.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(out.Rounds))
	}

	r := out.Rounds[0]
	if r.Number != 1 || r.Winner != RoundWinnerAttacker {
		t.Fatalf("unexpected round header: %+v", r)
	}
	if r.Attacker.AttackValue != 5.0 || r.Defender.AttackValue != 2.5 {
		t.Fatalf("expected attack values 5.0 vs 2.5, got %v vs %v", r.Attacker.AttackValue, r.Defender.AttackValue)
	}
	if r.Attacker.StaminaModifier != 1 {
		t.Fatalf("expected fresh fighter at full capacity, got %v", r.Attacker.StaminaModifier)
	}
	if diff := cmp.Diff(map[string]int{"Knight": 6}, out.Challenger.XP); diff != "" {
		t.Fatalf("challenger XP mismatch (-want +got):\n%s", diff)
	}
	if len(out.Defender.XP) != 0 {
		t.Fatalf("expected no defender XP, got %v", out.Defender.XP)
	}
	if out.Challenger.SummonXP != 1 || out.Defender.SummonXP != 0 {
		t.Fatalf("expected summon XP 1/0, got %d/%d", out.Challenger.SummonXP, out.Defender.SummonXP)
	}
	if out.Seed != 7 {
		t.Fatalf("expected seed recorded, got %d", out.Seed)
	}
}

func TestSimulateTieFavoursDefender(t *testing.T) {
	stats := Stats{PhysicalAttack: 12, MagicPower: 8, Dexterity: 9, Stamina: 100}
	challenger := &Team{Fighters: []Fighter{commoner("Twin A", 1, stats)}}
	defender := &Team{Fighters: []Fighter{commoner("Twin B", 1, stats)}}

	out, err := Simulate(challenger, defender, WithRand(fixedRand(0.5)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	r := out.Rounds[0]
	if r.Attacker.AttackValue != r.Defender.AttackValue {
		t.Fatalf("expected a forced tie, got %v vs %v", r.Attacker.AttackValue, r.Defender.AttackValue)
	}
	if r.Winner != RoundWinnerDefender || out.Winner != SideDefender {
		t.Fatalf("expected defender to win a tie, got round %s battle %s", r.Winner, out.Winner)
	}
	if out.Defender.XP["Twin B"] != 6 {
		t.Fatalf("expected defender XP 6, got %v", out.Defender.XP)
	}
}

func TestSimulateCreditsXPPerFighter(t *testing.T) {
	idle := commoner("Knight", 1, Stats{Stamina: 100})
	idle.ID = "k1"
	striker := commoner("Knight", 2, Stats{PhysicalAttack: 20, Stamina: 100})
	striker.ID = "k2"
	challenger := &Team{Fighters: []Fighter{idle, striker}}
	defender := &Team{Fighters: []Fighter{commoner("Pawn", 1, Stats{PhysicalAttack: 4, Stamina: 100})}}

	out, err := Simulate(challenger, defender, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if out.Winner != SideChallenger || len(out.Rounds) != 2 {
		t.Fatalf("expected the second knight to win in round 2, got %s in %d", out.Winner, len(out.Rounds))
	}
	if out.Challenger.XP["Knight"] != 6 {
		t.Fatalf("expected name-keyed XP 6, got %v", out.Challenger.XP)
	}
	got := []int{out.Challenger.Fighters[0].XP, out.Challenger.Fighters[1].XP}
	if diff := cmp.Diff([]int{0, 6}, got); diff != "" {
		t.Fatalf("per-fighter XP mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulateEmptyDefenderLosesWithoutRounds(t *testing.T) {
	challenger := &Team{Name: "alice", Fighters: []Fighter{commoner("Knight", 1, Stats{PhysicalAttack: 1})}, HasSummon: true}
	defender := &Team{Name: "bob"}

	out, err := Simulate(challenger, defender, WithSeed(1))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if out.Winner != SideChallenger || len(out.Rounds) != 0 {
		t.Fatalf("expected zero-round challenger win, got %s with %d rounds", out.Winner, len(out.Rounds))
	}
	if out.Challenger.SummonXP != 1 {
		t.Fatalf("expected challenger summon XP 1, got %d", out.Challenger.SummonXP)
	}
}

func TestSimulatePreconditions(t *testing.T) {
	valid := &Team{Fighters: []Fighter{commoner("Knight", 1, Stats{})}}
	refill := commoner("Leech", 1, Stats{Mana: 5})
	refill.Spells = []Spell{{Name: "Refill", Trigger: TriggerAttack, ManaCost: -50, Chance: 1}}
	untriggered := commoner("Mute", 1, Stats{})
	untriggered.Spells = []Spell{{Name: "Silence", Chance: 1}}
	tests := []struct {
		name       string
		challenger *Team
		defender   *Team
		want       error
	}{
		{"nil challenger", nil, valid, ErrNilTeam},
		{"nil defender", valid, nil, ErrNilTeam},
		{"empty challenger", &Team{}, valid, ErrEmptyChallenger},
		{"bad slot", &Team{Fighters: []Fighter{commoner("Knight", 9, Stats{})}}, valid, ErrInvalidSlot},
		{"bad level", valid, &Team{Fighters: []Fighter{{Name: "Squire", Slot: 1}}}, ErrInvalidLevel},
		{"negative spell cost", &Team{Fighters: []Fighter{refill}}, valid, ErrInvalidSpell},
		{"spell without trigger", valid, &Team{Fighters: []Fighter{untriggered}}, ErrUnknownTrigger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.challenger, tt.defender, WithSeed(1))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulateAccumulatesXPAndStreaks(t *testing.T) {
	champion := commoner("Champion", 1, Stats{PhysicalAttack: 100, Stamina: 100})
	challenger := &Team{Fighters: []Fighter{champion}}

	weak := func(name string, level int) Fighter {
		f := commoner(name, level, Stats{PhysicalAttack: 5, Stamina: 100})
		f.Level = level // slot and level coincide for these three
		return f
	}
	defender := &Team{Fighters: []Fighter{weak("Pawn", 1), weak("Rook", 2), weak("Bishop", 3)}}

	out, err := Simulate(challenger, defender, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if out.Winner != SideChallenger || len(out.Rounds) != 3 {
		t.Fatalf("expected challenger sweep in 3 rounds, got %s in %d", out.Winner, len(out.Rounds))
	}
	if got := out.Challenger.XP["Champion"]; got != 6+8+10 {
		t.Fatalf("expected XP 24 summed across rounds, got %d", got)
	}

	wantModifiers := []float64{1, 0.95, 0.8}
	for i, r := range out.Rounds {
		if r.Attacker.StaminaModifier != wantModifiers[i] {
			t.Fatalf("round %d: expected stamina modifier %v, got %v", i+1, wantModifiers[i], r.Attacker.StaminaModifier)
		}
		if r.Attacker.ConsecutiveWins != i {
			t.Fatalf("round %d: expected %d prior wins, got %d", i+1, i, r.Attacker.ConsecutiveWins)
		}
	}

	rec := out.Challenger.Fighters[0]
	if rec.RoundsWon != 3 || rec.LongestStreak != 3 || rec.XP != 24 || rec.Eliminated {
		t.Fatalf("unexpected champion record: %+v", rec)
	}
	for _, r := range out.Defender.Fighters {
		if !r.Eliminated || r.RoundsLost != 1 || r.XP != 0 {
			t.Fatalf("expected every defender eliminated once, got %+v", r)
		}
	}
}

func TestSimulateFatigueLetsDefenderRecover(t *testing.T) {
	// A low-stamina champion tires quickly: 20 PA at wins=2 with zero
	// efficiency is 20*0.5*0.30 = 3, below the defender's 4.
	champion := commoner("Sprinter", 1, Stats{PhysicalAttack: 20})
	challenger := &Team{Fighters: []Fighter{champion}}
	defender := &Team{Fighters: []Fighter{
		commoner("A", 1, Stats{PhysicalAttack: 8}),
		commoner("B", 2, Stats{PhysicalAttack: 8}),
		commoner("C", 3, Stats{PhysicalAttack: 8}),
	}}

	out, err := Simulate(challenger, defender, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if out.Winner != SideDefender {
		t.Fatalf("expected fatigue to hand the win to the defender, got %s", out.Winner)
	}
	if len(out.Rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(out.Rounds))
	}
	if out.Defender.XP["C"] != 4+2*1 {
		t.Fatalf("expected C to earn 6 XP, got %v", out.Defender.XP)
	}
}

func TestSimulateElementalBonus(t *testing.T) {
	pyro := commoner("Pyro", 1, Stats{PhysicalAttack: 10, Element: 10, Stamina: 100})
	pyro.Element = ElementFire
	gale := commoner("Gale", 1, Stats{PhysicalAttack: 40, Element: 4, Stamina: 100})
	gale.Element = ElementWind

	out, err := Simulate(&Team{Fighters: []Fighter{pyro}}, &Team{Fighters: []Fighter{gale}}, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	r := out.Rounds[0]
	if r.Attacker.ElementalBonus != 30 || r.Attacker.AttackValue != 35 {
		t.Fatalf("expected fire over wind bonus 30 (value 35), got %+v", r.Attacker)
	}
	if r.Defender.ElementalBonus != 0 {
		t.Fatalf("expected no bonus for the disadvantaged side, got %v", r.Defender.ElementalBonus)
	}
	if r.Winner != RoundWinnerAttacker {
		t.Fatalf("expected the bonus to decide the round, got %s", r.Winner)
	}
}

func TestSimulateEntranceSpellFlipsRound(t *testing.T) {
	attacker := commoner("Brawler", 1, Stats{PhysicalAttack: 10, Stamina: 100})
	caster := commoner("Caster", 1, Stats{PhysicalAttack: 2, Mana: 50, Stamina: 100})
	caster.Spells = []Spell{{Name: "Ambush", Trigger: TriggerEntrance, ManaCost: 20, Chance: 1, Bonus: Stats{PhysicalAttack: 30}}}

	out, err := Simulate(&Team{Fighters: []Fighter{attacker}}, &Team{Fighters: []Fighter{caster}}, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	r := out.Rounds[0]
	if len(r.DefenderSpells) != 1 || r.DefenderSpells[0].Spell != "Ambush" {
		t.Fatalf("expected Ambush to fire, got %+v", r.DefenderSpells)
	}
	if r.DefenderManaLeft != 30 || out.Defender.ManaLeft != 30 {
		t.Fatalf("expected 30 mana left, got %v / %v", r.DefenderManaLeft, out.Defender.ManaLeft)
	}
	if r.Defender.Stats.PhysicalAttack != 32 {
		t.Fatalf("expected spell bonus in the round snapshot, got %v", r.Defender.Stats.PhysicalAttack)
	}
	if out.Winner != SideDefender {
		t.Fatalf("expected spell to win the battle for the defender, got %s", out.Winner)
	}
}

func TestSimulateOffPositionPenaltyLogged(t *testing.T) {
	legend := Fighter{ID: "l", Name: "Legend", Level: 10, Tier: TierLegendary, Slot: 1, Stats: Stats{PhysicalAttack: 10, Stamina: 40}}

	out, err := Simulate(&Team{Fighters: []Fighter{legend}}, &Team{Fighters: []Fighter{commoner("Pawn", 1, Stats{})}}, WithRand(fixedRand(0)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	// threshold 50+30=80, stamina 40: penalty 0.8*0.5.
	if got := out.Rounds[0].Attacker.OffPositionPenalty; got != 0.4 {
		t.Fatalf("expected off-position penalty 0.4, got %v", got)
	}
}

func TestSimulateDoesNotMutateInputs(t *testing.T) {
	challenger := randomTeam(rand.New(rand.NewSource(11)), "alice")
	defender := randomTeam(rand.New(rand.NewSource(12)), "bob")
	beforeC, beforeD := challenger.clone(), defender.clone()

	if _, err := Simulate(challenger, defender, WithSeed(99)); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if diff := cmp.Diff(beforeC, challenger); diff != "" {
		t.Fatalf("challenger mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(beforeD, defender); diff != "" {
		t.Fatalf("defender mutated (-before +after):\n%s", diff)
	}
}

func TestSimulateSameSeedSameOutcome(t *testing.T) {
	challenger := randomTeam(rand.New(rand.NewSource(21)), "alice")
	defender := randomTeam(rand.New(rand.NewSource(22)), "bob")

	first, err := Simulate(challenger, defender, WithSeed(2024))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	second, err := Simulate(challenger, defender, WithSeed(2024))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("outcomes differ for the same seed (-first +second):\n%s", diff)
	}
}

func TestSimulateExactlyOneSideExhausted(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		gen := rand.New(rand.NewSource(seed))
		challenger := randomTeam(gen, "alice")
		defender := randomTeam(gen, "bob")
		if gen.Intn(10) == 0 {
			defender.Fighters = nil
		}

		out, err := Simulate(challenger, defender, WithSeed(seed))
		if err != nil {
			t.Fatalf("seed %d: simulate: %v", seed, err)
		}

		loserSide := SideDefender
		if out.Winner == SideDefender {
			loserSide = SideChallenger
		}
		winner, loser := out.Result(out.Winner), out.Result(loserSide)
		for _, f := range loser.Fighters {
			if !f.Eliminated {
				t.Fatalf("seed %d: loser fighter %s still standing", seed, f.Name)
			}
		}
		standing := 0
		for _, f := range winner.Fighters {
			if !f.Eliminated {
				standing++
			}
		}
		if standing == 0 {
			t.Fatalf("seed %d: winner %s has no fighter left", seed, out.Winner)
		}
		eliminated := len(winner.Fighters) - standing + len(loser.Fighters)
		if eliminated != len(out.Rounds) {
			t.Fatalf("seed %d: %d eliminations over %d rounds", seed, eliminated, len(out.Rounds))
		}
		if winner.SummonXP != 1 || loser.SummonXP != 0 {
			t.Fatalf("seed %d: summon XP flags %d/%d", seed, winner.SummonXP, loser.SummonXP)
		}
	}
}

func randomTeam(gen *rand.Rand, owner string) *Team {
	elements := []Element{ElementNone, ElementFire, ElementWater, ElementWind, ElementLightning, ElementEarth}
	tiers := []Tier{TierCommoner, TierElite, TierLegendary}

	n := 1 + gen.Intn(6)
	team := &Team{Name: owner, HasSummon: gen.Intn(2) == 0}
	for i := 0; i < n; i++ {
		f := Fighter{
			ID:      fmt.Sprintf("%s-%d", owner, i),
			Name:    fmt.Sprintf("%s hero %d", owner, i),
			Level:   1 + gen.Intn(20),
			Tier:    tiers[gen.Intn(len(tiers))],
			Element: elements[gen.Intn(len(elements))],
			Slot:    i + 1,
			Stats: Stats{
				PhysicalAttack: float64(gen.Intn(60)),
				MagicPower:     float64(gen.Intn(60)),
				Dexterity:      float64(gen.Intn(40)),
				Element:        float64(gen.Intn(20)),
				Mana:           float64(gen.Intn(50)),
				Stamina:        float64(gen.Intn(200)),
			},
		}
		if gen.Intn(2) == 0 {
			f.Spells = []Spell{
				{Name: "Entrance", Trigger: TriggerEntrance, ManaCost: 10, Chance: 0.5, Bonus: Stats{MagicPower: 15}},
				{Name: "Strike", Trigger: TriggerAttack, ManaCost: 5, Chance: 0.3, Bonus: Stats{PhysicalAttack: 8}},
			}
		}
		team.Fighters = append(team.Fighters, f)
	}
	return team
}
