package repository

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hero-manager/internal/battle"
	"hero-manager/internal/domain"
)

func TestApplyHeroXP(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := r.player(t, "alice")

	roster, err := r.rosters.LoadRoster(ctx, alice)
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	knight, oracle := roster.Heroes[0], roster.Heroes[1]

	// Knight is level 3 with 0 XP: 90 to level 4, then 160 to level 5.
	side := battle.SideResult{
		Fighters: []battle.FighterRecord{
			{ID: knight.ID, Name: "Knight", RoundsWon: 3, RoundsLost: 1, Eliminated: true, XP: 100},
			{ID: oracle.ID, Name: "Oracle", RoundsLost: 1, Eliminated: true},
		},
	}
	ups, err := r.progression.ApplyHeroXP(ctx, alice, side)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	expected := []domain.LevelUp{{ID: knight.ID, Name: "Knight", FromLevel: 3, ToLevel: 4}}
	if diff := cmp.Diff(expected, ups); diff != "" {
		t.Fatalf("level ups mismatch (-expected +got):\n%s", diff)
	}

	var level, xp, won, lost int
	err = r.db.QueryRow(`SELECT level, current_xp, clashes_won, clashes_lost FROM heroes WHERE id = ?`, knight.ID).
		Scan(&level, &xp, &won, &lost)
	if err != nil {
		t.Fatalf("read knight: %v", err)
	}
	if level != 4 || xp != 10 || won != 3 || lost != 1 {
		t.Fatalf("unexpected knight row: level %d xp %d won %d lost %d", level, xp, won, lost)
	}

	err = r.db.QueryRow(`SELECT level, current_xp, clashes_lost FROM heroes WHERE id = ?`, oracle.ID).Scan(&level, &xp, &lost)
	if err != nil {
		t.Fatalf("read oracle: %v", err)
	}
	if level != 2 || xp != 0 || lost != 1 {
		t.Fatalf("unexpected oracle row: level %d xp %d lost %d", level, xp, lost)
	}
}

func TestApplyHeroXPIgnoresForeignHeroes(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	bobRoster, err := r.rosters.LoadRoster(ctx, r.player(t, "bob"))
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	side := battle.SideResult{
		Fighters: []battle.FighterRecord{{ID: bobRoster.Heroes[0].ID, Name: "Knight", XP: 500}},
	}
	ups, err := r.progression.ApplyHeroXP(ctx, r.player(t, "alice"), side)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(ups) != 0 {
		t.Fatalf("expected bob's hero to be untouched, got %+v", ups)
	}
}

func TestApplySummonXP(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := r.player(t, "alice")

	var summonID string
	if err := r.db.QueryRow(`SELECT summon_id FROM team_slots WHERE player_id = ? AND slot_number = 7`, alice).Scan(&summonID); err != nil {
		t.Fatalf("find summon: %v", err)
	}
	// Level 2 needs 40 XP.
	if _, err := r.db.Exec(`UPDATE summons SET current_xp = 39 WHERE id = ?`, summonID); err != nil {
		t.Fatalf("prime summon: %v", err)
	}

	up, err := r.progression.ApplySummonXP(ctx, alice, battle.SummonXP(true))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if up == nil || up.FromLevel != 2 || up.ToLevel != 3 || up.Name != "Phoenix" {
		t.Fatalf("expected phoenix to reach level 3, got %+v", up)
	}

	// No summon: nothing to credit.
	up, err = r.progression.ApplySummonXP(ctx, r.player(t, "bob"), 1)
	if err != nil || up != nil {
		t.Fatalf("expected silent skip for a player without summon, got %+v, %v", up, err)
	}

	// A losing side earns nothing.
	up, err = r.progression.ApplySummonXP(ctx, alice, battle.SummonXP(false))
	if err != nil || up != nil {
		t.Fatalf("expected no-op for zero XP, got %+v, %v", up, err)
	}
}

func TestApplyHeroXPSameNameHeroes(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := r.player(t, "alice")

	idle, err := r.rosters.CreateHero(ctx, alice, "knight", 1, 3)
	if err != nil {
		t.Fatalf("create second knight: %v", err)
	}
	roster, err := r.rosters.LoadRoster(ctx, alice)
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	team, err := battle.LoadFighters(roster)
	if err != nil {
		t.Fatalf("load fighters: %v", err)
	}

	dummy := &battle.Team{Name: "dummy", Fighters: []battle.Fighter{{
		ID: "dummy", Name: "Dummy", Level: 1, Tier: battle.TierCommoner, Slot: 1,
		Stats: battle.Stats{Stamina: 100},
	}}}
	outcome, err := battle.Simulate(team, dummy, battle.WithSeed(1))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if outcome.Challenger.XP["Knight"] != 6 {
		t.Fatalf("expected the front knight to earn 6 XP, got %v", outcome.Challenger.XP)
	}

	if _, err := r.progression.ApplyHeroXP(ctx, alice, outcome.Challenger); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var xp int
	if err := r.db.QueryRow(`SELECT current_xp FROM heroes WHERE id = ?`, idle).Scan(&xp); err != nil {
		t.Fatalf("read idle knight: %v", err)
	}
	if xp != 0 {
		t.Fatalf("knight that never fought was credited %d XP", xp)
	}
	if err := r.db.QueryRow(`SELECT current_xp FROM heroes WHERE id = ?`, roster.Heroes[0].ID).Scan(&xp); err != nil {
		t.Fatalf("read front knight: %v", err)
	}
	if xp != 6 {
		t.Fatalf("expected front knight to hold 6 XP, got %d", xp)
	}
}
