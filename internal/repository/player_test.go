package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"hero-manager/internal/constants"
)

func TestCreateAndGetPlayer(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	p, err := r.players.Create(ctx, "dora", testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ArenaEnergy != constants.MaxArenaEnergy || !p.LastEnergyUpdate.Equal(testNow) || p.OnlineUntil != nil {
		t.Fatalf("unexpected new player: %+v", p)
	}

	byName, err := r.players.GetByUsername(ctx, "DORA")
	if err != nil {
		t.Fatalf("usernames should match case-insensitively: %v", err)
	}
	if byName.ID != p.ID {
		t.Fatalf("expected %s, got %s", p.ID, byName.ID)
	}

	if _, err := r.players.Create(ctx, "dora", testNow); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
	if _, err := r.players.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveArenaState(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	p, err := r.players.Get(ctx, r.player(t, "alice"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	online := testNow.Add(constants.OnlineWindow)
	p.ArenaEnergy = 33
	p.LastEnergyUpdate = testNow.Add(-3 * time.Minute)
	p.OnlineUntil = &online
	if err := r.players.SaveArenaState(ctx, p, testNow); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := r.players.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ArenaEnergy != 33 || !got.LastEnergyUpdate.Equal(p.LastEnergyUpdate) {
		t.Fatalf("energy not saved: %+v", got)
	}
	if got.OnlineUntil == nil || !got.OnlineUntil.Equal(online) {
		t.Fatalf("online window not saved: %v", got.OnlineUntil)
	}
	if !got.IsOnline(testNow) || got.IsOnline(online) {
		t.Fatal("expected online strictly before the window closes")
	}
}

func TestRecordResultStreaks(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	id := r.player(t, "bob")

	for _, won := range []bool{true, true, true, false, true} {
		if err := r.players.RecordResult(ctx, id, won, testNow); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	p, err := r.players.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Wins != 4 || p.Losses != 1 || p.WinStreak != 1 || p.BestWinStreak != 3 || p.LossStreak != 0 {
		t.Fatalf("unexpected streaks: %+v", p)
	}

	if err := r.players.AddGold(ctx, id, 2, testNow); err != nil {
		t.Fatalf("add gold: %v", err)
	}
	if err := r.players.AddGold(ctx, "missing", 2, testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboardAndListOthers(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice, bob := r.player(t, "alice"), r.player(t, "bob")

	if err := r.players.RecordResult(ctx, bob, true, testNow); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.players.RecordResult(ctx, alice, false, testNow); err != nil {
		t.Fatalf("record: %v", err)
	}

	board, err := r.players.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].Username != "bob" || board[0].Rank != 1 || board[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	others, err := r.players.ListOthers(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 1 || others[0].ID != bob {
		t.Fatalf("expected only bob, got %+v", others)
	}
}
