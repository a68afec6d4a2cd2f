package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hero-manager/internal/catalog"
	"hero-manager/internal/database"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testRepos struct {
	db          *sql.DB
	players     *PlayerRepository
	rosters     *RosterRepository
	progression *ProgressionRepository
	battles     *BattleLogRepository
	catalog     *CatalogRepository
}

// newTestRepos opens a fresh database seeded with the shared test catalog.
func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "arena.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	r := &testRepos{
		db:          db,
		players:     NewPlayerRepository(db, log),
		rosters:     NewRosterRepository(db, log),
		progression: NewProgressionRepository(db, log),
		battles:     NewBattleLogRepository(db, log),
	}
	r.catalog = NewCatalogRepository(db, r.players, r.rosters, log)

	c, err := catalog.Load("../catalog/testdata/catalog.yaml")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if err := r.catalog.Seed(context.Background(), c, testNow); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return r
}

func (r *testRepos) player(t *testing.T, username string) string {
	t.Helper()
	p, err := r.players.GetByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("get %s: %v", username, err)
	}
	return p.ID
}
