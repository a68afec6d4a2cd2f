package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"hero-manager/internal/battle"
	"hero-manager/internal/catalog"
	"hero-manager/internal/logger"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type summary struct {
	Runs           int                `json:"runs"`
	Seed           int64              `json:"seed"`
	Challenger     string             `json:"challenger"`
	Defender       string             `json:"defender"`
	ChallengerWins int                `json:"challengerWins"`
	WinRate        float64            `json:"winRate"`
	AvgRounds      float64            `json:"avgRounds"`
	AvgXP          map[string]float64 `json:"avgXp"`
}

func main() {
	log := logger.New()
	if err := run(context.Background(), os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	var (
		catalogPath = fs.String("catalog", "catalog.yaml", "catalog file")
		challenger  = fs.String("challenger", "", "username of the challenging fixture player")
		defender    = fs.String("defender", "", "username of the defending fixture player")
		seed        = fs.Int64("seed", 0, "base seed, 0 draws one")
		runs        = fs.Int("runs", 1, "number of battles")
		workers     = fs.Int("workers", 8, "concurrent battles in batch mode")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *challenger == "" || *defender == "" {
		return errors.New("-challenger and -defender are required")
	}
	if *runs < 1 || *workers < 1 {
		return errors.New("-runs and -workers must be positive")
	}

	c, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}
	ct, err := fixtureTeam(c, *challenger)
	if err != nil {
		return err
	}
	dt, err := fixtureTeam(c, *defender)
	if err != nil {
		return err
	}

	if *seed == 0 {
		if *seed, err = battle.NewSeed(); err != nil {
			return err
		}
	}
	log.Info().
		Str("challenger", ct.Name).
		Str("defender", dt.Name).
		Int64("seed", *seed).
		Int("runs", *runs).
		Msg("simulating")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if *runs == 1 {
		outcome, err := battle.Simulate(ct, dt, battle.WithSeed(*seed), battle.WithLogger(log))
		if err != nil {
			return err
		}
		return enc.Encode(outcome)
	}

	outcomes := make([]*battle.BattleOutcome, *runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for i := range outcomes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := battle.Simulate(ct, dt, battle.WithSeed(*seed+int64(i)))
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return enc.Encode(summarize(outcomes, *seed))
}

func fixtureTeam(c *catalog.Catalog, username string) (*battle.Team, error) {
	fixture, ok := c.Player(username)
	if !ok {
		return nil, fmt.Errorf("no player %q in catalog", username)
	}
	roster, err := c.Roster(fixture)
	if err != nil {
		return nil, err
	}
	return battle.LoadFighters(roster)
}

func summarize(outcomes []*battle.BattleOutcome, seed int64) summary {
	s := summary{
		Runs:       len(outcomes),
		Seed:       seed,
		Challenger: outcomes[0].Challenger.Name,
		Defender:   outcomes[0].Defender.Name,
		AvgXP:      map[string]float64{},
	}

	xp := map[string]int{}
	rounds := 0
	for _, o := range outcomes {
		if o.Winner == battle.SideChallenger {
			s.ChallengerWins++
		}
		rounds += len(o.Rounds)
		for _, side := range []battle.SideResult{o.Challenger, o.Defender} {
			for name, v := range side.XP {
				xp[side.Name+"/"+name] += v
			}
		}
	}

	n := float64(len(outcomes))
	s.WinRate = float64(s.ChallengerWins) / n
	s.AvgRounds = float64(rounds) / n
	for k, v := range xp {
		s.AvgXP[k] = float64(v) / n
	}
	return s
}
