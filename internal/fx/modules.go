package fx

import (
	"context"
	"fmt"
	"time"

	"hero-manager/internal/api"
	"hero-manager/internal/catalog"
	"hero-manager/internal/config"
	"hero-manager/internal/constants"
	"hero-manager/internal/database"
	"hero-manager/internal/logger"
	"hero-manager/internal/repository"
	"hero-manager/internal/server"
	"hero-manager/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// SeedCatalog loads the YAML catalog named by CATALOG_PATH into the
// database. Without CATALOG_PATH the database is used as is.
func SeedCatalog(cfg *config.Config, repo *repository.CatalogRepository, logger zerolog.Logger) error {
	if cfg.CatalogPath == "" {
		return nil
	}
	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := repo.Seed(ctx, c, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to seed catalog %s: %w", cfg.CatalogPath, err)
	}
	logger.Info().
		Str("path", cfg.CatalogPath).
		Int("heroes", len(c.Heroes)).
		Int("players", len(c.Players)).
		Msg("catalog seeded")
	return nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewRosterRepository),
	fx.Provide(repository.NewProgressionRepository),
	fx.Provide(repository.NewBattleLogRepository),
	fx.Provide(repository.NewCatalogRepository),
	// webhook
	fx.Provide(api.NewWebhookNotifier),
	// svc
	fx.Provide(service.NewArenaService),
	// server
	fx.Provide(server.NewArenaServer),
	fx.Invoke(SeedCatalog),
)
