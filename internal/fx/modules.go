package fx

import (
	"squad-tracker/internal/api"
	"squad-tracker/internal/config"
	"squad-tracker/internal/logger"
	"squad-tracker/internal/pipeline"
	"squad-tracker/internal/repository"
	"squad-tracker/internal/roster"
	"squad-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideHenrikAPI(client *api.HDevClient) service.HenrikAPI {
	return client
}

func ProvideLoader(cfg *config.Config, log zerolog.Logger) pipeline.RosterSource {
	return roster.NewLoader(cfg.RosterURL, log)
}

func ProvideArtifactStore(cfg *config.Config, log zerolog.Logger) *repository.ArtifactStore {
	return repository.NewArtifactStore(cfg.DataFile, log)
}

func ProvideHistoryStore(cfg *config.Config, log zerolog.Logger) *repository.HistoryStore {
	return repository.NewHistoryStore(cfg.HistoryDir, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	// upstream client
	fx.Provide(api.NewHDevClient),
	fx.Provide(ProvideHenrikAPI),
	// stores
	fx.Provide(ProvideArtifactStore),
	fx.Provide(ProvideHistoryStore),
	// roster feed
	fx.Provide(ProvideLoader),
	// svc
	fx.Provide(service.NewSyncService),
	fx.Provide(service.NewSynergyService),
	fx.Provide(service.NewPublishService),
	// pipeline
	fx.Provide(pipeline.New),
)
