package fx

import (
	"steam-gamenight/internal/api"
	"steam-gamenight/internal/config"
	"steam-gamenight/internal/database"
	"steam-gamenight/internal/logger"
	"steam-gamenight/internal/repository"
	"steam-gamenight/internal/server"
	"steam-gamenight/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewAppDetailsRepository),
	fx.Provide(func(r *repository.AppDetailsRepository) service.AppDetailsCache { return r }),
	// api client
	fx.Provide(api.NewSteamClient),
	fx.Provide(func(c *api.SteamClient) service.SteamAPI { return c }),
	// svc
	fx.Provide(service.NewLibraryService),
	fx.Provide(service.NewEnrichService),
	fx.Provide(service.NewSharedGamesService),
	fx.Provide(service.NewProfileService),
	// server
	fx.Provide(server.New),
)
