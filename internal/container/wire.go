//go:build wireinject
// +build wireinject

package container

import (
	"context"

	"github.com/google/wire"

	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	catalogservice "github.com/narwhalmedia/ottcore/internal/catalog/service"
	profilerepo "github.com/narwhalmedia/ottcore/internal/profile/repository"
	progressrepo "github.com/narwhalmedia/ottcore/internal/progress/repository"
	progressservice "github.com/narwhalmedia/ottcore/internal/progress/service"
	"github.com/narwhalmedia/ottcore/pkg/config"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// InitializeContainer creates the service with all dependencies.
func InitializeContainer(ctx context.Context, cfg *config.OTTConfig, logger interfaces.Logger) (*Container, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideDatabase,
		ProvideEventPublisher,
		ProvideEventBus,
		ProvideAvatarStorage,
		ProvideGeoResolver,
		ProvideJWTManager,
		ProvideCursorEncoder,
		ProvideChildPolicy,

		// Repositories
		profilerepo.NewGormRepository,
		catalogrepo.NewGormRepository,
		progressrepo.NewGormRepository,

		// Services
		ProvideProfileService,
		ProvideViewerSource,
		catalogservice.NewCatalogService,
		progressservice.NewProgressService,
		ProvideShuffler,
		ProvideEngine,

		// HTTP
		ProvideHandlers,
		ProvideRouter,

		wire.Struct(new(Container), "*"),
	)

	return nil, nil, nil
}
