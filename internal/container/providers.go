package container

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/ottcore/internal/access"
	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	cataloghandler "github.com/narwhalmedia/ottcore/internal/catalog/handler"
	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	catalogservice "github.com/narwhalmedia/ottcore/internal/catalog/service"
	"github.com/narwhalmedia/ottcore/internal/infrastructure/events/kafka"
	"github.com/narwhalmedia/ottcore/internal/infrastructure/events/nats"
	"github.com/narwhalmedia/ottcore/internal/infrastructure/geoip"
	"github.com/narwhalmedia/ottcore/internal/infrastructure/storage"
	profilehandler "github.com/narwhalmedia/ottcore/internal/profile/handler"
	profilerepo "github.com/narwhalmedia/ottcore/internal/profile/repository"
	profileservice "github.com/narwhalmedia/ottcore/internal/profile/service"
	progresshandler "github.com/narwhalmedia/ottcore/internal/progress/handler"
	progressservice "github.com/narwhalmedia/ottcore/internal/progress/service"
	recohandler "github.com/narwhalmedia/ottcore/internal/recommendation/handler"
	recoservice "github.com/narwhalmedia/ottcore/internal/recommendation/service"
	"github.com/narwhalmedia/ottcore/internal/server"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/config"
	"github.com/narwhalmedia/ottcore/pkg/database"
	"github.com/narwhalmedia/ottcore/pkg/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/pagination"
	"github.com/narwhalmedia/ottcore/pkg/utils"
)

// Event backends.
const (
	BackendLocal = "local"
	BackendNATS  = "nats"
	BackendKafka = "kafka"
)

// ProvideDatabase connects to PostgreSQL.
func ProvideDatabase(cfg *config.OTTConfig, log interfaces.Logger) (*gorm.DB, func(), error) {
	return database.NewGormDB(cfg.Database.ToDatabaseConfig(), log)
}

// ProvideEventPublisher connects the configured broker. The local backend has
// no publisher and returns nil.
func ProvideEventPublisher(ctx context.Context, cfg *config.OTTConfig, log interfaces.Logger) (interfaces.EventPublisher, func(), error) {
	switch cfg.Events.Backend {
	case BackendNATS:
		client, cleanup, err := nats.NewClient(ctx, nats.Config{
			URL:        cfg.Events.NATSURL,
			ClientName: cfg.Service.Name,
			Subject:    cfg.Events.Topic,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return nats.NewPublisher(client.JetStream(), cfg.Events.Topic, log), cleanup, nil
	case BackendKafka:
		pub, err := kafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.Topic, log)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := pub.Close(); err != nil {
				log.Error("Failed to close Kafka publisher", interfaces.Error(err))
			}
		}
		return pub, cleanup, nil
	default:
		return nil, func() {}, nil
	}
}

// ProvideEventBus builds the in-process bus, forwarding to publisher when set.
func ProvideEventBus(publisher interfaces.EventPublisher, log interfaces.Logger) interfaces.EventBus {
	if publisher == nil {
		return events.NewLocalEventBus(log)
	}
	return events.NewForwardingEventBus(publisher, log)
}

// ProvideAvatarStorage returns the S3 presigner, or nil when no bucket is configured.
func ProvideAvatarStorage(ctx context.Context, cfg *config.OTTConfig, log interfaces.Logger) (profileservice.AvatarStorage, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}
	s3, err := storage.NewS3Storage(ctx, storage.Config{
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		Endpoint:   cfg.Storage.Endpoint,
		PresignTTL: cfg.Storage.PresignTTL,
	}, log)
	if err != nil {
		return nil, err
	}
	return s3, nil
}

// ProvideChildPolicy converts the configured tier table.
func ProvideChildPolicy(cfg *config.OTTConfig) (*catalog.ChildPolicy, error) {
	tiers := make([]catalog.ChildSafetyTier, 0, len(cfg.ChildSafety.Tiers))
	for _, t := range cfg.ChildSafety.Tiers {
		tiers = append(tiers, catalog.ChildSafetyTier{
			MaxMaturityLevel: t.MaxMaturityLevel,
			MaxAgeRating:     catalog.AgeRating(t.MaxAgeRating),
			AllowedGenres:    t.AllowedGenres,
			ExcludedGenres:   t.ExcludedGenres,
		})
	}
	policy, err := catalog.NewChildPolicy(tiers)
	if err != nil {
		return nil, fmt.Errorf("invalid child safety tiers: %w", err)
	}
	return policy, nil
}

// ProvideGeoResolver builds the cached country resolver.
func ProvideGeoResolver(cfg *config.OTTConfig, log interfaces.Logger) (*geoip.Resolver, func()) {
	cache := utils.NewInMemoryCache()
	resolver := geoip.NewResolver(geoip.Config{
		LookupURL:      cfg.Geo.LookupURL,
		DefaultCountry: cfg.Geo.DefaultCountry,
		Timeout:        cfg.Geo.Timeout,
		CacheTTL:       cfg.Geo.CacheTTL,
	}, cache, log)
	return resolver, cache.Close
}

// ProvideJWTManager builds the token verifier.
func ProvideJWTManager(cfg *config.OTTConfig) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenDuration)
}

// ProvideCursorEncoder builds the page token encoder. Without a configured
// key tokens are only valid for the life of the process.
func ProvideCursorEncoder(cfg *config.OTTConfig) (*pagination.CursorEncoder, error) {
	var (
		enc *pagination.CursorEncoder
		err error
	)
	if key := cfg.Pagination.CursorEncryptionKey; key != "" {
		enc, err = pagination.NewCursorEncoder([]byte(key))
	} else {
		enc, err = pagination.NewRandomCursorEncoder()
	}
	if err != nil {
		return nil, err
	}
	return enc.WithMaxAge(cfg.Pagination.CursorExpiration), nil
}

// ProvideProfileService builds the profile service.
func ProvideProfileService(
	repo profilerepo.Repository,
	bus interfaces.EventBus,
	avatars profileservice.AvatarStorage,
	cfg *config.OTTConfig,
	log interfaces.Logger,
) *profileservice.ProfileService {
	return profileservice.NewProfileService(repo, bus, avatars, log).WithMaxProfiles(cfg.Catalog.MaxProfiles)
}

// ProvideViewerSource builds the HTTP viewer resolver.
func ProvideViewerSource(
	profiles *profileservice.ProfileService,
	countries *geoip.Resolver,
	policy *catalog.ChildPolicy,
	cfg *config.OTTConfig,
	log interfaces.Logger,
) access.ViewerSource {
	resolver := access.NewResolver(profiles, countries, policy, cfg.Geo.DefaultCountry, log)
	return access.NewHTTPResolver(resolver, cfg.Geo.TrustHeaders)
}

// ProvideShuffler seeds the personalized shuffle from the clock.
func ProvideShuffler() recoservice.Shuffler {
	return recoservice.NewTimeSeededShuffler()
}

// ProvideEngine builds the recommendation engine.
func ProvideEngine(contents catalogrepo.ContentRepository, shuffler recoservice.Shuffler, cfg *config.OTTConfig, log interfaces.Logger) *recoservice.Engine {
	return recoservice.NewEngine(contents, shuffler, log).WithTrendingWindow(cfg.Catalog.TrendingWindow)
}

// ProvideHandlers builds every HTTP handler.
func ProvideHandlers(
	profiles *profileservice.ProfileService,
	catalogSvc *catalogservice.CatalogService,
	engine *recoservice.Engine,
	progress *progressservice.ProgressService,
	viewers access.ViewerSource,
	log interfaces.Logger,
) server.Handlers {
	return server.Handlers{
		Profiles:        profilehandler.NewHandler(profiles, log),
		Catalog:         cataloghandler.NewHandler(catalogSvc, viewers, log),
		Recommendations: recohandler.NewHandler(engine, viewers, log),
		Progress:        progresshandler.NewHandler(progress, viewers, log),
	}
}

// ProvideRouter builds the HTTP handler tree.
func ProvideRouter(h server.Handlers, jwt *auth.JWTManager, db *gorm.DB, cfg *config.OTTConfig, log interfaces.Logger) *Router {
	ready := func() error { return database.Ping(db) }
	return &Router{Handler: server.NewRouter(h, jwt, ready, server.Options{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, log)}
}
