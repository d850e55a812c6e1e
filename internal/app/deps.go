package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/linkup/backend/internal/auth"
	"github.com/linkup/backend/internal/avatars"
	"github.com/linkup/backend/internal/config"
	"github.com/linkup/backend/internal/db"
	"github.com/linkup/backend/internal/friends"
	"github.com/linkup/backend/internal/handlers"
	"github.com/linkup/backend/internal/middleware"
	"github.com/linkup/backend/internal/repositories"
	"github.com/linkup/backend/internal/storage"
)

// sessionService combines the session manager with a short-lived cache for
// access-token resolution, which runs once per authenticated request.
type sessionService struct {
	*auth.Manager
	cache *auth.CachingAuthenticator
}

func (s sessionService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	return s.cache.Authenticate(ctx, accessToken)
}

// poolPinger exposes database reachability for the health endpoint.
type poolPinger struct {
	pool db.Pool
}

func (p poolPinger) Ping(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background workers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	userRepo := repositories.NewPostgresUserRepository(pool)
	friendRepo := repositories.NewPostgresFriendRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	manager := auth.NewManager(cfg.AccessTTL, cfg.RefreshTTL, sessionStore)
	sessions := sessionService{
		Manager: manager,
		cache:   auth.NewCachingAuthenticator(manager, cfg.AuthCacheTTL),
	}

	engine := friends.NewEngine(friendRepo, userRepo)

	limiter := middleware.NewIPRateLimiter(
		cfg.AuthRateLimit.Requests,
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.Burst,
		cfg.AuthRateLimit.TTL,
	)

	deps := handlers.Dependencies{
		Users:       userRepo,
		Sessions:    sessions,
		Friends:     engine,
		Google:      auth.NewGoogleVerifier(cfg.GoogleClientID),
		AuthLimiter: limiter,
		Health:      poolPinger{pool: pool},
	}

	cleanup := func(context.Context) error { return nil }

	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		objectStore, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}

		fetcher := avatars.NewHTTPFetcher(cfg.AvatarTimeout, cfg.AvatarMaxBytes)
		ingestor := avatars.NewIngestor(fetcher, objectStore, userRepo, avatars.IngestorConfig{}, slog.Default())

		deps.Avatars = ingestor
		cleanup = ingestor.Shutdown
	}

	return deps, cleanup, nil
}
