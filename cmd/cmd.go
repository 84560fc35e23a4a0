package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagefeed/internal/api"
	"imagefeed/internal/config"
	"imagefeed/internal/handlers"
	"imagefeed/internal/repository"
	"imagefeed/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := os.Getenv("IMAGEFEED_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, closeStore, err := newTokenStore(ctx, cfg.TokenStore)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.TokenStore.Driver).Msg("Failed to open token store")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.TokenStore.Driver).Msg("Token store ready")

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:          cfg.Unsplash.APIBaseURL,
		AccessKey:        cfg.Unsplash.AccessKey,
		SecretKey:        cfg.Unsplash.SecretKey,
		RedirectURI:      cfg.Unsplash.RedirectURI,
		Timeout:          cfg.HTTP.Timeout,
		RateLimitPerHour: cfg.HTTP.RateLimitPerHour,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API client")
	}

	a := newApp(cfg, tokens, client)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	go a.runSession(ctx)

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// app is the wired session and its local HTTP surface
type app struct {
	coordinator *services.Coordinator
	oauth       *handlers.OAuthHandler
	logout      *services.LogoutService
	router      http.Handler
}

func newApp(cfg *config.Config, tokens repository.TokenStore, client *api.Client) *app {
	notifier := services.NewNotifier(64)
	authService := services.NewAuthService(client)
	profileService := services.NewProfileService(client, tokens, notifier)
	feedService := services.NewFeedService(client, tokens, notifier)
	logoutService := services.NewLogoutService(tokens, profileService, feedService)
	authHelper := services.NewAuthHelper(
		cfg.Unsplash.AuthorizeURL,
		cfg.Unsplash.AccessKey,
		cfg.Unsplash.RedirectURI,
		cfg.Unsplash.Scope,
		cfg.Auth.StateSecret,
		cfg.Auth.StateTTL,
	)

	oauthHandler := handlers.NewOAuthHandler(authHelper)
	sessionHandler := handlers.NewSessionHandler()
	coordinator := services.NewCoordinator(
		tokens,
		authService,
		profileService,
		feedService,
		authHelper,
		oauthHandler,
		sessionHandler,
		notifier,
	)
	sessionHandler.Bind(coordinator)

	return &app{
		coordinator: coordinator,
		oauth:       oauthHandler,
		logout:      logoutService,
		router: newRouter(routes{
			tokens:  tokens,
			oauth:   oauthHandler,
			session: sessionHandler,
			photo:   handlers.NewPhotoHandler(feedService),
			profile: handlers.NewProfileHandler(profileService, logoutService),
			ws:      handlers.NewWebSocketHandler(notifier),
		}),
	}
}

// runSession bootstraps the session and starts over after every logout
func (a *app) runSession(ctx context.Context) {
	for {
		err := a.coordinator.Run(ctx)
		a.oauth.LoginDone()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error().Err(err).Str("state", string(a.coordinator.State())).Msg("Session bootstrap stopped")
		}

		select {
		case <-ctx.Done():
			return
		case <-a.logout.LoggedOut():
			log.Info().Msg("Restarting session bootstrap")
		}
	}
}

// newTokenStore opens the configured token backend. The returned func releases it.
func newTokenStore(ctx context.Context, cfg config.TokenStoreConfig) (repository.TokenStore, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "memory":
		return repository.NewMemoryTokenStore(), noop, nil

	case "file":
		path := cfg.FilePath
		if path == "" {
			var err error
			if path, err = repository.DefaultTokenFilePath(); err != nil {
				return nil, noop, err
			}
		}
		return repository.NewFileTokenStore(path, cfg.Key), noop, nil

	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to ping database: %w", err)
		}
		store := repository.NewPostgresTokenStore(db, cfg.Key)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, noop, fmt.Errorf("failed to ping redis: %w", err)
		}
		return repository.NewRedisTokenStore(rdb, cfg.Key), func() { rdb.Close() }, nil

	case "s3":
		store, err := repository.NewS3TokenStore(
			ctx,
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
			cfg.Key,
		)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown token store driver %q", cfg.Driver)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
