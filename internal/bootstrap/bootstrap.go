// Package bootstrap owns the service lifecycle: configuration, dependency
// construction in dependency order, and graceful shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "afrochain-auth-go/internal/domain/auth"
	"afrochain-auth-go/internal/domain/auth/challenge"
	"afrochain-auth-go/internal/domain/eventbus"
	"afrochain-auth-go/internal/domain/reputation"
	"afrochain-auth-go/internal/domain/users"
	platformconfig "afrochain-auth-go/internal/platform/config"
	platformerrors "afrochain-auth-go/internal/platform/errors"
	platformlogging "afrochain-auth-go/internal/platform/logging"
	platformobservability "afrochain-auth-go/internal/platform/observability"
	platformstorage "afrochain-auth-go/internal/platform/storage"
	httptransport "afrochain-auth-go/internal/transport/http"
	"afrochain-auth-go/internal/transport/http/authapi"
)

const shutdownTimeout = 15 * time.Second

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config                *platformconfig.Config
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	userRepo              users.Repository
	challengeStore        challenge.Store
	tokenIssuer           *domainauth.TokenIssuer
	bus                   *eventbus.Bus
	reputationService     *reputation.Service
	authManager           *domainauth.Manager
}

// Run starts the whole service lifecycle and blocks until shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.authManager == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"auth manager not initialised",
		)
	}

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("observability did not shut down cleanly: %v", err)
			}
		}()
	}

	defer func() {
		if state.reputationService != nil {
			state.reputationService.Stop()
		}
		if err := state.authManager.Close(); err != nil {
			logger.Error("auth manager did not close cleanly: %v", err)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.Info("service stopped")
	return logger.Close()
}

// InitGraph declares the initialisation steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:open-database",
			Title:     "Open user database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   openDatabaseStep,
		},
		{
			ID:        "users:init-repository",
			Title:     "Initialise user repository",
			DependsOn: []string{"storage:open-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initUserRepositoryStep,
		},
		{
			ID:        "auth:init-challenge-store",
			Title:     "Initialise challenge store",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initChallengeStoreStep,
		},
		{
			ID:        "auth:init-token-issuer",
			Title:     "Initialise session token issuer",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindConfig,
			Execute:   initTokenIssuerStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Initialise event bus and reputation service",
			DependsOn: []string{"users:init-repository"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventsStep,
		},
		{
			ID:        "auth:init-manager",
			Title:     "Initialise auth manager",
			DependsOn: []string{"users:init-repository", "auth:init-challenge-store", "auth:init-token-issuer", "events:init-bus"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthManagerStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	path := os.Getenv("AFROCHAIN_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	config, err := platformconfig.NewLoader(path).Load()
	if err != nil {
		return err
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"failed to initialise logging provider",
			err,
		)
	}
	state.logger = logger
	logger.Info("logging ready [%s] environment=%s", state.config.Log.Level, state.config.Server.Environment)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled: state.config.Observability.Enabled,
	}, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"failed to setup observability hooks",
			err,
		)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func openDatabaseStep(_ context.Context, state *appState) error {
	if state.config.Storage.Driver == users.DriverMemory {
		state.logger.Warn("memory storage configured, users will not survive restarts")
		return nil
	}

	db, err := platformstorage.Open(state.config.Storage.DSN)
	if err != nil {
		return err
	}
	state.db = db
	return nil
}

func initUserRepositoryStep(_ context.Context, state *appState) error {
	repo, err := users.New(state.config.Storage.Driver, users.Dependencies{
		SQLiteDB: state.db,
	})
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindStorage,
			"users:init-repository",
			"failed to create user repository",
			err,
		)
	}
	state.userRepo = repo
	return nil
}

func initChallengeStoreStep(_ context.Context, state *appState) error {
	challengeCfg := state.config.Auth.Challenge

	cfg := challenge.Config{
		Driver: challengeCfg.Driver,
		TTL:    challengeCfg.TTL,
	}
	switch cfg.Driver {
	case challenge.DriverRedis:
		if challengeCfg.Redis.Addr == "" {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				"auth:init-challenge-store",
				"redis challenge store requires addr",
			)
		}
		cfg.Redis = &challenge.RedisConfig{
			Addr:     challengeCfg.Redis.Addr,
			Username: challengeCfg.Redis.Username,
			Password: challengeCfg.Redis.Password,
			DB:       challengeCfg.Redis.DB,
			Prefix:   challengeCfg.Redis.Prefix,
		}
	default:
		cfg.Memory = &challenge.MemoryConfig{
			GCInterval: challengeCfg.Cleanup,
		}
	}

	store, err := challenge.NewStore(cfg)
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"auth:init-challenge-store",
			"failed to create challenge store",
			err,
		)
	}
	state.challengeStore = store
	return nil
}

func initTokenIssuerStep(_ context.Context, state *appState) error {
	issuer, err := domainauth.NewTokenIssuer(state.config.Auth.JWTSecret)
	if err != nil {
		return err
	}
	if ttl := state.config.Auth.TokenTTL; ttl > 0 {
		issuer.WithTTL(ttl)
	}
	state.tokenIssuer = issuer
	return nil
}

func initEventsStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()

	svc, err := reputation.NewService(state.userRepo, state.bus, state.logger)
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"events:init-bus",
			"failed to create reputation service",
			err,
		)
	}
	if err := svc.Start(); err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"events:init-bus",
			"failed to start reputation service",
			err,
		)
	}
	state.reputationService = svc
	return nil
}

func initAuthManagerStep(_ context.Context, state *appState) error {
	manager, err := domainauth.NewManager(domainauth.Options{
		Users:           state.userRepo,
		Challenges:      state.challengeStore,
		Tokens:          state.tokenIssuer,
		Logger:          state.logger,
		Bus:             state.bus,
		ChallengeTTL:    state.config.Auth.Challenge.TTL,
		CleanupInterval: state.config.Auth.Challenge.Cleanup,
	})
	if err != nil {
		return platformerrors.Wrap(
			platformerrors.KindBootstrap,
			"auth:init-manager",
			"failed to create auth manager",
			err,
		)
	}
	state.authManager = manager
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, platformerrors.Wrap(
			platformerrors.KindTransport,
			"http:build-router",
			"failed to build http router",
			err,
		)
	}

	authService, err := authapi.NewService(state.authManager, logger)
	if err != nil {
		return nil, platformerrors.Wrap(
			platformerrors.KindTransport,
			"http:init-auth-api",
			"failed to create auth api service",
			err,
		)
	}
	if err := authService.Register(groupCtx, httpRouter.API); err != nil {
		return nil, platformerrors.Wrap(
			platformerrors.KindTransport,
			"http:register-auth-api",
			"failed to register auth api",
			err,
		)
	}

	addr := state.config.Server.IP + ":" + strconv.Itoa(config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.Info("HTTP server listening on %s", addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed: %v", err)
			} else {
				logger.Info("HTTP server stopped gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.Info("shutdown requested (%v), cleaning up", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("error during shutdown: %v", err)
			return err
		}
		logger.Info("all services stopped")
	case <-time.After(shutdownTimeout):
		logger.Error("shutdown timed out, exiting")
		return errors.New("shutdown timed out")
	}
	return nil
}
