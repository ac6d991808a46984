package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/sesamo/internal/cache"
	memcache "github.com/dropDatabas3/sesamo/internal/cache/memory"
	redcache "github.com/dropDatabas3/sesamo/internal/cache/redis"
	"github.com/dropDatabas3/sesamo/internal/config"
	socialctl "github.com/dropDatabas3/sesamo/internal/http/controllers/social"
	"github.com/dropDatabas3/sesamo/internal/http/router"
	socialsvc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	jwtx "github.com/dropDatabas3/sesamo/internal/jwt"
	"github.com/dropDatabas3/sesamo/internal/login"
	"github.com/dropDatabas3/sesamo/internal/metrics"
	"github.com/dropDatabas3/sesamo/internal/oauth/registry"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
	"github.com/dropDatabas3/sesamo/internal/security/secretbox"
	"github.com/dropDatabas3/sesamo/internal/store/pg"
	"github.com/dropDatabas3/sesamo/internal/users"
	migrations "github.com/dropDatabas3/sesamo/migrations/postgres"
)

// version se setea en build con -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env es opcional; en prod la config viene del entorno real.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "sesamo",
		Short: "Gateway de identidad para login social (Google, GitHub, Kakao)",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "ruta a config.yaml (env CONFIG_PATH)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes y termina",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cfgPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, migrateCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "sesamo",
		Version:     version,
	})
	log := logger.L()
	defer func() { _ = log.Sync() }()

	// Sin clave de sellado no hay logins que persistan: fallar acá, no en
	// el primer callback.
	if err := secretbox.Load(); err != nil {
		return fmt.Errorf("secretbox: %w", err)
	}

	// Store PostgreSQL
	store, err := pg.New(ctx, pg.Options{DSN: cfg.Storage.DSN, MaxConns: cfg.Storage.MaxConns})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if applied, err := store.Migrate(ctx, migrationsFS()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	} else if len(applied) > 0 {
		log.Info("migrations applied", zap.Ints("versions", applied))
	}

	// Cache para login codes (memory en dev, redis compartido en prod)
	codeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// Registry de providers: sólo los habilitados y con credenciales
	opts, err := cfg.ProviderOptionsFor()
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	reg, err := registry.Build(cfg.Social.RedirectBaseURL, opts)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	log.Info("social providers configured", zap.Strings("providers", reg.Names()))

	// Issuer de tokens propios y state JWTs
	issuer, err := jwtx.New(jwtx.Options{
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: config.MustDur(cfg.JWT.AccessTTL),
		StateTTL:  config.MustDur(cfg.Social.StateTTL),
		SeedB64:   cfg.JWT.Ed25519SeedB64,
	})
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	usersClient := users.NewHTTPClient(cfg.UsersAPI.BaseURL, config.MustDur(cfg.UsersAPI.Timeout))

	orchestrator := login.New(login.Deps{
		Providers:  store.Providers(),
		Clients:    store.AuthClients(),
		Tokens:     store.AuthTokens(),
		Users:      usersClient,
		Issuer:     issuer,
		RefreshTTL: config.MustDur(cfg.JWT.RefreshTTL),
	})

	metrics.Register(prometheus.DefaultRegisterer)

	services := socialsvc.Services{
		Providers: socialsvc.NewProvidersService(socialsvc.ProvidersDeps{
			Registry: reg,
			Repo:     store.Providers(),
		}),
		Start: socialsvc.NewStartService(socialsvc.StartDeps{
			Registry: reg,
			Signer:   issuer,
		}),
		Callback: socialsvc.NewCallbackService(socialsvc.CallbackDeps{
			Registry:     reg,
			Signer:       issuer,
			Orchestrator: orchestrator,
			Cache:        codeCache,
			LoginCodeTTL: config.MustDur(cfg.Social.LoginCodeTTL),
		}),
		Exchange: socialsvc.NewExchangeService(socialsvc.ExchangeDeps{
			Cache: codeCache,
		}),
		Login: socialsvc.NewLoginService(socialsvc.LoginDeps{
			Registry:     reg,
			Orchestrator: orchestrator,
		}),
		Session: socialsvc.NewSessionService(socialsvc.SessionDeps{
			Orchestrator: orchestrator,
		}),
		StateSigner: issuer,
	}

	handler := router.New(router.Deps{
		Social: socialctl.NewControllers(services),
		Store:  store,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.MustDur(cfg.Server.ReadTimeout),
		WriteTimeout: config.MustDur(cfg.Server.WriteTimeout),
	}

	log.Info("sesamo up",
		zap.String("addr", cfg.Server.Addr),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.MustDur(cfg.Server.ShutdownTimeout))
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func runMigrate(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	store, err := pg.New(ctx, pg.Options{DSN: cfg.Storage.DSN, MaxConns: 2})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = store.Close() }()

	applied, err := store.Migrate(ctx, migrationsFS())
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("up to date")
		return nil
	}
	fmt.Printf("applied: %v\n", applied)
	return nil
}

func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	ttl := config.MustDur(cfg.Cache.Memory.DefaultTTL)
	switch cfg.Cache.Kind {
	case "redis":
		return redcache.New(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, ttl)
	case "memory", "":
		return memcache.New(ttl, 2*ttl), nil
	default:
		return nil, fmt.Errorf("cache kind desconocido: %q", cfg.Cache.Kind)
	}
}

func migrationsFS() fs.FS {
	return migrations.FS
}
