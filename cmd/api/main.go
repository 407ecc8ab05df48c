package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sbecom/sb-ecom/internal/api"
	"github.com/sbecom/sb-ecom/internal/api/handler"
	"github.com/sbecom/sb-ecom/internal/api/metrics"
	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
	"github.com/sbecom/sb-ecom/internal/core/service"
	mongostore "github.com/sbecom/sb-ecom/internal/infrastructure/db/mongo"
	pgstore "github.com/sbecom/sb-ecom/internal/infrastructure/db/postgres"
	redisstore "github.com/sbecom/sb-ecom/internal/infrastructure/db/redis"
	"github.com/sbecom/sb-ecom/internal/infrastructure/queue"
	"github.com/sbecom/sb-ecom/internal/pkg/config"
	"github.com/sbecom/sb-ecom/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

// store is the account store selected by STORE_DRIVER.
type store struct {
	users ports.UserRepository
	audit ports.AuditRepository
	check handler.DependencyCheck
	close func(context.Context) error
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "sb-ecom",
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	readiness := []handler.DependencyCheck{st.check}

	secret, err := service.DecodeSecret(cfg.JWT.Secret)
	if err != nil {
		return err
	}
	tokenOpts := []service.TokenOption{}
	if cfg.Auth.RevocationEnabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		tokenOpts = append(tokenOpts, service.WithRevocationList(redisstore.NewRevocationList(rdb)))
		readiness = append(readiness, handler.DependencyCheck{Name: "redis", Ping: redisstore.Ping(rdb)})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	}
	tokens, err := service.NewTokenService(secret, cfg.TokenTTL(), tokenOpts...)
	if err != nil {
		return err
	}

	// --- Audit trail ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(st.audit, logger.Component("audit")), logger.Component("audit"))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	authService := service.NewAuthService(st.users, tokens, logger.Component("auth"), service.WithAuditSink(dispatcher))
	userService := service.NewUserService(st.users, dispatcher)

	if cfg.Auth.SeedDefaultUsers {
		if err := service.SeedDefaultUsers(ctx, authService, st.users, log); err != nil {
			return err
		}
	}

	policy, err := domain.NewPolicy(domain.DefaultRules(cfg.Policy.PublicPaths...)...)
	if err != nil {
		return fmt.Errorf("access policy: %w", err)
	}
	authenticator := service.NewAuthenticator(
		tokens,
		metrics.InstrumentLoader(service.NewPrincipalLoader(st.users)),
		logger.Component("authenticator"),
	)

	trusted, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Dependencies{
		Log:           log,
		Policy:        policy,
		Authenticator: authenticator,
		AuthService:   authService,
		UserService:   userService,
		Cookie: handler.CookieConfig{
			Name:     cfg.JWT.CookieName,
			Path:     cfg.JWT.CookiePath,
			MaxAge:   cfg.CookieMaxAge(),
			HTTPOnly: cfg.JWT.CookieHTTPOnly,
			Secure:   cfg.JWT.CookieSecure,
		},
		SigninRate:     cfg.Auth.SigninRatePerSec,
		SigninBurst:    cfg.Auth.SigninBurst,
		Readiness:      readiness,
		TrustedProxies: trusted,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := pgstore.Connect(ctx, pgstore.Config{
			DSN:          cfg.PG.DSN,
			MaxOpenConns: cfg.PG.MaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		if err := pgstore.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &store{
			users: pgstore.NewUserRepository(db),
			audit: pgstore.NewAuditRepository(db),
			check: handler.DependencyCheck{Name: "postgres", Ping: pgstore.Ping(db)},
			close: func(context.Context) error { return db.Close() },
		}, nil
	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "sb-ecom",
		})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &store{
			users: mongostore.NewUserRepository(db),
			audit: mongostore.NewAuditRepository(db),
			check: handler.DependencyCheck{Name: "mongodb", Ping: mongostore.Ping(db)},
			close: client.Disconnect,
		}, nil
	}
}
