// Command sessiond serves the goSession engine over JSON HTTP.
//
// Endpoints:
//
//	POST /auth/signup         {"email","username","password"} -> 202 {"verification_id"}
//	POST /auth/signin         {"email","password"}            -> 202 {"verification_id"}
//	POST /auth/otp/confirm    {"verification_id","otp"}       -> 200 tokens + cookies
//	POST /auth/otp/resend     {"verification_id"}             -> 204
//	POST /auth/refresh        refresh_token cookie or body    -> 200 tokens + cookies
//	POST /auth/signout[?all=true]                             -> 204, cookies cleared
//	GET  /auth/me             access token (bearer or cookie) -> 200 claims
//	GET  /metrics             Prometheus text format
//
// Configuration comes from SESSIOND_* environment variables, optionally seeded
// from a .env file. With SESSIOND_DEV=true the daemon runs on miniredis and
// in-memory stores and logs OTP codes instead of mailing them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/internal/memstore"
	"github.com/MrEthical07/goSession/internal/migrations"
	"github.com/MrEthical07/goSession/mailer"
	"github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sessiond:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := goSession.New().
		WithConfig(cfg.engineConfig()).
		WithLogger(logger)

	// ---------- infrastructure ----------
	if cfg.Dev {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		builder.
			WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
			WithCredentialStore(memstore.NewCredentials()).
			WithRefreshTokenStore(memstore.NewRefreshTokens())
		logger.Warn("dev mode: state is kept in memory")
	} else {
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		builder.WithDB(db).WithRedis(rdb)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	builder.WithMailer(sender)

	// ---------- engine ----------
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newServer(engine, logger, cfg.SecureCookies),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func newSender(cfg config, logger *slog.Logger) (mailer.Sender, error) {
	if cfg.MailerURL == "" {
		if !cfg.Dev {
			return nil, errors.New("SESSIOND_MAILER_URL required outside dev mode")
		}
		return mailer.NewLogSender(logger), nil
	}
	return mailer.NewHTTPSender(mailer.HTTPConfig{
		URL:     cfg.MailerURL,
		APIKey:  cfg.MailerAPIKey,
		Subject: cfg.MailerSubject,
	}, nil)
}
