package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
	"github.com/iliyamo/checkpoint-revenue/internal/database"
	"github.com/iliyamo/checkpoint-revenue/internal/handler"
	"github.com/iliyamo/checkpoint-revenue/internal/mailer"
	"github.com/iliyamo/checkpoint-revenue/internal/queue"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
	"github.com/iliyamo/checkpoint-revenue/internal/router"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
	"github.com/iliyamo/checkpoint-revenue/internal/storage"
	"github.com/iliyamo/checkpoint-revenue/pkg/logger"
)

// redisPinger adapts the Redis client to the readiness probe.
type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func main() {
	_ = godotenv.Load() // .env is optional

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		File:   cfg.LogFile,
	})

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql: connect failed")
	}
	defer db.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db, log); err != nil {
			log.Fatal().Err(err).Msg("mysql: migrate failed")
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	ready := map[string]handler.Pinger{"mysql": db}
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable; rate limiting, caching and logout denylist disabled")
	} else {
		defer rdb.Close()
		ready["redis"] = redisPinger{rdb}
	}

	// Repositories
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	cargo := repository.NewCargoRepo(db)
	tokens := repository.NewTokenRepo(db)
	logs := repository.NewVehicleLogRepo(db)
	shifts := repository.NewShiftRepo(db)

	// Services
	deny := service.NewRedisDenylist(rdb)
	authSvc := service.NewAuthService(users, sessions, deny, service.AuthSettings{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  time.Duration(cfg.Auth.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.Auth.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log)
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminPhone, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	var archive service.Archiver
	ra, err := storage.NewReportArchive(ctx, cfg.Archive)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("report archive disabled")
	case ra != nil:
		archive = ra
	}

	publisher := service.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.ReportQueue, log)
	reportSvc := service.NewReportService(logs, users, publisher, archive, service.ReportSettings{
		Currency: cfg.Report.Currency,
		LogoPath: cfg.Report.LogoPath,
	}, log)

	h := router.Handlers{
		Auth:  handler.NewAuthHandler(authSvc),
		Cargo: handler.NewCargoHandler(service.NewCargoService(cargo, log)),
		Token: handler.NewTokenHandler(service.NewTokenService(tokens, cargo, shifts, log)),
		Checkpoint: handler.NewCheckpointHandler(
			service.NewCheckpointService(logs, users, shifts, log),
			service.NewShiftService(shifts, users, log),
		),
		Report: handler.NewReportHandler(reportSvc),
	}
	e := router.New(h, router.Deps{
		JWTSecret: cfg.Auth.JWTSecret,
		Denylist:  deny,
		Redis:     rdb,
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
		Ready:     ready,
		Log:       log,
	})

	if cfg.AMQP.ConsumerEnabled {
		go func() {
			if err := queue.StartReportEmailConsumer(ctx, cfg.AMQP.URL, cfg.AMQP.ReportQueue, mailer.NewSMTPSender(cfg.SMTP), log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("report email consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
