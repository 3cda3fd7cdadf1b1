package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/finbridge/backoffice/internal/config"
	"github.com/finbridge/backoffice/internal/database"
	"github.com/finbridge/backoffice/internal/directory"
	"github.com/finbridge/backoffice/internal/handler"
	"github.com/finbridge/backoffice/internal/logger"
	"github.com/finbridge/backoffice/internal/queue"
	"github.com/finbridge/backoffice/internal/repository"
	"github.com/finbridge/backoffice/internal/router"
	"github.com/finbridge/backoffice/internal/service"
	"github.com/finbridge/backoffice/internal/utils"
)

func main() {
	// .env is a development convenience; in deployed environments the
	// variables come from the runtime.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and caching disabled")
	}

	dir, err := directory.New(ctx, cfg.CognitoUserPoolID)
	if err != nil {
		log.Fatal().Err(err).Msg("user directory client failed")
	}

	audit := queue.NewPublisher(cfg.AMQPURL)
	go queue.StartAuditConsumer(cfg.AMQPURL, log)

	agentRepo := repository.NewAgentRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := seedRootAdmin(ctx, cfg, userRepo); err != nil {
		log.Fatal().Err(err).Msg("root admin bootstrap failed")
	}

	agentSvc := service.NewAgentService(agentRepo, audit, log)
	txSvc := service.NewTransactionService(txRepo, audit, log)
	userSvc := service.NewUserService(userRepo, dir, audit, cfg.RootAdminEmail, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAgentHandler(agentSvc),
		handler.NewTransactionHandler(txSvc),
		handler.NewUserHandler(userSvc),
		rdb,
		cfg.JWTSecret,
	)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// seedRootAdmin guarantees the distinguished root identity has a local
// mirror row. The bcrypt hash is stored so the row carries a credential
// even before the directory account exists; a missing password skips the
// seed, which is fine for environments bootstrapped by migration.
func seedRootAdmin(ctx context.Context, cfg *config.Config, users *repository.UserRepo) error {
	if cfg.RootAdminPassword == "" {
		return nil
	}
	hash, err := utils.HashPassword(cfg.RootAdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	return users.EnsureRootAdmin(ctx, uuid.NewString(), cfg.RootAdminEmail, hash)
}
