package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codax69/sever-main-sub001/config"
	"github.com/codax69/sever-main-sub001/db"
	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	"github.com/codax69/sever-main-sub001/internal/auth/handler"
	mongorepo "github.com/codax69/sever-main-sub001/internal/auth/repository/mongo"
	pgrepo "github.com/codax69/sever-main-sub001/internal/auth/repository/postgres"
	"github.com/codax69/sever-main-sub001/internal/auth/service"
	"github.com/codax69/sever-main-sub001/internal/identity"
	"github.com/codax69/sever-main-sub001/internal/limiter"
	"github.com/codax69/sever-main-sub001/internal/mailer"
	"github.com/codax69/sever-main-sub001/internal/middleware"
	"github.com/codax69/sever-main-sub001/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	userRepo, closeStore, err := openStore(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to open credential store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMailer(newMailer(cfg, log)),
	}

	if cfg.RedisAddr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, service.WithLoginLimiter(limiter.NewRedisLimiter(rdb)))
	} else {
		log.Warn("REDIS_ADDR not set, login throttling disabled")
	}

	if cfg.GoogleClientID != "" {
		verifier, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			log.Fatal("failed to create google verifier", zap.Error(err))
		}
		opts = append(opts, service.WithIdentityVerifier(verifier))
	}

	tokenService := service.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin,
		cfg.UserRefreshExpiryMin,
		cfg.AdminRefreshExpiryMin,
	)
	userService := service.NewUserService(userRepo, tokenService, cfg, opts...)
	authHandler := handler.NewAuthHandler(userService, cfg, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(cfg, log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSAllowedOrigins, ","),
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
	}))
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handler.RegisterRoutes(app, authHandler)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", zap.Error(err))
	}

	// Let in-flight welcome emails finish before the stores close.
	userService.Wait()
}

// openStore connects the configured credential store and returns a func that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.UserRepository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := db.RunMigrations(cfg.DBURL); err != nil {
			return nil, nil, err
		}
		pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to postgres")
		return pgrepo.NewPostgresRepository(pool), pool.Close, nil

	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongorepo.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return repo, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func newMailer(cfg *config.Config, log *zap.Logger) *mailer.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return mailer.New(mailer.NewLogSender(log, !cfg.IsProduction()))
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Fatal("failed to configure smtp", zap.Error(err))
	}
	return mailer.New(sender)
}
