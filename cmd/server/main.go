package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/ShubhamMishra2526/Travease-App/internal/gateway"
	"github.com/ShubhamMishra2526/Travease-App/internal/handler"
	"github.com/ShubhamMishra2526/Travease-App/internal/mailer"
	"github.com/ShubhamMishra2526/Travease-App/internal/metrics"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/migrations"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/internal/router"
	"github.com/ShubhamMishra2526/Travease-App/internal/service"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
	"github.com/ShubhamMishra2526/Travease-App/internal/view"
	"github.com/ShubhamMishra2526/Travease-App/pkg/config"
	"github.com/ShubhamMishra2526/Travease-App/pkg/database"
	"github.com/ShubhamMishra2526/Travease-App/pkg/logger"
	pkgredis "github.com/ShubhamMishra2526/Travease-App/pkg/redis"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

const serviceName = "travease"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	logCfg := &logger.Config{
		Level:       logLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Travease...")

	ctx := context.Background()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer func() { _ = telemetry.Shutdown(ctx) }()

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()

	if err := runMigrations(ctx, db); err != nil {
		appLog.Fatal(fmt.Sprintf("Migrations failed: %v", err))
	}
	appLog.Info("Database ready")

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisCfg := pkgredis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisClient, err = pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
		}
		defer redisClient.Close()
		appLog.Info("Redis connected")
	}

	// Repositories
	userRepo := repository.NewPostgresUserRepository(db.Pool())
	tourRepo := repository.NewPostgresTourRepository(db.Pool())
	reviewRepo := repository.NewPostgresReviewRepository(db.Pool())
	bookingRepo := repository.NewPostgresBookingRepository(db.Pool())

	tokenSvc := token.NewService(&token.Config{
		Secret:   cfg.JWT.Secret,
		TokenTTL: cfg.JWT.TokenTTL,
		Issuer:   cfg.JWT.Issuer,
	})

	var mail mailer.Mailer
	if cfg.IsProduction() {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Addr:     cfg.SMTP.Addr(),
			Host:     cfg.SMTP.Host,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		mail = mailer.NewLogMailer()
	}

	var payments gateway.PaymentGateway
	if cfg.Stripe.UseMock {
		payments = gateway.NewMockGateway()
	} else {
		payments, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Payment gateway init failed: %v", err))
		}
	}

	appMetrics, err := metrics.New()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Services
	authSvc := service.NewAuthService(userRepo, tokenSvc, mail, appMetrics, cfg.App.BaseURL)
	bookingSvc := service.NewBookingService(bookingRepo, tourRepo, userRepo, payments, appMetrics)

	renderer, err := view.NewRenderer()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Template parsing failed: %v", err))
	}

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.MaxRequests = cfg.RateLimit.MaxRequests
	rateLimit.Window = cfg.RateLimit.Window
	rateLimit.UseRedis = cfg.RateLimit.UseRedis && redisClient != nil
	rateLimit.RedisClient = redisClient

	engine := router.New(router.Deps{
		Development: cfg.IsDevelopment(),
		ServiceName: serviceName,
		Tokens:      tokenSvc,
		Users:       userRepo,
		Auth:        handler.NewAuthHandler(authSvc, cfg.JWT.CookieTTL, cfg.IsProduction()),
		Tours:       handler.NewTourHandler(tourRepo),
		Reviews:     handler.NewReviewHandler(reviewRepo),
		Accounts:    handler.NewUserHandler(userRepo),
		Bookings:    handler.NewBookingHandler(bookingSvc, bookingRepo, cfg.App.BaseURL),
		Views:       handler.NewViewHandler(renderer, tourRepo, bookingRepo),
		Renderer:    renderer,
		RateLimit:   rateLimit,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Travease listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Server failed: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLog.Info("Server stopped")
}

// runMigrations applies the embedded schema migrations with goose.
func runMigrations(ctx context.Context, db *database.PostgresDB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db.StdDB(), ".")
}
