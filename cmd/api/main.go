package main

import (
	"context"
	"os"
	"time"

	"github.com/nimasrn/smart-wakala/internal/config"
	gateway "github.com/nimasrn/smart-wakala/internal/gateways"
	"github.com/nimasrn/smart-wakala/internal/handlers"
	"github.com/nimasrn/smart-wakala/internal/idempotency"
	"github.com/nimasrn/smart-wakala/internal/repository"
	"github.com/nimasrn/smart-wakala/internal/services"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/pg"
	"github.com/nimasrn/smart-wakala/pkg/prom"
	"github.com/nimasrn/smart-wakala/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(config.EnvPathFromArgs(os.Args[1:], ""))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting smart wakala api", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	if cfg.AppDebugMetricsAddr != "" {
		host, _ := os.Hostname()
		if err = prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed connecting to database", "error", err, "driver", cfg.DBDriver)
		return
	}
	defer db.Close()

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: "default",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	defer redis.Close("default")

	// repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// services
	var issuer services.ReferenceIssuer
	if cfg.ProviderGatewayURL != "" {
		gwConf := gateway.DefaultConfig(cfg.ProviderGatewayURL)
		gwConf.Timeout = cfg.ProviderGatewayTimeout
		gwConf.MaxRetries = cfg.ProviderGatewayRetries
		client, err := gateway.NewClient(gwConf)
		if err != nil {
			logger.Error("failed creating provider gateway", "error", err)
			return
		}
		issuer = client
	}

	userService := services.NewUserService(userRepo)
	sessionService := services.NewSessionService(redisAdap, cfg.SessionTTL)
	customerService := services.NewCustomerService(customerRepo, transactionRepo)
	transactionService := services.NewTransactionService(transactionRepo, issuer)
	healthService := services.NewHealthService(map[string]services.Pinger{
		"database": db,
		"redis":    redisAdap,
	})

	idemConf := idempotency.DefaultConfig()
	idemConf.ResponseTTL = cfg.IdempotencyTTL
	idemStore := idempotency.NewStore(redisAdap, idemConf)

	// transport
	s := xhttp.CreateServer()
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.TimeoutMiddleware(10 * time.Second))
	s.Use(handlers.SessionMiddleware(sessionService))

	handlers.RegisterPageRoutes(s.Router, handlers.NewPageHandler(userService, sessionService, transactionService))

	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))
	handlers.RegisterUserRoutes(g, handlers.NewUserHandler(userService, transactionService))
	handlers.RegisterCustomerRoutes(g, handlers.NewCustomerHandler(customerService))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(transactionService, idemStore))

	s.CloseOnSignal()
	if err = s.ListenAndServe(cfg.HttpListenAddr); err != nil {
		logger.Error("error in running http-server", "error", err)
	}
}

func openDatabase(cfg *config.Config) (*pg.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.DBDriver == config.DBDriverSQLite {
		db, err := pg.CreateSQLite(cfg.SQLitePath, cfg.IsDev())
		if err != nil {
			return nil, err
		}
		if err = repository.AutoMigrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := pg.CreateReadWrite(cfg.PostgresReadConfig(), cfg.PostgresWriteConfig(), cfg.IsDev())
	if err != nil {
		return nil, err
	}
	if err = db.WaitReady(ctx, 30*time.Second); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
