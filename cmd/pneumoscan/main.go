package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/analytics"
	"github.com/pneumoscan/pneumoscan/internal/cache"
	"github.com/pneumoscan/pneumoscan/internal/config"
	"github.com/pneumoscan/pneumoscan/internal/handler/middleware"
	v1 "github.com/pneumoscan/pneumoscan/internal/handler/v1"
	"github.com/pneumoscan/pneumoscan/internal/predict"
	"github.com/pneumoscan/pneumoscan/internal/repository"
	"github.com/pneumoscan/pneumoscan/internal/service"
	"github.com/pneumoscan/pneumoscan/pkg/auth"
	"github.com/pneumoscan/pneumoscan/pkg/database"
	"github.com/pneumoscan/pneumoscan/pkg/logger"
	"github.com/pneumoscan/pneumoscan/pkg/metrics"
	"github.com/pneumoscan/pneumoscan/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("pneumoscan")

	var historyCache *cache.HistoryCache
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		historyCache = cache.NewHistoryCache(cache.NewRedisKV(rdb), cfg.Redis.HistoryTTL, log)
		log.Info("history cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	loc, err := cfg.Charts.Location()
	if err != nil {
		return err
	}

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), collector, log)
	defer auditSvc.Shutdown()

	recordSvc := service.NewRecordService(
		repository.NewTenantStore(db),
		repository.NewRecordRepository(db),
		historyCache,
		auditSvc,
		collector,
		log,
	)

	predictor := predict.NewClient(cfg.Prediction, log)
	historySvc := service.NewHistoryService(recordSvc, analytics.NewEngine(loc), predictor, collector, log)

	verifier := auth.NewTokenVerifier(cfg.JWT)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(collector),
		middleware.CORS(cfg.CORS),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := engine.Group("/api/v1", middleware.Authenticate(verifier, cfg.JWT.Enabled))
	v1.RegisterRoutes(
		api,
		v1.NewRecordHandler(recordSvc),
		v1.NewHistoryHandler(historySvc),
		v1.NewPredictHandler(historySvc),
		middleware.OwnerGuard(cfg.JWT.Enabled),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
