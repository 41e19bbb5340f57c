package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/config"
	"github.com/lifelink/emergency-coordinator/internal/gateway"
	"github.com/lifelink/emergency-coordinator/internal/logging"
	"github.com/lifelink/emergency-coordinator/internal/metrics"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	_ "github.com/lifelink/emergency-coordinator/docs" // swagger docs
)

// @title LifeLink Emergency Coordinator API
// @version 1.0
// @description SOS triage, hospital coordination and ambulance tracking backed by prediction models.

// @contact.name API Support
// @contact.email support@lifelink.health

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	shutdownTracer, err := initTracer()
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}

	shutdownMeter, err := initMeter(cfg.MetricsInterval)
	if err != nil {
		logger.Fatal("failed to initialize meter", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db store.Store
	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory store; data is lost on restart")
		db = store.NewMemory()
	} else {
		pg, closePool, err := store.OpenPostgres(ctx, cfg.DatabaseURL, store.OpenOptions{}, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer closePool()
		db = pg
	}

	predictionMetrics, err := metrics.NewPredictionMetrics()
	if err != nil {
		logger.Fatal("failed to initialize prediction metrics", zap.Error(err))
	}

	runner := prediction.NewRunner(prediction.Options{
		Interpreter:    cfg.PythonPath,
		ScriptDir:      cfg.ScriptDir,
		DefaultScript:  cfg.DefaultScript,
		Timeout:        cfg.PredictionTimeout,
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         logger.Named("prediction"),
		Metrics:        predictionMetrics,
	})
	predictor := prediction.Guard(runner, cfg.BreakerFailures, logger.Named("prediction"))

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("failed to initialize JWT manager", zap.Error(err))
	}

	handler := gateway.NewHandler(gateway.Options{
		Store:      db,
		Predictor:  predictor,
		JWTManager: jwtManager,
		TokenTTL:   cfg.JWTTTL,
		Logger:     logger,
	})
	router := gateway.NewRouter(handler, gateway.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins(),
		Swagger:        !cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PredictionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting emergency coordinator API",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("script_dir", cfg.ScriptDir),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logger.Warn("meter shutdown failed", zap.Error(err))
	}

	logger.Info("server exited")
}

// initTracer installs a stdout OpenTelemetry exporter
func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// initMeter installs a stdout OpenTelemetry metric exporter read every interval
func initMeter(interval time.Duration) (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
