package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/xela07ax/quantumpay/internal/api/handler"
	"github.com/xela07ax/quantumpay/internal/api/server"
	"github.com/xela07ax/quantumpay/internal/engine"
	"github.com/xela07ax/quantumpay/internal/eventlog"
	"github.com/xela07ax/quantumpay/internal/infra"
	"github.com/xela07ax/quantumpay/internal/registry"
	"github.com/xela07ax/quantumpay/internal/repository/postgres"
)

func main() {
	configDir := flag.String("config", "", "directory with config.yaml (default: . and ./configs)")
	flag.Parse()

	// 1. Конфиг и логгер
	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := infra.LoadConfig(paths...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := engine.NewMetrics(reg)
	logMetrics := eventlog.NewMetrics(reg)

	// 2. Журнал событий: основное хранилище по стратегии + синки
	var store eventlog.Store
	switch cfg.EventLog.Strategy {
	case infra.StrategyMemory:
		store, err = eventlog.NewRingStore(cfg.EventLog.Capacity)
	default:
		store, err = eventlog.NewFileStore(cfg.EventLog.Dir)
	}
	if err != nil {
		logger.Fatal("failed to init event store", zap.String("strategy", cfg.EventLog.Strategy), zap.Error(err))
	}

	sinks := []eventlog.Sink{eventlog.NewConsoleSink(logger)}

	banks := registry.MustDefault()

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(appCtx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Не фатально: предохранитель синка отключит публикацию, пока Redis лежит
			logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		pingCancel()
		sinks = append(sinks, eventlog.NewRedisSink(rdb, banks))
	}

	var mirror *eventlog.Mirror
	if cfg.Database.URL != "" {
		repo, err := postgres.NewEventRepo(appCtx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer repo.Close()
		if err := repo.EnsureSchema(appCtx); err != nil {
			logger.Fatal("failed to prepare event schema", zap.Error(err))
		}

		// Теперь события полетят в базу пачками
		mirror = eventlog.NewMirror(repo, logger, cfg.EventLog.BufferSize, cfg.EventLog.FlushInterval, logMetrics)
		mirror.Start()
		sinks = append(sinks, mirror)
	}

	events := eventlog.NewLog(store, logger, eventlog.WithSinks(sinks...), eventlog.WithMetrics(logMetrics))

	// 3. Ядро: реестр + симулятор
	var gen engine.Generator = engine.NewGenerator()
	if cfg.Simulator.Seed != 0 {
		gen = engine.NewSeededGenerator(cfg.Simulator.Seed)
	}
	sim := engine.NewSimulator(banks, events, gen, cfg.Simulator.TimeoutDelay, engineMetrics, logger)

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	// 4. HTTP фасад
	api := server.New(
		cfg.Server,
		logger,
		engineMetrics,
		limiter,
		handler.NewBankHandler(banks),
		handler.NewConnectHandler(sim, logger),
		handler.NewEventHandler(events, cfg.EventLog.QueryLimit, logger),
		handler.NewStatic(cfg.Server.StaticDir),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Экспортируем метрики для Prometheus
	metricsSrv := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	// 5. gRPC фасад (опционально)
	var grpcSrv *grpc.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(engine.UnaryTraceInterceptor(logger)))
		engine.RegisterPayByBankServer(grpcSrv, engine.NewGRPCGatewayServer(banks, sim, events, cfg.EventLog.QueryLimit, logger))

		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			logger.Fatal("failed to listen gRPC", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
		}
		go func() {
			logger.Info("gRPC server started", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("gRPC server failed", zap.Error(err))
			}
		}()
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Quantum Pay started",
			zap.String("addr", srv.Addr),
			zap.String("eventlog", cfg.EventLog.Strategy),
			zap.Duration("timeout_delay", cfg.Simulator.TimeoutDelay),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("Quantum Pay stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	// Зеркало дописывает хвост буфера после остановки приема запросов
	if mirror != nil {
		mirror.Stop()
	}
	logger.Info("Quantum Pay exited properly")
}
