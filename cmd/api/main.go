package main

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"onchain_yield_api/internal/adapter/execution"
	"onchain_yield_api/internal/domain"
	"onchain_yield_api/internal/failover"
	"onchain_yield_api/internal/handler"
	"onchain_yield_api/internal/usecase"
	"onchain_yield_api/pkg/config"
	httpPkg "onchain_yield_api/pkg/http"
	"onchain_yield_api/pkg/logger"
	"onchain_yield_api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := log.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "error syncing logger: %v\n", err)
		}
	}()
	zap.ReplaceGlobals(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	executor, err := failover.New(
		cfg.Chain.RPCURLs,
		execution.Dial(&stdhttp.Client{}),
		cfg.Chain.AttemptTimeout,
		m,
	)
	if err != nil {
		zap.L().Fatal("init failover executor", zap.Error(err))
	}
	execClient, err := execution.NewExecutionClient(executor)
	if err != nil {
		zap.L().Fatal("init execution client", zap.Error(err))
	}

	apyCache, err := execution.NewAPYCache(cfg.Cache.APY.MaxEntries, cfg.Cache.APY.TTL)
	if err != nil {
		zap.L().Fatal("init apy cache", zap.Error(err))
	}

	fallback, err := usecase.ParseFallbackPolicy(cfg.Vaults.Fallback)
	if err != nil {
		zap.L().Fatal("invalid VAULTS_FALLBACK", zap.Error(err))
	}

	reserve := domain.ReserveKey{Pool: cfg.Aave.Pool, Asset: cfg.Aave.Asset}
	bnUC := usecase.NewBlockNumberUseCase(execClient)
	apyUC := usecase.NewAPYUseCase(execClient, apyCache, reserve, m)
	vaultsUC := usecase.NewVaultsUseCase(apyUC, cfg.Vaults.Timeout, fallback, m)

	limiter, err := httpPkg.NewClientLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if err != nil {
		zap.L().Fatal("init rate limiter", zap.Error(err))
	}

	h := handler.NewHandler(bnUC, apyUC, vaultsUC)
	r := httpPkg.NewRouter(h, limiter, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), cfg.CORS.AllowedOrigins)

	srv := &stdhttp.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zap.L().Info("starting server",
			zap.String("address", cfg.Server.Address),
			zap.Strings("rpc_urls", executor.Endpoints()),
			zap.String("vaults_fallback", string(fallback)))
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			zap.L().Fatal("listen error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zap.L().Info("shutting down…")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
	zap.L().Info("server stopped")
}
