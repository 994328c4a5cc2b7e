package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ReceiptProcessor/internal/config"
	"ReceiptProcessor/internal/receipt"
	"ReceiptProcessor/pkg/kit"
)

func main() {
	service := "receipts"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &receipt.Server{
		Processor:    receipt.NewProcessor(receipt.NewStore(), receipt.NewMetrics(reg)),
		Log:          log,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}

	h := receipt.NewHandler(s, receipt.HTTPDeps{
		Log:               log,
		Service:           service,
		Registry:          reg,
		MetricsEnabled:    cfg.MetricsEnabled,
		MetricsToken:      cfg.MetricsToken,
		ProcessRatePerMin: cfg.ProcessRate,
		ProcessRateBurst:  cfg.ProcessBurst,
		TrustProxy:        cfg.TrustProxy,
	})

	log.Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Int("process_rate_per_min", cfg.ProcessRate),
		zap.Bool("trust_proxy", cfg.TrustProxy),
	)

	if err := kit.RunHTTPServer(cfg.HTTPAddr(), h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
