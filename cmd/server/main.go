package main

import (
	"log"

	config "demand-forecast-api/configs"
	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer zapLogger.Sync()

	collector := metrics.NewCollector(server.MetricsNamespace)
	r := server.NewEngine(cfg, zapLogger, collector)

	zapLogger.Info("🚀 Starting Demand Forecast API server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Int("forecast_workers", cfg.ForecastWorkers),
		zap.Duration("forecast_timeout", cfg.ForecastTimeout),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
