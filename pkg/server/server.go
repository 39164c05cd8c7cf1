// Package server wires configuration, services and handlers into a gin engine.
package server

import (
	"net/http"

	config "demand-forecast-api/configs"
	"demand-forecast-api/pkg/forecaster"
	"demand-forecast-api/pkg/handlers"
	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsNamespace Prometheusメトリクスの名前空間
const MetricsNamespace = "demand_forecast"

// NewPipeline 設定から予測パイプラインを組み立てる（CLIと共用）
func NewPipeline(cfg *config.Config, log *zap.Logger, collector *metrics.Collector) *services.ForecastPipeline {
	opts := forecaster.DefaultOptions()
	opts.IntervalWidth = cfg.IntervalWidth

	return services.NewForecastPipeline(
		services.NewSalesLoader(log, collector),
		services.NewStatisticsService(),
		services.NewDemandForecastService(forecaster.NewAdditive(opts), log, collector, services.ForecastOptions{
			Workers:        cfg.ForecastWorkers,
			CalendarMonths: cfg.CalendarMonths,
		}),
		log,
	)
}

// NewEngine Ginルーターを初期化し、全ルートを登録する
func NewEngine(cfg *config.Config, log *zap.Logger, collector *metrics.Collector) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	// サービスの初期化
	monitoringService := services.NewMonitoringService(log, collector)
	pipeline := NewPipeline(cfg, log, collector)

	// ハンドラーの初期化
	forecastHandler := handlers.NewForecastHandler(pipeline, log, handlers.ForecastHandlerOptions{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Timeout:        cfg.ForecastTimeout,
		DefaultMonths:  cfg.DefaultMonths,
	})
	adminHandler := handlers.NewAdminHandler(cfg, log)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.RequestIDMiddleware())
	r.Use(monitoringService.LoggingMiddleware())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, handlers.APIKeyHeader, services.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{"Content-Disposition", services.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	// ヘルスチェック・メトリクス
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(handlers.AuthMiddleware(cfg.APIKey, log))
	{
		v1.GET("/hello", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Hello from Demand Forecast API!"})
		})

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}

		// 販売データ・需要予測API
		sales := v1.Group("/sales")
		sales.Use(handlers.MaintenanceMiddleware())
		if cfg.RateLimitEnabled {
			sales.Use(handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log).Middleware())
		}
		{
			sales.POST("/summary", forecastHandler.Summary)
			sales.POST("/forecast", forecastHandler.Forecast)
			sales.POST("/forecast/download", forecastHandler.Download)
		}
	}

	return r
}
