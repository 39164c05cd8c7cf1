package handler

import (
	"log"
	"net/http"
	"sync"

	config "demand-forecast-api/configs"
	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/server"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	app  *gin.Engine
	once sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() *gin.Engine {
	once.Do(func() {
		// .envファイルはVercelの環境変数設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("❌ [setupApp] 設定の読み込みに失敗しました: %v", err)
		}

		zapLogger, err := logger.New(cfg.LogLevel, false)
		if err != nil {
			log.Fatalf("❌ [setupApp] ロガーの初期化に失敗しました: %v", err)
		}
		zapLogger.Info("🟢 [setupApp] Initializing Gin application", zap.String("environment", cfg.Environment))

		app = server.NewEngine(cfg, zapLogger, metrics.NewCollector(server.MetricsNamespace))
	})
	return app
}

// Handler はVercelからのすべてのリクエストを処理するエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	setupApp().ServeHTTP(w, r)
}
