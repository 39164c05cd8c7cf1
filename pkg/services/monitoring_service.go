package services

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader リクエストIDを受け渡すヘッダー
const RequestIDHeader = "X-Request-ID"

// RequestIDKey gin.Context上のリクエストIDのキー
const RequestIDKey = "request_id"

// maxLogEntries メモリ上に保持するリクエストログの上限
const maxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	RequestID    string        `json:"requestId"`
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// MonitoringService はAPIのモニタリング機能を提供します。
type MonitoringService struct {
	logs    []LogEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService(log *zap.Logger, collector *metrics.Collector) *MonitoringService {
	return &MonitoringService{
		logs:    make([]LogEntry, 0),
		logger:  log,
		metrics: collector,
		now:     time.Now,
	}
}

// LogRequest はリクエストを記録します。古いものから破棄されます。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - maxLogEntries; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// RequestIDMiddleware はリクエストIDを採番し、リクエスト単位のロガーをContextに載せます。
func (s *MonitoringService) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		reqLogger := s.logger.With(zap.String(RequestIDKey, requestID))
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), reqLogger))
		c.Next()
	}
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 次のミドルウェア/ハンドラを実行
		c.Next()

		path := c.Request.URL.Path
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		s.metrics.APIRequestsTotal.WithLabelValues(endpoint, c.Request.Method, strconv.Itoa(status)).Inc()
		s.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())

		// 除外するパスプレフィックス
		if strings.HasPrefix(path, "/api/v1/monitoring") || path == "/metrics" || path == "/health" {
			return
		}

		requestID := c.GetString(RequestIDKey)
		logger.FromContext(c.Request.Context(), s.logger).Info("🌐 リクエスト処理完了",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)

		s.LogRequest(LogEntry{
			RequestID:    requestID,
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   status,
			ResponseTime: elapsed,
		})
	}
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if periodHours < 1 {
		periodHours = 1
	}
	now := s.now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filteredLogs := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filteredLogs = append(filteredLogs, entry)
		}
	}

	// requestsOverTime の集計（過去から現在へ）
	requestsOverTime := make([]map[string]interface{}, periodHours)
	hourlyBuckets := make(map[string]int)
	for _, entry := range filteredLogs {
		hourlyBuckets[entry.Timestamp.UTC().Truncate(time.Hour).Format(time.RFC3339)]++
	}
	for i := 0; i < periodHours; i++ {
		target := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		requestsOverTime[i] = map[string]interface{}{
			"time":     target.Format("01/02 15:00"),
			"requests": hourlyBuckets[target.Format(time.RFC3339)],
		}
	}

	// endpoints の集計
	endpoints := make(map[string]int)
	for _, entry := range filteredLogs {
		endpoints[entry.Path]++
	}

	// statusCodes の集計
	classes := []string{"2xx Success", "4xx Client Error", "5xx Server Error"}
	statusCounts := make(map[string]int, len(classes))
	for _, entry := range filteredLogs {
		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCounts[classes[0]]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			statusCounts[classes[1]]++
		case entry.StatusCode >= 500:
			statusCounts[classes[2]]++
		}
	}
	statusCodes := make([]map[string]interface{}, 0, len(classes))
	for _, name := range classes {
		statusCodes = append(statusCodes, map[string]interface{}{"name": name, "value": statusCounts[name]})
	}

	// avgResponseTimes の集計
	responseTimeSum := make(map[string]time.Duration)
	responseCount := make(map[string]int)
	for _, entry := range filteredLogs {
		responseTimeSum[entry.Path] += entry.ResponseTime
		responseCount[entry.Path]++
	}
	paths := make([]string, 0, len(responseTimeSum))
	for path := range responseTimeSum {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := responseTimeSum[path].Milliseconds() / int64(responseCount[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	// recentErrors（新しい順に最大10件）
	recentErrors := make([]LogEntry, 0)
	for i := len(filteredLogs) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filteredLogs[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filteredLogs[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
	}
}
