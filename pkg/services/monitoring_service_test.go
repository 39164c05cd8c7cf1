package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := metrics.NewCollector("test")
	svc := NewMonitoringService(zap.NewNop(), c)

	var seenID string
	r := gin.New()
	r.Use(svc.RequestIDMiddleware(), svc.LoggingMiddleware())
	r.GET("/ok", func(ctx *gin.Context) {
		seenID = ctx.GetString(RequestIDKey)
		logger.FromContext(ctx.Request.Context(), nil).Debug("handled")
		ctx.Status(http.StatusOK)
	})
	r.GET("/fail", func(ctx *gin.Context) { ctx.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/ok", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/fail", "GET", "500")))

	data := svc.GetDashboardData(1)
	assert.Equal(t, 1, data.Endpoints["/ok"])
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "fixed-id", data.RecentErrors[0].RequestID)
	assert.Equal(t, 1, data.StatusCodes[0]["value"])
	assert.Equal(t, 1, data.StatusCodes[2]["value"])
}

func TestDashboardFiltersByPeriod(t *testing.T) {
	svc := NewMonitoringService(zap.NewNop(), metrics.NewCollector("test"))
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.LogRequest(LogEntry{Timestamp: now.Add(-10 * time.Minute), Path: "/a", StatusCode: 200, ResponseTime: 20 * time.Millisecond})
	svc.LogRequest(LogEntry{Timestamp: now.Add(-20 * time.Minute), Path: "/a", StatusCode: 404, ResponseTime: 40 * time.Millisecond})
	svc.LogRequest(LogEntry{Timestamp: now.Add(-5 * time.Hour), Path: "/b", StatusCode: 200})

	data := svc.GetDashboardData(1)
	assert.Len(t, data.RequestsOverTime, 1)
	assert.Equal(t, 2, data.RequestsOverTime[0]["requests"])
	assert.Equal(t, map[string]int{"/a": 2}, data.Endpoints)
	require.Len(t, data.AvgResponseTimes, 1)
	assert.Equal(t, int64(30), data.AvgResponseTimes[0]["responseTime"])

	data = svc.GetDashboardData(24)
	assert.Len(t, data.RequestsOverTime, 24)
	assert.Equal(t, 1, data.Endpoints["/b"])
}

func TestLogRequestIsBounded(t *testing.T) {
	svc := NewMonitoringService(zap.NewNop(), metrics.NewCollector("test"))
	for i := 0; i < maxLogEntries+5; i++ {
		svc.LogRequest(LogEntry{Path: "/x"})
	}
	assert.Len(t, svc.logs, maxLogEntries)
}
