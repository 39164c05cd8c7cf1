package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"demand-forecast-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// maxDashboardHours ダッシュボードで集計できる最大期間（30日）
const maxDashboardHours = 24 * 30

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs は集計されたログデータを返します。period は "1h", "24h", "7d" の形式です。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours, err := parsePeriodHours(c.DefaultQuery("period", "24h"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}

// parsePeriodHours "12h" や "7d" を時間数に変換します。
func parsePeriodHours(period string) (int, error) {
	period = strings.TrimSpace(strings.ToLower(period))
	if len(period) < 2 {
		return 0, fmt.Errorf("無効な期間です: %q", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("無効な期間です: %q", period)
	}
	var hours int
	switch period[len(period)-1] {
	case 'h':
		hours = n
	case 'd':
		hours = n * 24
	default:
		return 0, fmt.Errorf("無効な期間です: %q（例: 1h, 24h, 7d）", period)
	}
	if hours > maxDashboardHours {
		hours = maxDashboardHours
	}
	return hours, nil
}
