package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DownloadPath ダウンロードAPIのパス
const DownloadPath = "/api/v1/sales/forecast/download"

// ForecastHandlerOptions ハンドラの設定
type ForecastHandlerOptions struct {
	MaxUploadBytes int64
	Timeout        time.Duration
	DefaultMonths  int
}

// ForecastHandler 販売データのアップロード・概要・需要予測API
type ForecastHandler struct {
	pipeline *services.ForecastPipeline
	logger   *zap.Logger
	opts     ForecastHandlerOptions
}

// NewForecastHandler 新しいForecastHandlerを作成
func NewForecastHandler(pipeline *services.ForecastPipeline, log *zap.Logger, opts ForecastHandlerOptions) *ForecastHandler {
	if opts.DefaultMonths == 0 {
		opts.DefaultMonths = 3
	}
	return &ForecastHandler{pipeline: pipeline, logger: log, opts: opts}
}

// Summary 概要統計のみを返す
func (h *ForecastHandler) Summary(c *gin.Context) {
	h.limitBody(c)
	file, fileName, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ds, summary, err := h.pipeline.Summarize(c.Request.Context(), bytes.NewReader(file), fileName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    BuildSummaryView(ds, summary),
	})
}

// Forecast 製品別の需要予測と10日区分の集計を返す
func (h *ForecastHandler) Forecast(c *gin.Context) {
	h.limitBody(c)
	out, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    BuildForecastView(out, DownloadPath),
	})
}

// Download 集計結果をCSV（既定）またはXLSXで返す
func (h *ForecastHandler) Download(c *gin.Context) {
	h.limitBody(c)
	format := strings.ToLower(c.DefaultPostForm("format", c.DefaultQuery("format", "csv")))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("無効な形式です: %s。'csv' または 'xlsx' を指定してください。", format),
		})
		return
	}

	out, ok := h.run(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	fileName, contentType := services.ForecastCSVFileName, services.ForecastCSVContentType
	var err error
	if format == "xlsx" {
		fileName, contentType = services.ForecastXLSXFileName, services.ForecastXLSXContentType
		err = services.WriteForecastXLSX(&buf, out.Buckets)
	} else {
		err = services.WriteForecastCSV(&buf, out.Buckets)
	}
	if err != nil {
		h.respondError(c, fmt.Errorf("export: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Header("X-Forecast-Run-ID", out.Forecast.RunID)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// run アップロードとフォーム値を読み取りパイプラインを実行する
func (h *ForecastHandler) run(c *gin.Context) (*services.PipelineOutput, bool) {
	file, fileName, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}

	var products []string
	if values, present := c.GetPostFormArray("products"); present {
		products = splitProducts(values)
	}

	months := h.opts.DefaultMonths
	if raw := strings.TrimSpace(c.PostForm("months")); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, fmt.Errorf("%w: months must be an integer, got %q", services.ErrInvalidRequest, raw))
			return nil, false
		}
	}

	ctx := c.Request.Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	out, err := h.pipeline.Run(ctx, services.PipelineInput{
		File:     bytes.NewReader(file),
		FileName: fileName,
		Products: products,
		Months:   months,
	})
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return out, true
}

// limitBody フォームを解析する前にリクエストボディの上限を設定する
func (h *ForecastHandler) limitBody(c *gin.Context) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}
}

// readUpload multipartの file フィールドを読み込む
func (h *ForecastHandler) readUpload(c *gin.Context) ([]byte, string, error) {
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", err
		}
		return nil, "", &services.InputError{Err: services.ErrNoFile}
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return nil, "", fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	return buf.Bytes(), fileHeader.Filename, nil
}

// splitProducts 繰り返し指定とカンマ区切りの両方を受け付ける
func splitProducts(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !strings.Contains(v, ",") {
			out = append(out, v)
			continue
		}
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// respondError エラー種別をHTTPステータスに対応付ける
func (h *ForecastHandler) respondError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context(), h.logger)
	status := http.StatusInternalServerError
	message := err.Error()

	var maxErr *http.MaxBytesError
	switch {
	case services.IsInputError(err):
		status = http.StatusBadRequest
		message = services.DescribeInputError(err)
	case errors.Is(err, services.ErrEmptySelection):
		status = http.StatusUnprocessableEntity
		message = services.ErrEmptySelection.Error()
	case errors.Is(err, services.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("ファイルサイズが上限（%dMB）を超えています。", maxErr.Limit>>20)
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "予測処理がタイムアウトしました。製品数や期間を減らして再試行してください。"
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
		message = "リクエストがキャンセルされました。"
	}

	if status >= http.StatusInternalServerError {
		log.Error("❌ 需要予測APIエラー", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("⚠️ リクエストエラー", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}
