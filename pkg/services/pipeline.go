package services

import (
	"context"
	"fmt"
	"io"

	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/models"

	"go.uber.org/zap"
)

// ForecastPipeline 読み込み → 集計 → 製品別予測 → 10日区分集計 の一連の処理
type ForecastPipeline struct {
	loader     *SalesLoader
	statistics *StatisticsService
	forecast   *DemandForecastService
	logger     *zap.Logger
}

// NewForecastPipeline 新しいパイプラインを作成
func NewForecastPipeline(loader *SalesLoader, statistics *StatisticsService, forecast *DemandForecastService, log *zap.Logger) *ForecastPipeline {
	return &ForecastPipeline{
		loader:     loader,
		statistics: statistics,
		forecast:   forecast,
		logger:     log,
	}
}

// PipelineInput 1リクエスト分の入力。Productsがnilの場合は既定の選択を使う
type PipelineInput struct {
	File     io.Reader
	FileName string
	Products []string
	Months   int
}

// PipelineOutput パイプラインの結果
type PipelineOutput struct {
	Dataset  *models.CleanedDataset
	Summary  models.SalesSummary
	Request  models.ForecastRequest
	Forecast *models.ForecastResult
	Buckets  []models.AggregatedBucket
}

// Summarize loads the file and computes summary statistics only.
func (p *ForecastPipeline) Summarize(ctx context.Context, file io.Reader, fileName string) (*models.CleanedDataset, models.SalesSummary, error) {
	ds, err := p.loader.Load(file, fileName)
	if err != nil {
		return nil, models.SalesSummary{}, err
	}
	summary := p.statistics.Summarize(ds)
	logger.FromContext(ctx, p.logger).Debug("📋 概要統計",
		zap.Int("products", summary.TotalProducts),
		zap.Int64("total_demand", summary.TotalDemand),
	)
	return ds, summary, nil
}

// Run executes the full flow. Fatal input errors stop the run before any
// forecasting; per-product failures are reported in Forecast.Failures.
func (p *ForecastPipeline) Run(ctx context.Context, in PipelineInput) (*PipelineOutput, error) {
	ds, summary, err := p.Summarize(ctx, in.File, in.FileName)
	if err != nil {
		return nil, err
	}

	products := in.Products
	if products == nil {
		products = summary.DefaultSelection
	}
	req := models.ForecastRequest{Products: products, Months: in.Months}

	result, err := p.forecast.Forecast(ctx, ds, req)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	return &PipelineOutput{
		Dataset:  ds,
		Summary:  summary,
		Request:  models.ForecastRequest{Products: NormalizeSelection(products), Months: in.Months},
		Forecast: result,
		Buckets:  AggregateByTenDayPeriod(result.Points),
	}, nil
}
