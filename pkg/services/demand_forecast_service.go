package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"demand-forecast-api/pkg/forecaster"
	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DaysPerMonth 固定ホライズンでの1か月の日数
const DaysPerMonth = 30

// ホライズンの計算方式
const (
	HorizonFixed    = "fixed_30_day_months"
	HorizonCalendar = "calendar_months"
)

// 製品単位の失敗理由
const (
	FailureUnknownProduct   = "unknown_product"
	FailureInsufficientData = "insufficient_data"
	FailureModelError       = "model_error"
)

// ForecastOptions 需要予測サービスの設定
type ForecastOptions struct {
	Workers        int
	CalendarMonths bool
}

// DemandForecastService 製品ごとに独立したモデルを学習し日次予測を返す
type DemandForecastService struct {
	forecaster     forecaster.Forecaster
	logger         *zap.Logger
	metrics        *metrics.Collector
	validate       *validator.Validate
	workers        int
	calendarMonths bool
}

// NewDemandForecastService 新しい需要予測サービスを作成
func NewDemandForecastService(f forecaster.Forecaster, log *zap.Logger, collector *metrics.Collector, opts ForecastOptions) *DemandForecastService {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &DemandForecastService{
		forecaster:     f,
		logger:         log,
		metrics:        collector,
		validate:       validator.New(),
		workers:        workers,
		calendarMonths: opts.CalendarMonths,
	}
}

// productOutcome 1製品分の結果。各タスクは自分のスロットにだけ書き込む
type productOutcome struct {
	points  []models.ForecastPoint
	failure *models.ProductFailure
}

// Forecast fits one model per selected product and predicts over the observed
// dates plus the horizon. A failing product is reported in Failures and does
// not affect the others; only context cancellation aborts the whole run.
func (s *DemandForecastService) Forecast(ctx context.Context, ds *models.CleanedDataset, req models.ForecastRequest) (*models.ForecastResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx, s.logger)

	products := NormalizeSelection(req.Products)
	if len(products) == 0 {
		return nil, ErrEmptySelection
	}
	req.Products = products
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if ds == nil {
		return nil, &InputError{Err: ErrNoValidRows}
	}

	series := BuildDailySeries(ds)
	outcomes := make([]productOutcome, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, product := range products {
		i, product := i, product
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ser, ok := series[product]
			points, err := s.forecastProduct(gctx, product, ser, ok, req.Months)
			if err != nil {
				if isContextError(err) {
					return err
				}
				reason := failureReason(err)
				s.metrics.ModelFitFailures.WithLabelValues(reason).Inc()
				log.Warn("⚠️ 製品の予測に失敗しました（他の製品は継続）",
					zap.String("product", product),
					zap.String("reason", reason),
					zap.Error(err),
				)
				outcomes[i].failure = &models.ProductFailure{Product: product, Reason: reason, Error: err.Error()}
				return nil
			}
			outcomes[i].points = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast aborted: %w", err)
	}

	result := &models.ForecastResult{
		RunID:       uuid.NewString(),
		Months:      req.Months,
		HorizonMode: HorizonFixed,
		HorizonDays: req.Months * DaysPerMonth,
		Points:      []models.ForecastPoint{},
		Succeeded:   []string{},
		Failures:    []models.ProductFailure{},
	}
	if s.calendarMonths {
		result.HorizonMode = HorizonCalendar
		result.HorizonDays = 0
	}
	for i, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
			continue
		}
		result.Points = append(result.Points, o.points...)
		result.Succeeded = append(result.Succeeded, products[i])
	}
	s.metrics.ForecastPointsTotal.Add(float64(len(result.Points)))

	elapsed := time.Since(start)
	result.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	result.ElapsedMilli = elapsed.Milliseconds()

	log.Info("📈 需要予測完了",
		zap.String("run_id", result.RunID),
		zap.Int("products", len(products)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("points", len(result.Points)),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// forecastProduct 1製品の学習と予測
func (s *DemandForecastService) forecastProduct(ctx context.Context, product string, series forecaster.Series, found bool, months int) (points []models.ForecastPoint, err error) {
	if !found {
		return nil, ErrUnknownProduct
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()

	fitStart := time.Now()
	model, err := s.forecaster.Fit(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	horizon := HorizonDays(series.Last(), months, s.calendarMonths)
	preds, err := model.Predict(forecaster.FutureDates(series, horizon))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	s.metrics.ModelFitDuration.Observe(time.Since(fitStart).Seconds())

	points = make([]models.ForecastPoint, len(preds))
	for i, p := range preds {
		points[i] = models.ForecastPoint{
			Date:      p.Date,
			Product:   product,
			Yhat:      p.Yhat,
			YhatLower: p.Lower,
			YhatUpper: p.Upper,
		}
	}
	return points, nil
}

// HorizonDays 予測する将来日数。固定方式は months*30、暦方式は最終観測日からの実日数
func HorizonDays(last time.Time, months int, calendar bool) int {
	if months < 0 {
		months = 0
	}
	if !calendar {
		return months * DaysPerMonth
	}
	end := addMonthsClamped(last, months)
	return int(end.Sub(last).Hours() / 24)
}

// addMonthsClamped 月末を超える場合は月末日に丸める（1/31 + 1か月 = 2/29）
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// BuildDailySeries groups records by product into ascending daily series,
// summing demand per date. Missing dates are not filled.
func BuildDailySeries(ds *models.CleanedDataset) map[string]forecaster.Series {
	raw := make(map[string]forecaster.Series)
	for _, rec := range ds.Records {
		s := raw[rec.Product]
		s.Dates = append(s.Dates, rec.Date)
		s.Values = append(s.Values, rec.Demand)
		raw[rec.Product] = s
	}
	out := make(map[string]forecaster.Series, len(raw))
	for p, s := range raw {
		out[p] = forecaster.NormalizeSeries(s)
	}
	return out
}

// NormalizeSelection trims product keys, drops blanks and keeps the first
// occurrence of duplicates.
func NormalizeSelection(products []string) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownProduct):
		return FailureUnknownProduct
	case errors.Is(err, forecaster.ErrInsufficientData):
		return FailureInsufficientData
	default:
		return FailureModelError
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
