package forecaster

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Options configures the additive model.
type Options struct {
	// IntervalWidth is the coverage of the uncertainty interval (0.8 = 80%).
	IntervalWidth float64
	// WeeklyOrder is the Fourier order of weekly seasonality; 0 disables it.
	WeeklyOrder int
	// YearlyOrder is the Fourier order of yearly seasonality; 0 disables it.
	YearlyOrder int
	// Ridge is the per-observation L2 penalty on non-intercept coefficients.
	Ridge float64
}

// DefaultOptions mirrors the usual Prophet defaults where they apply.
func DefaultOptions() Options {
	return Options{
		IntervalWidth: 0.8,
		WeeklyOrder:   3,
		YearlyOrder:   10,
		Ridge:         1e-4,
	}
}

const (
	weeklyMinSpanDays = 14
	yearlyMinSpanDays = 730
	weekPeriod        = 7.0
	yearPeriod        = 365.25
)

// Additive fits trend + Fourier seasonality by regularized least squares.
type Additive struct {
	opts Options
}

// NewAdditive creates an additive forecaster. Zero-valued option fields fall back to defaults.
func NewAdditive(opts Options) *Additive {
	def := DefaultOptions()
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = def.IntervalWidth
	}
	if opts.Ridge <= 0 {
		opts.Ridge = def.Ridge
	}
	if opts.WeeklyOrder < 0 {
		opts.WeeklyOrder = 0
	}
	if opts.YearlyOrder < 0 {
		opts.YearlyOrder = 0
	}
	return &Additive{opts: opts}
}

// additiveModel is a fitted model.
type additiveModel struct {
	start  time.Time
	last   time.Time
	span   float64
	weekly int
	yearly int
	beta   []float64
	sigma  float64
	z      float64
	nObs   int
}

// Fit fits the model on a single series.
func (a *Additive) Fit(ctx context.Context, series Series) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(series.Dates) != len(series.Values) {
		return nil, fmt.Errorf("forecaster: %d dates but %d values", len(series.Dates), len(series.Values))
	}
	s := NormalizeSeries(series)
	if s.Len() < MinObservations {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, s.Len(), MinObservations)
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("forecaster: non-finite value at %s", s.Dates[i].Format("2006-01-02"))
		}
	}

	m := &additiveModel{
		start: s.Dates[0],
		last:  s.Last(),
		nObs:  s.Len(),
		z:     zScore(a.opts.IntervalWidth),
	}
	m.span = daysBetween(m.start, m.last)
	if m.span <= 0 {
		m.span = 1
	}
	if m.span >= weeklyMinSpanDays && minGapDays(s.Dates) < weekPeriod {
		m.weekly = a.opts.WeeklyOrder
	}
	if m.span >= yearlyMinSpanDays {
		m.yearly = a.opts.YearlyOrder
	}

	rows := make([][]float64, s.Len())
	for i, d := range s.Dates {
		rows[i] = m.features(d)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xtx, xty := normalEquations(rows, s.Values, a.opts.Ridge*float64(s.Len()))
	beta, err := solveSymmetric(xtx, xty)
	if err != nil {
		return nil, err
	}
	m.beta = beta

	var rss float64
	for i, row := range rows {
		r := s.Values[i] - dot(row, beta)
		rss += r * r
	}
	dof := s.Len() - len(beta)
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(rss / float64(dof))

	return m, nil
}

// Predict returns one prediction per requested date, in the order given.
func (m *additiveModel) Predict(dates []time.Time) ([]Prediction, error) {
	out := make([]Prediction, len(dates))
	for i, d := range dates {
		day := truncateDay(d)
		yhat := dot(m.features(day), m.beta)

		ahead := daysBetween(m.last, day)
		if ahead < 0 {
			ahead = 0
		}
		margin := m.z * m.sigma * math.Sqrt(1+ahead/float64(m.nObs))

		out[i] = Prediction{
			Date:  day,
			Yhat:  yhat,
			Lower: yhat - margin,
			Upper: yhat + margin,
		}
	}
	return out, nil
}

// features builds the design row: intercept, trend, weekly and yearly Fourier terms.
func (m *additiveModel) features(d time.Time) []float64 {
	elapsed := daysBetween(m.start, d)
	row := make([]float64, 0, 2+2*(m.weekly+m.yearly))
	row = append(row, 1, elapsed/m.span)
	row = appendFourier(row, elapsed, weekPeriod, m.weekly)
	row = appendFourier(row, elapsed, yearPeriod, m.yearly)
	return row
}

func appendFourier(row []float64, t, period float64, order int) []float64 {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * t / period
		row = append(row, math.Sin(x), math.Cos(x))
	}
	return row
}

func minGapDays(dates []time.Time) float64 {
	gap := math.Inf(1)
	for i := 1; i < len(dates); i++ {
		if g := daysBetween(dates[i-1], dates[i]); g < gap {
			gap = g
		}
	}
	return gap
}
