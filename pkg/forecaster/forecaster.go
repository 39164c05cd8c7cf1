// Package forecaster provides the univariate daily time-series model used for
// per-product demand forecasting.
//
// A Forecaster fits one independent Model per Series. Models are immutable
// after fitting and safe to use from a single goroutine; nothing is shared
// between fits.
//
//	f := forecaster.NewAdditive(forecaster.DefaultOptions())
//	model, err := f.Fit(ctx, series)
//	if err != nil {
//	    // too few observations, singular design, cancelled context ...
//	}
//	preds, err := model.Predict(forecaster.FutureDates(series, 90))
package forecaster

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrInsufficientData is returned when a series has too few observations to fit.
var ErrInsufficientData = errors.New("forecaster: insufficient observations")

// MinObservations is the smallest series length a model can be fit on.
const MinObservations = 2

// Series is a daily series: one value per calendar date, ascending, no
// implicit zero filling of missing dates.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// Last returns the most recent observed date.
func (s Series) Last() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Prediction is one forecast row: point estimate and uncertainty interval.
type Prediction struct {
	Date  time.Time `json:"ds"`
	Yhat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// Forecaster fits a model on a single series.
type Forecaster interface {
	Fit(ctx context.Context, series Series) (Model, error)
}

// Model predicts values for arbitrary dates.
type Model interface {
	Predict(dates []time.Time) ([]Prediction, error)
}

// FutureDates returns every observed date followed by periods consecutive
// days after the last observation.
func FutureDates(series Series, periods int) []time.Time {
	if periods < 0 {
		periods = 0
	}
	out := make([]time.Time, 0, series.Len()+periods)
	out = append(out, series.Dates...)
	last := series.Last()
	for i := 1; i <= periods; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

// NormalizeSeries returns a copy sorted ascending by date with duplicate dates summed.
func NormalizeSeries(s Series) Series {
	type kv struct {
		d time.Time
		v float64
	}
	idx := make(map[time.Time]int, len(s.Dates))
	var pts []kv
	for i, d := range s.Dates {
		day := truncateDay(d)
		if j, ok := idx[day]; ok {
			pts[j].v += s.Values[i]
			continue
		}
		idx[day] = len(pts)
		pts = append(pts, kv{d: day, v: s.Values[i]})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].d.Before(pts[j].d) })

	out := Series{Dates: make([]time.Time, len(pts)), Values: make([]float64, len(pts))}
	for i, p := range pts {
		out.Dates[i] = p.d
		out.Values[i] = p.v
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole days from a to b (b later is positive).
func daysBetween(a, b time.Time) float64 {
	return truncateDay(b).Sub(truncateDay(a)).Hours() / 24
}
