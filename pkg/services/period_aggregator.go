package services

import (
	"sort"

	"demand-forecast-api/pkg/models"

	"github.com/shopspring/decimal"
)

// PeriodsPerMonth 1か月あたりの10日区分の数（31日は第3区分に含める）
const PeriodsPerMonth = 3

// TenDayPeriod maps a day of month (1-31) to its 10-day period: 1-10 → 1,
// 11-20 → 2, 21-31 → 3.
func TenDayPeriod(day int) int {
	p := (day-1)/10 + 1
	if p < 1 {
		return 1
	}
	if p > PeriodsPerMonth {
		return PeriodsPerMonth
	}
	return p
}

// RoundDemand clips v to zero and rounds half-up to an integer.
func RoundDemand(v float64) int64 {
	if !(v > 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

type bucketKey struct {
	month   string
	period  int
	product string
}

// AggregateByTenDayPeriod groups daily forecast points into (month, period,
// product) buckets. Every value is clipped and rounded before summing, so
// the integer sums do not depend on input order. Buckets are sorted by
// month, period, then product; empty buckets are not emitted.
func AggregateByTenDayPeriod(points []models.ForecastPoint) []models.AggregatedBucket {
	buckets := make(map[bucketKey]*models.AggregatedBucket)
	for _, p := range points {
		key := bucketKey{
			month:   p.Date.Format("2006-01"),
			period:  TenDayPeriod(p.Date.Day()),
			product: p.Product,
		}
		b, ok := buckets[key]
		if !ok {
			b = &models.AggregatedBucket{Month: key.month, Period: key.period, Product: key.product}
			buckets[key] = b
		}
		b.Yhat += RoundDemand(p.Yhat)
		b.YhatLower += RoundDemand(p.YhatLower)
		b.YhatUpper += RoundDemand(p.YhatUpper)
	}

	out := make([]models.AggregatedBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Product < out[j].Product
	})
	return out
}
