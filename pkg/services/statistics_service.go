package services

import (
	"sort"
	"time"

	"demand-forecast-api/pkg/models"

	"github.com/shopspring/decimal"
)

// TopProductsLimit 上位製品ランキングの件数
const TopProductsLimit = 5

// DefaultSelectionSize 製品未指定時に予測する製品数（ソート順の先頭から）
const DefaultSelectionSize = 2

// StatisticsService 販売データの概要統計を計算する
type StatisticsService struct{}

// NewStatisticsService 新しい統計サービスを作成
func NewStatisticsService() *StatisticsService {
	return &StatisticsService{}
}

// Summarize computes the dataset overview. Sums are exact (decimal) so the
// result does not depend on row order.
func (s *StatisticsService) Summarize(ds *models.CleanedDataset) models.SalesSummary {
	if ds == nil || len(ds.Records) == 0 {
		return models.SalesSummary{TopProducts: []models.ProductTotal{}, Products: []string{}, DefaultSelection: []string{}}
	}

	total := decimal.Zero
	productTotals := make(map[string]decimal.Decimal)
	dailyTotals := make(map[time.Time]decimal.Decimal)
	customers := make(map[string]struct{})
	minDate, maxDate := ds.Records[0].Date, ds.Records[0].Date

	for _, rec := range ds.Records {
		d := decimal.NewFromFloat(rec.Demand)
		total = total.Add(d)
		productTotals[rec.Product] = productTotals[rec.Product].Add(d)
		dailyTotals[rec.Date] = dailyTotals[rec.Date].Add(d)
		if ds.HasCustomer && rec.Customer != "" {
			customers[rec.Customer] = struct{}{}
		}
		if rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}

	summary := models.SalesSummary{
		TotalProducts:      len(productTotals),
		TotalDemand:        total.IntPart(),
		DateFrom:           minDate.Format("2006-01-02"),
		DateTo:             maxDate.Format("2006-01-02"),
		AverageDailyDemand: averageDailyDemand(dailyTotals),
		TopProducts:        TopProducts(productTotals, TopProductsLimit),
		Products:           SortedProducts(productTotals),
	}
	if ds.HasCustomer {
		n := len(customers)
		summary.UniqueCustomers = &n
	}
	summary.DefaultSelection = DefaultSelection(summary.Products)
	return summary
}

// averageDailyDemand 日付ごとの合計需要の平均（小数第2位で四捨五入）
func averageDailyDemand(daily map[time.Time]decimal.Decimal) float64 {
	if len(daily) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range daily {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(daily)))).Round(2).InexactFloat64()
}

// TopProducts ranks products by descending total demand; ties go to the smaller key.
func TopProducts(totals map[string]decimal.Decimal, n int) []models.ProductTotal {
	type kv struct {
		product string
		total   decimal.Decimal
	}
	ranked := make([]kv, 0, len(totals))
	for p, t := range totals {
		ranked = append(ranked, kv{product: p, total: t})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].total.Cmp(ranked[j].total); c != 0 {
			return c > 0
		}
		return ranked[i].product < ranked[j].product
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]models.ProductTotal, len(ranked))
	for i, r := range ranked {
		out[i] = models.ProductTotal{Product: r.product, TotalDemand: r.total.InexactFloat64()}
	}
	return out
}

// SortedProducts 製品キーを昇順で返す
func SortedProducts(totals map[string]decimal.Decimal) []string {
	products := make([]string, 0, len(totals))
	for p := range totals {
		products = append(products, p)
	}
	sort.Strings(products)
	return products
}

// DefaultSelection ソート済み製品リストの先頭2件
func DefaultSelection(sortedProducts []string) []string {
	n := DefaultSelectionSize
	if len(sortedProducts) < n {
		n = len(sortedProducts)
	}
	out := make([]string, n)
	copy(out, sortedProducts[:n])
	return out
}

// ProductSet データセットに含まれる製品の集合
func ProductSet(ds *models.CleanedDataset) map[string]struct{} {
	set := make(map[string]struct{})
	for _, rec := range ds.Records {
		set[rec.Product] = struct{}{}
	}
	return set
}
