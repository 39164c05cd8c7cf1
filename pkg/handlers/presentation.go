package handlers

import (
	"fmt"

	"demand-forecast-api/pkg/models"
	"demand-forecast-api/pkg/services"
)

// MetricCard 画面上部に表示する指標
type MetricCard struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// BarSeries 製品をキーにした棒グラフ
type BarSeries struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// LinePoint 折れ線グラフの1点
type LinePoint struct {
	Date  string  `json:"date"`
	Yhat  float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

// LineSeries 製品ごとの予測系列（凡例ラベル付き）
type LineSeries struct {
	Label  string      `json:"label"`
	Points []LinePoint `json:"points"`
}

// LineChart 選択製品の予測折れ線グラフ
type LineChart struct {
	Title  string       `json:"title"`
	XLabel string       `json:"x_label"`
	YLabel string       `json:"y_label"`
	Series []LineSeries `json:"series"`
}

// ForecastTable 10日区分の集計表
type ForecastTable struct {
	Title   string                    `json:"title"`
	Columns []string                  `json:"columns"`
	Rows    []models.AggregatedBucket `json:"rows"`
}

// DownloadDescriptor ダウンロードボタンの情報
type DownloadDescriptor struct {
	Label       string `json:"label"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// SummaryView 概要統計の表示データ
type SummaryView struct {
	FileName      string              `json:"file_name"`
	ProductColumn string              `json:"product_column"`
	TotalRows     int                 `json:"total_rows"`
	DroppedRows   int                 `json:"dropped_rows"`
	Metrics       []MetricCard        `json:"metrics"`
	TopProducts   BarSeries           `json:"top_products_chart"`
	Summary       models.SalesSummary `json:"summary"`
}

// ForecastView 予測結果の表示データ
type ForecastView struct {
	Overview SummaryView            `json:"overview"`
	Request  models.ForecastRequest `json:"request"`
	Result   *models.ForecastResult `json:"result"`
	Chart    LineChart              `json:"chart"`
	Table    ForecastTable          `json:"table"`
	Download DownloadDescriptor     `json:"download"`
}

// BuildMetricCards 概要統計を指標カードに変換（顧客数は列がある場合のみ）
func BuildMetricCards(s models.SalesSummary) []MetricCard {
	cards := []MetricCard{
		{Label: "Total Products", Value: s.TotalProducts},
		{Label: "Total Sales Volume", Value: s.TotalDemand},
		{Label: "Date Range", Value: fmt.Sprintf("%s to %s", s.DateFrom, s.DateTo)},
	}
	if s.UniqueCustomers != nil {
		cards = append(cards, MetricCard{Label: "Unique Customers", Value: *s.UniqueCustomers})
	}
	return append(cards, MetricCard{Label: "Average Daily Demand", Value: s.AverageDailyDemand})
}

// BuildTopProductsChart 上位製品の棒グラフ
func BuildTopProductsChart(top []models.ProductTotal) BarSeries {
	chart := BarSeries{
		Title:  fmt.Sprintf("Top %d Products by Total Demand", services.TopProductsLimit),
		Labels: make([]string, len(top)),
		Values: make([]float64, len(top)),
	}
	for i, p := range top {
		chart.Labels[i] = p.Product
		chart.Values[i] = p.TotalDemand
	}
	return chart
}

// BuildSummaryView データセットと概要統計から表示データを作る
func BuildSummaryView(ds *models.CleanedDataset, s models.SalesSummary) SummaryView {
	return SummaryView{
		FileName:      ds.FileName,
		ProductColumn: ds.ProductColumn,
		TotalRows:     ds.TotalRows,
		DroppedRows:   ds.DroppedRows,
		Metrics:       BuildMetricCards(s),
		TopProducts:   BuildTopProductsChart(s.TopProducts),
		Summary:       s,
	}
}

// BuildLineChart groups forecast points by product, keeping the order in
// which products first appear.
func BuildLineChart(points []models.ForecastPoint) LineChart {
	chart := LineChart{
		Title:  "Forecasted Demand for Selected Products",
		XLabel: "Date",
		YLabel: "Forecast (yhat)",
		Series: []LineSeries{},
	}
	index := make(map[string]int)
	for _, p := range points {
		i, ok := index[p.Product]
		if !ok {
			i = len(chart.Series)
			index[p.Product] = i
			chart.Series = append(chart.Series, LineSeries{Label: p.Product})
		}
		chart.Series[i].Points = append(chart.Series[i].Points, LinePoint{
			Date:  p.Date.Format("2006-01-02"),
			Yhat:  p.Yhat,
			Lower: p.YhatLower,
			Upper: p.YhatUpper,
		})
	}
	return chart
}

// BuildForecastView パイプライン結果から表示データを作る
func BuildForecastView(out *services.PipelineOutput, downloadURL string) ForecastView {
	rows := out.Buckets
	if rows == nil {
		rows = []models.AggregatedBucket{}
	}
	return ForecastView{
		Overview: BuildSummaryView(out.Dataset, out.Summary),
		Request:  out.Request,
		Result:   out.Forecast,
		Chart:    BuildLineChart(out.Forecast.Points),
		Table: ForecastTable{
			Title:   "Forecast (Aggregated by 10-Day Periods)",
			Columns: services.ForecastCSVHeader,
			Rows:    rows,
		},
		Download: DownloadDescriptor{
			Label:       "Download Forecast CSV",
			FileName:    services.ForecastCSVFileName,
			ContentType: services.ForecastCSVContentType,
			URL:         downloadURL,
		},
	}
}
