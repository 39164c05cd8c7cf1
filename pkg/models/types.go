package models

import "time"

// SalesRecord represents a single cleaned sales row.
type SalesRecord struct {
	Date     time.Time `json:"date"`
	Product  string    `json:"product"`
	Customer string    `json:"customer,omitempty"`
	Demand   float64   `json:"order_demand"`
}

// CleanedDataset 検証済みの販売データセット
// 全レコードが有効な日付・製品キー・0以上の需要を持つ
type CleanedDataset struct {
	FileName      string        `json:"file_name"`
	ProductColumn string        `json:"product_column"`
	HasCustomer   bool          `json:"has_customer"`
	Records       []SalesRecord `json:"-"`
	TotalRows     int           `json:"total_rows"`
	DroppedRows   int           `json:"dropped_rows"`
}

// ProductTotal 製品別の総需要
type ProductTotal struct {
	Product     string  `json:"product"`
	TotalDemand float64 `json:"total_demand"`
}

// SalesSummary データセットの概要統計
type SalesSummary struct {
	TotalProducts      int            `json:"total_products"`
	TotalDemand        int64          `json:"total_sales_volume"`
	DateFrom           string         `json:"date_from"`
	DateTo             string         `json:"date_to"`
	UniqueCustomers    *int           `json:"unique_customers,omitempty"`
	AverageDailyDemand float64        `json:"average_daily_demand"`
	TopProducts        []ProductTotal `json:"top_products"`
	Products           []string       `json:"products"`
	DefaultSelection   []string       `json:"default_selection"`
}

// ForecastRequest 需要予測リクエスト（リクエスト単位で不変）
type ForecastRequest struct {
	Products []string `json:"products" validate:"required,min=1,dive,required"`
	Months   int      `json:"months" validate:"min=1,max=12"`
}

// ForecastPoint 日次の予測値（後処理前）
type ForecastPoint struct {
	Date      time.Time `json:"ds"`
	Product   string    `json:"product"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// ProductFailure 製品単位の予測失敗
type ProductFailure struct {
	Product string `json:"product"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

// ForecastResult 予測結果（成功分と失敗分）
type ForecastResult struct {
	RunID        string           `json:"run_id"`
	Months       int              `json:"months"`
	HorizonMode  string           `json:"horizon_mode"`
	HorizonDays  int              `json:"horizon_days,omitempty"`
	Points       []ForecastPoint  `json:"-"`
	Succeeded    []string         `json:"succeeded"`
	Failures     []ProductFailure `json:"failures"`
	GeneratedAt  string           `json:"generated_at"`
	ElapsedMilli int64            `json:"elapsed_ms"`
}

// AggregatedBucket 10日単位に集計した予測
type AggregatedBucket struct {
	Month     string `json:"month"`
	Period    int    `json:"period"`
	Product   string `json:"product"`
	Yhat      int64  `json:"yhat"`
	YhatLower int64  `json:"yhat_lower"`
	YhatUpper int64  `json:"yhat_upper"`
}
