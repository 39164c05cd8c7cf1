package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// dayFirstLayouts 日付の解釈順（日→月の順を優先し、最後に月→日を試す）
var dayFirstLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/06",
	"2/1/06",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// SalesLoader 販売実績ファイルの読み込みとクレンジング
type SalesLoader struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewSalesLoader 新しいSalesLoaderを作成
func NewSalesLoader(logger *zap.Logger, collector *metrics.Collector) *SalesLoader {
	return &SalesLoader{logger: logger, metrics: collector}
}

// Load reads a CSV or XLSX file and returns the cleaned dataset.
func (l *SalesLoader) Load(r io.Reader, fileName string) (*models.CleanedDataset, error) {
	if r == nil {
		return nil, &InputError{Err: ErrNoFile}
	}
	rows, excelDates, err := readRows(r, fileName)
	if err != nil {
		return nil, err
	}
	return l.clean(fileName, rows, excelDates)
}

// LoadRows cleans rows that were already split into cells (header first).
func (l *SalesLoader) LoadRows(fileName string, rows [][]string) (*models.CleanedDataset, error) {
	return l.clean(fileName, rows, false)
}

// readRows ファイル形式に応じて行データを取得
func readRows(r io.Reader, fileName string) ([][]string, bool, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, false, newInputError(ErrMalformedFile, "excel: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, false, newInputError(ErrMalformedFile, "excel sheet: %v", err)
		}
		if len(rows) == 0 {
			return nil, false, &InputError{Err: ErrEmptyFile}
		}
		return rows, true, nil
	case ".csv", ".txt", "":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, false, newInputError(ErrMalformedFile, "csv: %v", err)
		}
		if len(rows) == 0 {
			return nil, false, &InputError{Err: ErrEmptyFile}
		}
		return rows, false, nil
	default:
		return nil, false, newInputError(ErrUnsupportedFormat, "%s (upload .csv or .xlsx)", fileName)
	}
}

// clean 列を特定し、無効な行を除外する
func (l *SalesLoader) clean(fileName string, rows [][]string, excelDates bool) (*models.CleanedDataset, error) {
	if len(rows) == 0 {
		return nil, &InputError{Err: ErrEmptyFile}
	}
	header := rows[0]
	dataRows := rows[1:]

	dateIdx, _ := resolveColumn(header, DateColumnCandidates)
	if dateIdx == -1 {
		return nil, newInputError(ErrMissingDateColumn, "header: %v", header)
	}
	demandIdx, _ := resolveColumn(header, DemandColumnCandidates)
	if demandIdx == -1 {
		return nil, newInputError(ErrMissingDemandColumn, "header: %v", header)
	}
	productIdx, productColumn := resolveColumn(header, ProductColumnCandidates)
	if productIdx == -1 {
		return nil, newInputError(ErrNoProductColumn, "header: %v", header)
	}
	customerIdx, _ := resolveColumn(header, CustomerColumnCandidates)

	l.logger.Debug("🔍 [列検出] 列インデックス",
		zap.Strings("header", header),
		zap.Int("date", dateIdx),
		zap.Int("demand", demandIdx),
		zap.String("product_column", productColumn),
		zap.Int("product", productIdx),
		zap.Int("customer", customerIdx),
	)

	records := make([]models.SalesRecord, 0, len(dataRows))
	for _, row := range dataRows {
		date, ok := parseDate(cell(row, dateIdx), excelDates)
		if !ok {
			continue
		}
		demand, ok := parseDemand(cell(row, demandIdx))
		if !ok {
			continue
		}
		product := cell(row, productIdx)
		if product == "" {
			continue
		}
		rec := models.SalesRecord{Date: date, Product: product, Demand: demand}
		if customerIdx != -1 {
			rec.Customer = cell(row, customerIdx)
		}
		records = append(records, rec)
	}

	dropped := len(dataRows) - len(records)
	l.metrics.RowsLoadedTotal.Add(float64(len(records)))
	l.metrics.RowsDroppedTotal.Add(float64(dropped))

	if len(records) == 0 {
		return nil, newInputError(ErrNoValidRows, "%d data rows, all dropped", len(dataRows))
	}

	l.logger.Info("📊 販売データ読み込み完了",
		zap.String("file", fileName),
		zap.String("product_column", productColumn),
		zap.Int("rows", len(dataRows)),
		zap.Int("kept", len(records)),
		zap.Int("dropped", dropped),
	)

	return &models.CleanedDataset{
		FileName:      fileName,
		ProductColumn: productColumn,
		HasCustomer:   customerIdx != -1,
		Records:       records,
		TotalRows:     len(dataRows),
		DroppedRows:   dropped,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDate 日→月の順で日付を解釈する。Excelのシリアル値にも対応
func parseDate(s string, excelSerial bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return toDay(t), true
		}
	}
	if excelSerial {
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return toDay(t), true
			}
		}
	}
	return time.Time{}, false
}

// parseDemand 数値に変換できない値・負の値は除外
func parseDemand(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func toDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DescribeInputError ユーザー向けのエラーメッセージ
func DescribeInputError(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return "Please upload a CSV file to get started."
	case errors.Is(err, ErrMissingDateColumn):
		return fmt.Sprintf("Failed to parse your 'Date' column: %v", err)
	case errors.Is(err, ErrNoProductColumn):
		return "No product column found (need Product_ID/Product_Code/Product_Category)."
	default:
		return err.Error()
	}
}
