package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"demand-forecast-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// ダウンロード成果物
const (
	ForecastCSVFileName     = "forecast_data.csv"
	ForecastCSVContentType  = "text/csv"
	ForecastXLSXFileName    = "forecast_data.xlsx"
	ForecastXLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ForecastSheetName       = "Forecast"
)

// ForecastCSVHeader 出力CSVのヘッダー行
var ForecastCSVHeader = []string{"Month", "10-day Period", "Product", "yhat", "yhat_lower", "yhat_upper"}

func bucketRecord(b models.AggregatedBucket) []string {
	return []string{
		b.Month,
		strconv.Itoa(b.Period),
		b.Product,
		strconv.FormatInt(b.Yhat, 10),
		strconv.FormatInt(b.YhatLower, 10),
		strconv.FormatInt(b.YhatUpper, 10),
	}
}

// WriteForecastCSV writes buckets in the order given, preceded by the header row.
func WriteForecastCSV(w io.Writer, buckets []models.AggregatedBucket) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ForecastCSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, b := range buckets {
		if err := writer.Write(bucketRecord(b)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseForecastCSV reads a file produced by WriteForecastCSV.
func ParseForecastCSV(r io.Reader) ([]models.AggregatedBucket, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("forecast csv: missing header")
	}
	if len(records[0]) != len(ForecastCSVHeader) {
		return nil, fmt.Errorf("forecast csv: unexpected header %v", records[0])
	}
	for i, h := range ForecastCSVHeader {
		if records[0][i] != h {
			return nil, fmt.Errorf("forecast csv: unexpected header %v", records[0])
		}
	}

	buckets := make([]models.AggregatedBucket, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		period, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid period %q: %w", line, rec[1], err)
		}
		var sums [3]int64
		for j := range sums {
			sums[j], err = strconv.ParseInt(rec[3+j], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q: %w", line, ForecastCSVHeader[3+j], rec[3+j], err)
			}
		}
		buckets = append(buckets, models.AggregatedBucket{
			Month:     rec[0],
			Period:    period,
			Product:   rec[2],
			Yhat:      sums[0],
			YhatLower: sums[1],
			YhatUpper: sums[2],
		})
	}
	return buckets, nil
}

// WriteForecastXLSX writes the same table to a single-sheet workbook.
func WriteForecastXLSX(w io.Writer, buckets []models.AggregatedBucket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ForecastSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(ForecastCSVHeader))
	for i, h := range ForecastCSVHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ForecastSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, b := range buckets {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{b.Month, b.Period, b.Product, b.Yhat, b.YhatLower, b.YhatUpper}
		if err := f.SetSheetRow(ForecastSheetName, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
