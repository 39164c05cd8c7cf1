package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"demand-forecast-api/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestLoader() (*SalesLoader, *metrics.Collector) {
	c := metrics.NewCollector("test")
	return NewSalesLoader(zap.NewNop(), c), c
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadCSVDropsInvalidRows(t *testing.T) {
	loader, c := newTestLoader()
	input := strings.Join([]string{
		"Product_Code,Warehouse,Product_Category,Date,Order_Demand",
		"P1,W1,C1,15/01/2024,100",
		"P1,W1,C1,16/01/2024,(50)",
		"P2,W1,C2,not a date,10",
		"P2,W1,C2,17/01/2024,-5",
		"P2,W1,C2,17/01/2024,7.5",
		",W1,C2,18/01/2024,3",
		"P3,W1,C3,,3",
	}, "\n")

	ds, err := loader.Load(strings.NewReader(input), "sales.csv")
	require.NoError(t, err)

	assert.Equal(t, "Product_Code", ds.ProductColumn)
	assert.False(t, ds.HasCustomer)
	assert.Equal(t, 7, ds.TotalRows)
	assert.Equal(t, 5, ds.DroppedRows)
	require.Len(t, ds.Records, 2)

	assert.Equal(t, "P1", ds.Records[0].Product)
	assert.Equal(t, date(2024, 1, 15), ds.Records[0].Date)
	assert.Equal(t, 100.0, ds.Records[0].Demand)
	assert.Equal(t, "P2", ds.Records[1].Product)
	assert.Equal(t, 7.5, ds.Records[1].Demand)

	for _, rec := range ds.Records {
		assert.GreaterOrEqual(t, rec.Demand, 0.0)
		assert.NotEmpty(t, rec.Product)
		assert.False(t, rec.Date.IsZero())
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RowsLoadedTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.RowsDroppedTotal))
}

func TestProductColumnPriority(t *testing.T) {
	loader, _ := newTestLoader()

	tests := []struct {
		name   string
		header string
		row    string
		want   string
		key    string
	}{
		{"id wins over code", "Product_Code,Product_ID,Date,Order_Demand", "CODE,ID,01/02/2024,1", "Product_ID", "ID"},
		{"code wins over category", "Product_Category,Product_Code,Date,Order_Demand", "CAT,CODE,01/02/2024,1", "Product_Code", "CODE"},
		{"category only", "Product_Category,Date,Order_Demand", "CAT,01/02/2024,1", "Product_Category", "CAT"},
		{"case-insensitive header", "product_id,DATE,order_demand", "ID,01/02/2024,1", "Product_ID", "ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := loader.Load(strings.NewReader(tt.header+"\n"+tt.row), "x.csv")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ds.ProductColumn)
			require.Len(t, ds.Records, 1)
			assert.Equal(t, tt.key, ds.Records[0].Product)
			assert.Equal(t, date(2024, 2, 1), ds.Records[0].Date)
		})
	}
}

func TestLoadFatalErrors(t *testing.T) {
	loader, _ := newTestLoader()

	tests := []struct {
		name     string
		input    string
		fileName string
		want     error
	}{
		{"missing date", "Product_ID,Order_Demand\nP1,1", "a.csv", ErrMissingDateColumn},
		{"missing demand", "Product_ID,Date\nP1,01/01/2024", "a.csv", ErrMissingDemandColumn},
		{"no product column", "Warehouse,Date,Order_Demand\nW1,01/01/2024,1", "a.csv", ErrNoProductColumn},
		{"empty file", "", "a.csv", ErrEmptyFile},
		{"no valid rows", "Product_ID,Date,Order_Demand\nP1,bad,1\nP2,01/01/2024,-1", "a.csv", ErrNoValidRows},
		{"unsupported format", "whatever", "a.pdf", ErrUnsupportedFormat},
		{"malformed csv", "Product_ID,Date,Order_Demand\n\"P1,01/01/2024,1", "a.csv", ErrMalformedFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := loader.Load(strings.NewReader(tt.input), tt.fileName)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, IsInputError(err))
		})
	}
}

func TestLoadNilReader(t *testing.T) {
	loader, _ := newTestLoader()
	_, err := loader.Load(nil, "a.csv")
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, "Please upload a CSV file to get started.", DescribeInputError(err))
}

func TestLoadStripsBOMAndReadsCustomer(t *testing.T) {
	loader, _ := newTestLoader()
	input := "\uFEFFDate,Product_ID,Customer_ID,Order_Demand\n2024-03-01,P1,C9,4\n"

	ds, err := loader.Load(strings.NewReader(input), "bom.csv")
	require.NoError(t, err)
	assert.True(t, ds.HasCustomer)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "C9", ds.Records[0].Customer)
	assert.Equal(t, date(2024, 3, 1), ds.Records[0].Date)
}

func TestParseDateDayFirst(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"03/04/2024", date(2024, 4, 3), true},
		{"3/4/2024", date(2024, 4, 3), true},
		{"2024-04-03", date(2024, 4, 3), true},
		{"2024/4/3", date(2024, 4, 3), true},
		{"03.04.2024", date(2024, 4, 3), true},
		{"03/04/2024 13:45", date(2024, 4, 3), true},
		{"12/25/2020", date(2020, 12, 25), true},
		{"31/02/2024", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in, false)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// Excelのシリアル値はxlsx読み込み時のみ解釈する
	_, ok := parseDate("45306", false)
	assert.False(t, ok)
	got, ok := parseDate("45306", true)
	assert.True(t, ok)
	assert.Equal(t, date(2024, 1, 15), got)
}

func TestParseDemand(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{"0", 0, true},
		{"12.5", 12.5, true},
		{"-1", 0, false},
		{"(100)", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDemand(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Product_Code", "Date", "Order_Demand"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"P1", date(2024, 1, 15), 100}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"P1", "16/01/2024", 50}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"P2", "17/01/2024", -3}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	loader, _ := newTestLoader()
	ds, err := loader.Load(&buf, "sales.xlsx")
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, date(2024, 1, 15), ds.Records[0].Date)
	assert.Equal(t, 100.0, ds.Records[0].Demand)
	assert.Equal(t, date(2024, 1, 16), ds.Records[1].Date)
	assert.Equal(t, 1, ds.DroppedRows)
}

func TestLoadRows(t *testing.T) {
	loader, _ := newTestLoader()
	ds, err := loader.LoadRows("rows", [][]string{
		{"Date", "Product_Category", "Order_Demand"},
		{"01/01/2024", "C1", "3"},
		{"02/01/2024", "C1"},
	})
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
	assert.Equal(t, 1, ds.DroppedRows)
}
