package services

import (
	"bytes"
	"strings"
	"testing"

	"demand-forecast-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleBuckets = []models.AggregatedBucket{
	{Month: "2024-01", Period: 1, Product: "A", Yhat: 100, YhatLower: 80, YhatUpper: 120},
	{Month: "2024-01", Period: 3, Product: "Product, with comma", Yhat: 0, YhatLower: 0, YhatUpper: 4},
	{Month: "2024-02", Period: 2, Product: "B", Yhat: 1234567890123, YhatLower: 0, YhatUpper: 1234567890124},
}

func TestWriteForecastCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, sampleBuckets[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Month,10-day Period,Product,yhat,yhat_lower,yhat_upper", lines[0])
	assert.Equal(t, "2024-01,1,A,100,80,120", lines[1])
}

func TestForecastCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, sampleBuckets))

	got, err := ParseForecastCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleBuckets, got)
}

func TestForecastCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, nil))
	got, err := ParseForecastCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseForecastCSVErrors(t *testing.T) {
	_, err := ParseForecastCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseForecastCSV(strings.NewReader("a,b,c,d,e,f\n"))
	assert.Error(t, err)

	_, err = ParseForecastCSV(strings.NewReader("Month,10-day Period,Product,yhat,yhat_lower,yhat_upper\n2024-01,x,A,1,1,1\n"))
	assert.Error(t, err)

	_, err = ParseForecastCSV(strings.NewReader("Month,10-day Period,Product,yhat,yhat_lower,yhat_upper\n2024-01,1,A,1.5,1,1\n"))
	assert.Error(t, err)
}

func TestWriteForecastXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastXLSX(&buf, sampleBuckets))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ForecastSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ForecastCSVHeader, rows[0])
	assert.Equal(t, []string{"2024-01", "1", "A", "100", "80", "120"}, rows[1])
}
