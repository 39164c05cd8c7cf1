package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"demand-forecast-api/pkg/forecaster"
	"demand-forecast-api/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPipeline() *ForecastPipeline {
	c := metrics.NewCollector("test")
	log := zap.NewNop()
	return NewForecastPipeline(
		NewSalesLoader(log, c),
		NewStatisticsService(),
		NewDemandForecastService(forecaster.NewAdditive(forecaster.DefaultOptions()), log, c, ForecastOptions{Workers: 2}),
		log,
	)
}

// salesCSV 製品ごとに連続した日付の定数需要を持つCSV
func salesCSV(days map[string]int, demand int) string {
	var b strings.Builder
	b.WriteString("Product_Code,Warehouse,Product_Category,Date,Order_Demand\n")
	for _, p := range []string{"A", "B", "C"} {
		for i := 0; i < days[p]; i++ {
			d := date(2024, 1, 1).AddDate(0, 0, i)
			fmt.Fprintf(&b, "%s,W1,Cat,%s,%d\n", p, d.Format("02/01/2006"), demand)
		}
	}
	return b.String()
}

func TestPipelineDefaultSelection(t *testing.T) {
	p := newTestPipeline()
	input := salesCSV(map[string]int{"A": 20, "B": 20, "C": 20}, 5)

	out, err := p.Run(context.Background(), PipelineInput{File: strings.NewReader(input), FileName: "s.csv", Months: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, out.Request.Products)
	assert.Equal(t, []string{"A", "B"}, out.Forecast.Succeeded)
	assert.Equal(t, 3, out.Summary.TotalProducts)
	assert.NotEmpty(t, out.Buckets)
	for _, b := range out.Buckets {
		assert.NotEqual(t, "C", b.Product)
	}
}

func TestPipelineFailureIsolation(t *testing.T) {
	p := newTestPipeline()
	input := salesCSV(map[string]int{"A": 1, "B": 60}, 3)

	out, err := p.Run(context.Background(), PipelineInput{
		File:     strings.NewReader(input),
		FileName: "s.csv",
		Products: []string{"A", "B"},
		Months:   1,
	})
	require.NoError(t, err)
	require.Len(t, out.Forecast.Failures, 1)
	assert.Equal(t, "A", out.Forecast.Failures[0].Product)
	require.NotEmpty(t, out.Buckets)
	for _, b := range out.Buckets {
		assert.Equal(t, "B", b.Product)
	}
}

func TestPipelineExplicitEmptySelection(t *testing.T) {
	p := newTestPipeline()
	input := salesCSV(map[string]int{"A": 5}, 1)

	_, err := p.Run(context.Background(), PipelineInput{
		File:     strings.NewReader(input),
		FileName: "s.csv",
		Products: []string{},
		Months:   3,
	})
	assert.True(t, errors.Is(err, ErrEmptySelection))
}

func TestPipelineFatalInput(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Run(context.Background(), PipelineInput{
		File:     strings.NewReader("Warehouse,Date,Order_Demand\nW1,01/01/2024,1\n"),
		FileName: "s.csv",
		Months:   3,
	})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.ErrorIs(t, err, ErrNoProductColumn)
}
