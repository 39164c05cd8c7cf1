package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector("test")

	c.RowsLoadedTotal.Add(3)
	c.RowsDroppedTotal.Inc()
	c.ModelFitFailures.WithLabelValues("insufficient_data").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(c.RowsLoadedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RowsDroppedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModelFitFailures.WithLabelValues("insufficient_data")))
}

func TestCollectorsAreIsolated(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.ForecastPointsTotal.Add(10)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ForecastPointsTotal))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("demand")
	c.RowsLoadedTotal.Inc()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "demand_sales_rows_loaded_total 1")
}
