package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fd1az/swap-aggregator/internal/logger"
)

func TestPrometheusServer_ExposesOtelCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := NewMetricProvider(
		WithServiceName("swap-test"),
		WithRegisterer(reg),
		WithProviderConfig(NewPrometheusConfig()),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider() error = %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("quotes_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 2)

	srv := NewPrometheusServer(logger.New(io.Discard, logger.LevelError, "test", nil), reg)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quotes_total") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
