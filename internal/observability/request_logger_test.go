package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

// requestCount reads archiver_http_requests_total for the given labels.
func requestCount(t *testing.T, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "archiver_http_requests_total" {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRequestLogger_RecordsErrorStatus(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), NewMetrics()))
	app.Get("/logger-missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})
	app.Get("/logger-ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for _, path := range []string{"/logger-missing", "/logger-ok"} {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil)); err != nil {
			t.Fatal(err)
		}
	}

	if got := requestCount(t, map[string]string{"path": "/logger-missing", "status": "404"}); got != 1 {
		t.Errorf("expected one 404 for failed request, got %v", got)
	}
	if got := requestCount(t, map[string]string{"path": "/logger-missing", "status": "200"}); got != 0 {
		t.Errorf("failed request counted as 200 (%v)", got)
	}
	if got := requestCount(t, map[string]string{"path": "/logger-ok", "status": "200"}); got != 1 {
		t.Errorf("expected one 200, got %v", got)
	}
}
