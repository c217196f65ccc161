package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/bread-types/:id/cost", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/bread-types/b-001/cost", "/bread-types/b-002/cost", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/bread-types/:id/cost", "200")); got != 2 {
		t.Fatalf("expected 2 requests on route template, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}

func TestObserveIssuesAndRuns(t *testing.T) {
	m := New()
	m.ObserveIssues([]costing.Issue{
		{Kind: costing.IssueMissingReference, NodeKind: costing.KindIngredient, Ref: "x"},
		{Kind: costing.IssueMissingReference, NodeKind: costing.KindDough, Ref: "y"},
		{Kind: costing.IssueCyclicReference, NodeKind: costing.KindDough, Ref: "z"},
	})
	m.ObserveRun("COMPLETED")

	if got := testutil.ToFloat64(m.catalogIssues.WithLabelValues("missing_reference")); got != 2 {
		t.Errorf("expected 2 missing_reference, got %v", got)
	}
	if got := testutil.ToFloat64(m.purchaseRuns.WithLabelValues("COMPLETED")); got != 1 {
		t.Errorf("expected 1 completed run, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveIssues([]costing.Issue{{Kind: costing.IssueCyclicReference}})
	nilMetrics.ObserveRun("FAILED")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRun("FAILED")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `bakery_purchase_runs_total{status="FAILED"} 1`) {
		t.Fatalf("expected purchase run counter in output:\n%s", w.Body.String())
	}
}
