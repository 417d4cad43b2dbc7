package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/pharmasearch/entities"
)

// scrape returns the default registry in the text exposition format
func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("Expected metrics to contain %q", w)
		}
	}
}

func TestDomainMetrics(t *testing.T) {
	SetGraphSize(32, 75)
	RecordUpdate(entities.UpdateMerged)
	RecordUpdate(entities.UpdateRejectedLowConfidence)
	RecordUpdateError()
	RecordEnhancement(entities.StrategyExpanded)
	ObserveScores([]entities.ScoredRecord{
		{RelevanceScore: entities.RelevanceScore{Score: 68}},
		{RelevanceScore: entities.RelevanceScore{Score: 95}},
	})

	body := scrape(t)
	assertContains(t, body,
		"knowledge_graph_nodes 32",
		"knowledge_graph_edges 75",
		`knowledge_graph_updates_total{outcome="merged"}`,
		`knowledge_graph_updates_total{outcome="rejected_low_confidence"}`,
		`knowledge_graph_updates_total{outcome="invalid"}`,
		`query_enhancements_total{strategy="expanded"}`,
		`relevance_scores_bucket{le="70"}`,
		"relevance_scores_count",
	)
}

func TestMetricsMiddleware(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/v1/graph/nodes/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Get("/v1/graph/analytics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nodeCount":32}`))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/graph/nodes/unknownium", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/at/all", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/graph/analytics", nil))

	body := scrape(t)
	assertContains(t, body,
		`http_request_total{method="GET",path="/v1/graph/nodes/{name}",status="404"}`,
		`http_request_total{method="GET",path="unmatched",status="404"}`,
		`http_request_duration_seconds_count{method="GET",path="/v1/graph/nodes/{name}"}`,
		`http_request_total{method="GET",path="/v1/graph/analytics",status="200"}`,
		`http_response_size_bytes_sum{path="/v1/graph/analytics"} 16`,
	)
	if strings.Contains(body, "unknownium") {
		t.Error("Path parameters must not leak into metric labels")
	}
}
