package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/pharmasearch/data"
	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/queryenhancer"
	"github.com/giygas/pharmasearch/relevance"
	"github.com/giygas/pharmasearch/validation"
)

// ============================================================================
// TEST HARNESS
// ============================================================================

type mockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.httpStatus
}

type testEnv struct {
	graph  *knowledgegraph.Graph
	store  *data.StatsContainer
	health *mockHealthChecker
	router *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	graph, err := knowledgegraph.NewSeeded(nil)
	if err != nil {
		t.Fatalf("Failed to seed graph: %v", err)
	}
	store := data.NewStatsContainer()
	health := &mockHealthChecker{status: "healthy", data: map[string]any{"nodes": graph.NodeCount()}, httpStatus: http.StatusOK}

	h := NewHTTPHandler(
		graph,
		queryenhancer.NewEnhancer(graph),
		relevance.NewScorer(graph),
		store,
		validation.NewEntityValidator(),
		health,
	)

	router := chi.NewRouter()
	router.Get("/health", h.HealthCheck)
	router.Get("/v1/graph/resolve/{name}", h.ResolveName)
	router.Get("/v1/graph/nodes/{name}", h.GetNode)
	router.Get("/v1/graph/nodes/{name}/related", h.GetRelated)
	router.Get("/v1/graph/nodes/{name}/competitors", h.GetCompetitors)
	router.Get("/v1/graph/path", h.GetShortestPath)
	router.Get("/v1/graph/clusters", h.GetClusters)
	router.Get("/v1/graph/analytics", h.GetAnalytics)
	router.Post("/v1/graph/updates", h.PostDynamicUpdate)
	router.Post("/v1/query/enhance", h.PostEnhance)
	router.Post("/v1/query/strategies", h.PostStrategies)
	router.Post("/v1/relevance/score", h.PostScore)

	return &testEnv{graph: graph, store: store, health: health, router: router}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("Expected status %d, got %d (body: %s)", want, rr.Code, rr.Body.String())
	}
}

// ============================================================================
// GRAPH LOOKUP TESTS
// ============================================================================

func TestResolveName(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		term       string
		wantStatus int
		wantID     string
	}{
		{"canonical name", "Aspirin", http.StatusOK, "aspirin"},
		{"brand alias", "Dupixent", http.StatusOK, "dupilumab"},
		{"case insensitive alias", "ECZEMA", http.StatusOK, "atopic_dermatitis"},
		{"unknown name", "unknownium", http.StatusNotFound, ""},
		{"too short", "x", http.StatusBadRequest, ""},
		{"dangerous input", "drop%20table%20drugs", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/v1/graph/resolve/"+tt.term, "")
			assertStatus(t, rr, tt.wantStatus)

			var body map[string]any
			decodeBody(t, rr, &body)
			if tt.wantStatus != http.StatusOK {
				if body["code"] != float64(tt.wantStatus) {
					t.Errorf("Expected error code %d, got %v", tt.wantStatus, body["code"])
				}
				if body["message"] == "" {
					t.Error("Expected an error message")
				}
				return
			}
			if body["id"] != tt.wantID {
				t.Errorf("Expected id %q, got %v", tt.wantID, body["id"])
			}
		})
	}
}

func TestGetNode(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/nodes/Keytruda", "")
	assertStatus(t, rr, http.StatusOK)

	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var node entities.DrugEntity
	decodeBody(t, rr, &node)
	if node.ID != "pembrolizumab" {
		t.Errorf("Expected pembrolizumab, got %s", node.ID)
	}
	if node.Company == nil || node.Company.Name != "Merck & Co." {
		t.Errorf("Expected Merck & Co. as developer, got %+v", node.Company)
	}
}

func TestGetRelated(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/nodes/aspirin/related?maxDepth=1", "")
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Node    string             `json:"node"`
		Count   int                `json:"count"`
		Related []entities.Related `json:"related"`
	}
	decodeBody(t, rr, &body)

	if body.Count != 1 || len(body.Related) != 1 {
		t.Fatalf("Expected 1 related node, got %d", body.Count)
	}
	if body.Related[0].Node.ID != "ibuprofen" {
		t.Errorf("Expected ibuprofen, got %s", body.Related[0].Node.ID)
	}
	if body.Related[0].Strength != 0.8 {
		t.Errorf("Expected strength 0.8, got %v", body.Related[0].Strength)
	}
}

func TestGetRelated_InvalidParams(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{
		"maxDepth=abc",
		"maxResults=-1",
		"minStrength=1.5",
		"types=similar_to,friends_with",
	} {
		t.Run(query, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/v1/graph/nodes/aspirin/related?"+query, "")
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestGetRelated_TypeFilter(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/nodes/dupilumab/related?maxDepth=1&types=treats", "")
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Related []entities.Related `json:"related"`
	}
	decodeBody(t, rr, &body)

	if len(body.Related) != 2 {
		t.Fatalf("Expected 2 treated indications, got %d", len(body.Related))
	}
	for _, r := range body.Related {
		if r.Edge.Type != entities.RelTreats {
			t.Errorf("Expected only treats edges, got %s", r.Edge.Type)
		}
	}
}

func TestGetCompetitors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/nodes/Dupixent/competitors?indication=eczema", "")
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Indication  string                `json:"indication"`
		Competitors []entities.DrugEntity `json:"competitors"`
	}
	decodeBody(t, rr, &body)

	if body.Indication != "atopic_dermatitis" {
		t.Errorf("Expected atopic_dermatitis, got %q", body.Indication)
	}
	want := []entities.NodeID{"lebrikizumab", "tralokinumab", "abrocitinib", "upadacitinib"}
	if len(body.Competitors) != len(want) {
		t.Fatalf("Expected %d competitors, got %d", len(want), len(body.Competitors))
	}
	for i, id := range want {
		if body.Competitors[i].ID != id {
			t.Errorf("Competitor %d: expected %s, got %s", i, id, body.Competitors[i].ID)
		}
	}
}

func TestGetCompetitors_UnknownIndication(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/nodes/Dupixent/competitors?indication=unknownitis", "")
	assertStatus(t, rr, http.StatusNotFound)
}

func TestGetShortestPath(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/path?from=aspirin&to=pain", "")
	assertStatus(t, rr, http.StatusOK)

	var path entities.Path
	decodeBody(t, rr, &path)

	want := []entities.NodeID{"aspirin", "ibuprofen", "pain"}
	if len(path.Nodes) != len(want) {
		t.Fatalf("Expected path %v, got %v", want, path.Nodes)
	}
	for i := range want {
		if path.Nodes[i] != want[i] {
			t.Errorf("Expected path %v, got %v", want, path.Nodes)
			break
		}
	}
	if path.Hops != 2 {
		t.Errorf("Expected 2 hops, got %d", path.Hops)
	}
}

func TestGetShortestPath_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"missing to", "from=aspirin", http.StatusBadRequest},
		{"unknown source", "from=unknownium&to=pain", http.StatusNotFound},
		// Edges are directed and nothing leaves Pain for Aspirin
		{"unreachable", "from=pain&to=aspirin", http.StatusNotFound},
		{"bad depth", "from=aspirin&to=pain&maxDepth=two", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/v1/graph/path?"+tt.query, "")
			assertStatus(t, rr, tt.wantStatus)
		})
	}
}

func TestGetClusters(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/clusters?type=therapeutic&minSize=2", "")
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Count    int                `json:"count"`
		Clusters []entities.Cluster `json:"clusters"`
	}
	decodeBody(t, rr, &body)

	if body.Count == 0 {
		t.Fatal("Expected at least one cluster")
	}
	for _, c := range body.Clusters {
		if c.Type != entities.ClusterTherapeutic {
			t.Errorf("Expected therapeutic clusters, got %s", c.Type)
		}
		if c.Size < 2 {
			t.Errorf("Expected clusters of at least 2 members, got %d", c.Size)
		}
	}

	rr = env.do(t, http.MethodGet, "/v1/graph/clusters?type=galaxy", "")
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestGetAnalytics(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/graph/analytics", "")
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Stats      entities.GraphStats `json:"stats"`
		LastUpdate *string             `json:"last_update"`
		Cached     bool                `json:"cached"`
	}
	decodeBody(t, rr, &body)

	if body.Cached || body.LastUpdate != nil {
		t.Error("Expected analytics computed on request before the first refresh")
	}
	if body.Stats.NodeCount != env.graph.NodeCount() {
		t.Errorf("Expected %d nodes, got %d", env.graph.NodeCount(), body.Stats.NodeCount)
	}

	env.store.UpdateStats(entities.GraphStats{NodeCount: 7})

	rr = env.do(t, http.MethodGet, "/v1/graph/analytics", "")
	assertStatus(t, rr, http.StatusOK)
	body.Cached, body.LastUpdate = false, nil
	decodeBody(t, rr, &body)

	if !body.Cached || body.LastUpdate == nil {
		t.Error("Expected the cached snapshot")
	}
	if body.Stats.NodeCount != 7 {
		t.Errorf("Expected the cached node count 7, got %d", body.Stats.NodeCount)
	}
}

// ============================================================================
// DYNAMIC UPDATE TESTS
// ============================================================================

func TestPostDynamicUpdate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantOutcome entities.UpdateOutcome
	}{
		{
			"merge alias",
			`{"entity":{"name":"Aspirin","aliases":["Disprin"]},"source":"curator","confidence":0.9}`,
			http.StatusOK, entities.UpdateMerged,
		},
		{
			"create node",
			`{"entity":{"name":"Zilebesiran","mechanism":"siRNA against angiotensinogen","therapeuticAreas":["cardiology"],"company":{"name":"Alnylam"}},"confidence":0.8}`,
			http.StatusCreated, entities.UpdateCreated,
		},
		{
			"low confidence",
			`{"entity":{"name":"Aspirin","aliases":["Aspro"]},"confidence":0.2}`,
			http.StatusOK, entities.UpdateRejectedLowConfidence,
		},
		{"incomplete new node", `{"entity":{"name":"Mysterinib"},"confidence":0.9}`, http.StatusBadRequest, ""},
		{"confidence out of range", `{"entity":{"name":"Aspirin"},"confidence":2}`, http.StatusBadRequest, ""},
		{"unknown field", `{"entity":{"name":"Aspirin"},"confidance":0.9}`, http.StatusBadRequest, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			req := httptest.NewRequest(http.MethodPost, "/v1/graph/updates", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			assertStatus(t, rr, tt.wantStatus)

			if tt.wantOutcome == "" {
				return
			}
			var result entities.UpdateResult
			decodeBody(t, rr, &result)
			if result.Outcome != tt.wantOutcome {
				t.Errorf("Expected outcome %s, got %s", tt.wantOutcome, result.Outcome)
			}
			if result.UpdateID == "" {
				t.Error("Expected an update id")
			}
		})
	}
}

func TestPostDynamicUpdate_AliasResolvable(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/graph/updates",
		`{"entity":{"name":"Aspirin","aliases":["Disprin"]},"source":"curator","confidence":0.9}`)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodGet, "/v1/graph/resolve/Disprin", "")
	assertStatus(t, rr, http.StatusOK)

	var body map[string]any
	decodeBody(t, rr, &body)
	if body["id"] != "aspirin" {
		t.Errorf("Expected Disprin to resolve to aspirin, got %v", body["id"])
	}
}

// ============================================================================
// QUERY AND RELEVANCE TESTS
// ============================================================================

func TestPostEnhance(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/query/enhance",
		`{"params":{"query":{"intervention":"aspirin"}},"context":{"intent":"competitive_analysis"}}`)
	assertStatus(t, rr, http.StatusOK)

	var q entities.EnhancedQuery
	decodeBody(t, rr, &q)

	if q.SearchStrategy != entities.StrategyExpanded {
		t.Errorf("Expected expanded strategy, got %s", q.SearchStrategy)
	}
	if !strings.Contains(q.EnhancedQuery.Query.Intervention, `"acetylsalicylic acid"`) {
		t.Errorf("Expected alias expansion, got %q", q.EnhancedQuery.Query.Intervention)
	}
	if q.OriginalQuery.Query.Intervention != "aspirin" {
		t.Errorf("Expected original query preserved, got %q", q.OriginalQuery.Query.Intervention)
	}
	if len(q.EnhancedQuery.Filter.Phase) == 0 {
		t.Error("Expected competitive analysis phase filter")
	}
}

func TestPostEnhance_PassThrough(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/query/enhance", `{"params":{"query":{"intervention":"unknownium"}}}`)
	assertStatus(t, rr, http.StatusOK)

	var q entities.EnhancedQuery
	decodeBody(t, rr, &q)

	if q.SearchStrategy != entities.StrategyExact {
		t.Errorf("Expected exact strategy, got %s", q.SearchStrategy)
	}
	if q.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %v", q.Confidence)
	}
	if q.EnhancedQuery.Query.Intervention != "unknownium" {
		t.Errorf("Expected unchanged intervention, got %q", q.EnhancedQuery.Query.Intervention)
	}
}

func TestPostEnhance_Invalid(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"bad intent":         `{"params":{"query":{"intervention":"aspirin"}},"context":{"intent":"world_domination"}}`,
		"page size too big":  `{"params":{"pageSize":5000}}`,
		"dangerous term":     `{"params":{"query":{"condition":"<script>alert(1)</script>"}}}`,
		"not json":           `intervention=aspirin`,
		"trailing documents": `{"params":{}} {"params":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/v1/query/enhance", body)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestPostStrategies(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/query/strategies", `{"params":{"query":{"intervention":"aspirin"}}}`)
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Count      int                      `json:"count"`
		Strategies []entities.EnhancedQuery `json:"strategies"`
	}
	decodeBody(t, rr, &body)

	if body.Count != 7 || len(body.Strategies) != 7 {
		t.Fatalf("Expected 7 strategies, got %d", body.Count)
	}
	if body.Strategies[0].SearchStrategy != entities.StrategyExpanded {
		t.Errorf("Expected the base strategy first, got %s", body.Strategies[0].SearchStrategy)
	}
	if body.Strategies[1].SearchStrategy != entities.StrategyCompetitive {
		t.Errorf("Expected competitive strategies after the base, got %s", body.Strategies[1].SearchStrategy)
	}
}

func TestPostScore(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"records": [
			{"id": "NCT-OTHER", "interventions": ["Pembrolizumab"], "conditions": ["Melanoma"], "phases": ["PHASE1"], "status": "WITHDRAWN", "sponsorName": "Somebody"},
			{"id": "NCT-ASA", "interventions": ["Aspirin"], "conditions": ["Pain"], "phases": ["PHASE3"], "status": "RECRUITING", "sponsorName": "Pfizer"}
		],
		"context": {"primaryDrug": "aspirin", "intent": "competitive_analysis"}
	}`
	rr := env.do(t, http.MethodPost, "/v1/relevance/score", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Count   int                     `json:"count"`
		Records []entities.ScoredRecord `json:"records"`
	}
	decodeBody(t, rr, &resp)

	if resp.Count != 2 {
		t.Fatalf("Expected 2 scored records, got %d", resp.Count)
	}
	if resp.Records[0].Record.ID != "NCT-ASA" {
		t.Errorf("Expected the aspirin trial ranked first, got %s", resp.Records[0].Record.ID)
	}
	first, second := resp.Records[0].RelevanceScore, resp.Records[1].RelevanceScore
	if first.Score <= second.Score {
		t.Errorf("Expected descending scores, got %d then %d", first.Score, second.Score)
	}
	if first.Score < 0 || first.Score > 100 {
		t.Errorf("Expected a score within [0,100], got %d", first.Score)
	}
	if len(first.Factors) != 5 {
		t.Errorf("Expected 5 factors, got %d", len(first.Factors))
	}
}

func TestPostScore_Invalid(t *testing.T) {
	env := newTestEnv(t)

	var b strings.Builder
	b.WriteString(`{"records":[`)
	for i := 0; i <= MaxScoreRecords; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"id":"x"}`)
	}
	b.WriteString(`],"context":{}}`)

	rr := env.do(t, http.MethodPost, "/v1/relevance/score", b.String())
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPost, "/v1/relevance/score", `{"records":[],"context":{"intent":"bogus"}}`)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestPostScore_Empty(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/relevance/score", `{"records":[],"context":{}}`)
	assertStatus(t, rr, http.StatusOK)

	if !strings.Contains(rr.Body.String(), `"records":[]`) {
		t.Errorf("Expected an empty records array, got %s", rr.Body.String())
	}
}

// ============================================================================
// HEALTH TESTS
// ============================================================================

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		httpStatus int
	}{
		{"healthy", "healthy", http.StatusOK},
		{"degraded", "degraded", http.StatusServiceUnavailable},
		{"unhealthy", "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.health.status, env.health.httpStatus = tt.status, tt.httpStatus
			env.store.SetServerStartTime(time.Now().Add(-90 * time.Second))

			rr := env.do(t, http.MethodGet, "/health", "")
			assertStatus(t, rr, tt.httpStatus)

			var resp HealthResponse
			decodeBody(t, rr, &resp)
			if resp.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, resp.Status)
			}
			if resp.Uptime != "1m 30s" {
				t.Errorf("Expected uptime 1m 30s, got %q", resp.Uptime)
			}
			if _, ok := resp.System["goroutines"]; !ok {
				t.Error("Expected goroutine count in system data")
			}
			if resp.Data["nodes"] != float64(env.graph.NodeCount()) {
				t.Errorf("Expected node count %d, got %v", env.graph.NodeCount(), resp.Data["nodes"])
			}
		})
	}
}
