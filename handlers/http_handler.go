// Package handlers provides HTTP request handlers for the pharmasearch API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/metrics"
)

// MaxScoreRecords bounds the records accepted by a single scoring request
const MaxScoreRecords = 1000

const defaultUpdateSource = "api"

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	graph         interfaces.KnowledgeGraph
	enhancer      interfaces.QueryEnhancer
	scorer        interfaces.RelevanceScorer
	statsStore    interfaces.StatsStore
	validator     interfaces.EntityValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	graph interfaces.KnowledgeGraph,
	enhancer interfaces.QueryEnhancer,
	scorer interfaces.RelevanceScorer,
	statsStore interfaces.StatsStore,
	validator interfaces.EntityValidator,
	healthChecker interfaces.HealthChecker,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		graph:         graph,
		enhancer:      enhancer,
		scorer:        scorer,
		statsStore:    statsStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// DynamicUpdateRequest is the body of POST /v1/graph/updates
type DynamicUpdateRequest struct {
	Entity     entities.DrugEntity `json:"entity"`
	Source     string              `json:"source"`
	Confidence float64             `json:"confidence"`
}

// QueryRequest is the body of the query enhancement endpoints
type QueryRequest struct {
	Params  entities.SearchParams    `json:"params"`
	Context *entities.ScoringContext `json:"context,omitempty"`
}

// ScoreRequest is the body of POST /v1/relevance/score
type ScoreRequest struct {
	Records []entities.Record       `json:"records"`
	Context entities.ScoringContext `json:"context"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime,omitempty"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// resolveParam validates the {name} path parameter and resolves it to a node
func (h *HTTPHandlerImpl) resolveParam(w http.ResponseWriter, r *http.Request) (entities.DrugEntity, bool) {
	return h.resolveTerm(w, chi.URLParam(r, "name"))
}

func (h *HTTPHandlerImpl) resolveTerm(w http.ResponseWriter, term string) (entities.DrugEntity, bool) {
	if err := h.validator.ValidateInput(term); err != nil {
		logging.Warn("Unusual user input", "term", term, "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return entities.DrugEntity{}, false
	}

	id, ok := h.graph.Resolve(term)
	if !ok {
		respondWithDomainError(w, &entities.NotFoundError{Term: term})
		return entities.DrugEntity{}, false
	}
	node, ok := h.graph.Node(id)
	if !ok {
		respondWithDomainError(w, &entities.NotFoundError{Term: term})
		return entities.DrugEntity{}, false
	}
	return node, true
}

// ResolveName maps a name or alias to its canonical node id
func (h *HTTPHandlerImpl) ResolveName(w http.ResponseWriter, r *http.Request) {
	node, ok := h.resolveParam(w, r)
	if !ok {
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"query": chi.URLParam(r, "name"),
		"id":    node.ID,
		"name":  node.Name,
		"kind":  node.Kind,
	})
}

// GetNode returns the node a name or alias resolves to
func (h *HTTPHandlerImpl) GetNode(w http.ResponseWriter, r *http.Request) {
	node, ok := h.resolveParam(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, node)
}

// GetRelated returns the neighborhood of a node
func (h *HTTPHandlerImpl) GetRelated(w http.ResponseWriter, r *http.Request) {
	node, ok := h.resolveParam(w, r)
	if !ok {
		return
	}

	var opts entities.RelatedOptions
	var err error
	if opts.MaxDepth, err = intParam(r, "maxDepth"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.MaxResults, err = intParam(r, "maxResults"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.MinStrength, err = floatParam(r, "minStrength"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.RelationshipTypes, err = typesParam(r); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	related, err := h.graph.RelatedTo(node.ID, opts)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if related == nil {
		related = []entities.Related{}
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"node":    node.ID,
		"count":   len(related),
		"related": related,
	})
}

// GetCompetitors returns the competitors of a drug, optionally in the
// context of the indication given by the "indication" query parameter
func (h *HTTPHandlerImpl) GetCompetitors(w http.ResponseWriter, r *http.Request) {
	node, ok := h.resolveParam(w, r)
	if !ok {
		return
	}

	var indicationID entities.NodeID
	if term := r.URL.Query().Get("indication"); term != "" {
		indication, ok := h.resolveTerm(w, term)
		if !ok {
			return
		}
		indicationID = indication.ID
	}

	ids, err := h.graph.CompetitorsOf(node.ID, indicationID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	competitors := make([]entities.DrugEntity, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.graph.Node(id); ok {
			competitors = append(competitors, c)
		}
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"node":        node.ID,
		"indication":  indicationID,
		"count":       len(competitors),
		"competitors": competitors,
	})
}

// GetShortestPath finds the shortest path between the "from" and "to" nodes
func (h *HTTPHandlerImpl) GetShortestPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		RespondWithError(w, http.StatusBadRequest, "Both from and to parameters are required")
		return
	}

	source, ok := h.resolveTerm(w, from)
	if !ok {
		return
	}
	target, ok := h.resolveTerm(w, to)
	if !ok {
		return
	}

	var opts entities.PathOptions
	var err error
	if opts.MaxDepth, err = intParam(r, "maxDepth"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.MinStrength, err = floatParam(r, "minStrength"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.RelationshipTypes, err = typesParam(r); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, found, err := h.graph.ShortestPath(source.ID, target.ID, opts)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !found {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("No path from %s to %s", source.Name, target.Name))
		return
	}

	RespondWithJSON(w, http.StatusOK, path)
}

// GetClusters groups the graph into clusters of the requested type
func (h *HTTPHandlerImpl) GetClusters(w http.ResponseWriter, r *http.Request) {
	var opts entities.ClusterOptions
	var err error

	switch t := entities.ClusterType(r.URL.Query().Get("type")); t {
	case "", entities.ClusterTherapeutic, entities.ClusterMechanism, entities.ClusterStructure, entities.ClusterIndication:
		opts.ClusterType = t
	default:
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown cluster type %q", t))
		return
	}
	if opts.MinSize, err = intParam(r, "minSize"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.MaxClusters, err = intParam(r, "maxClusters"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.MinCoherence, err = floatParam(r, "minCoherence"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	clusters := h.graph.Cluster(opts)
	if clusters == nil {
		clusters = []entities.Cluster{}
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"count":    len(clusters),
		"clusters": clusters,
	})
}

// GetAnalytics serves the analytics snapshot computed by the scheduler. The
// analytics are computed on the spot until the first refresh lands.
func (h *HTTPHandlerImpl) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	lastUpdate := h.statsStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		logging.Debug("No analytics snapshot yet, computing on request")
		RespondWithJSON(w, http.StatusOK, map[string]any{
			"stats":       h.graph.Analytics(),
			"last_update": nil,
			"cached":      false,
		})
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"stats":       h.statsStore.GetStats(),
		"last_update": lastUpdate.Format(time.RFC3339),
		"cached":      true,
	})
}

// PostDynamicUpdate merges a partial entity into the graph
func (h *HTTPHandlerImpl) PostDynamicUpdate(w http.ResponseWriter, r *http.Request) {
	var req DynamicUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.RecordUpdateError()
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultUpdateSource
	}

	result, err := h.graph.DynamicUpdate(req.Entity, source, req.Confidence)
	if err != nil {
		metrics.RecordUpdateError()
		respondWithDomainError(w, err)
		return
	}
	metrics.RecordUpdate(result.Outcome)

	code := http.StatusOK
	if result.Outcome == entities.UpdateCreated {
		code = http.StatusCreated
	}
	RespondWithJSON(w, code, result)
}

func (h *HTTPHandlerImpl) decodeQuery(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if err := h.validator.ValidateSearchParams(&req.Params); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.Context != nil && !req.Context.Intent.Valid() {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown intent %q", req.Context.Intent))
		return req, false
	}
	return req, true
}

// PostEnhance expands a search request through the knowledge graph
func (h *HTTPHandlerImpl) PostEnhance(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	enhanced := h.enhancer.Enhance(req.Params, req.Context)
	metrics.RecordEnhancement(enhanced.SearchStrategy)

	RespondWithJSON(w, http.StatusOK, enhanced)
}

// PostStrategies returns the strategy fan-out for a search request
func (h *HTTPHandlerImpl) PostStrategies(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	strategies := h.enhancer.GenerateStrategies(req.Params, req.Context)
	for _, s := range strategies {
		metrics.RecordEnhancement(s.SearchStrategy)
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"count":      len(strategies),
		"strategies": strategies,
	})
}

// PostScore ranks records against a scoring context
func (h *HTTPHandlerImpl) PostScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Records) > MaxScoreRecords {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Too many records: maximum %d allowed", MaxScoreRecords))
		return
	}
	if !req.Context.Intent.Valid() {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown intent %q", req.Context.Intent))
		return
	}

	scored := h.scorer.ScoreAll(req.Records, req.Context)
	if scored == nil {
		scored = []entities.ScoredRecord{}
	}
	metrics.ObserveScores(scored)

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"count":   len(scored),
		"records": scored,
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.healthChecker == nil {
		logging.Error("Health checker not configured", "error", errors.New("nil health checker"))
		RespondWithError(w, http.StatusServiceUnavailable, "Health checker unavailable")
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.healthChecker.HealthCheck()

	response := HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}
	if start := h.statsStore.GetServerStartTime(); !start.IsZero() {
		response.Uptime = formatUptimeHuman(time.Since(start))
	}

	RespondWithJSON(w, httpStatus, response)
}
