// Package interfaces defines core abstractions for the pharmasearch API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/pharmasearch/entities"
)

// GraphReader is the read side of the knowledge graph. It is what the query
// enhancer and the relevance scorer depend on.
type GraphReader interface {
	// Resolve maps a name or alias to its canonical node id
	Resolve(nameOrAlias string) (entities.NodeID, bool)
	Node(id entities.NodeID) (entities.DrugEntity, bool)

	// Traversals
	RelatedTo(id entities.NodeID, opts entities.RelatedOptions) ([]entities.Related, error)
	ShortestPath(source, target entities.NodeID, opts entities.PathOptions) (entities.Path, bool, error)
	CompetitorsOf(id, indicationID entities.NodeID) ([]entities.NodeID, error)
	Connected(a, b entities.NodeID, types ...entities.RelationshipType) bool

	Cluster(opts entities.ClusterOptions) []entities.Cluster
	Analytics() entities.GraphStats
	NodeCount() int
	EdgeCount() int
}

// KnowledgeGraph adds the mutation API. Every mutation is serialized by the
// implementation; reads may run concurrently with each other.
type KnowledgeGraph interface {
	GraphReader

	AddNode(entity entities.DrugEntity) (entities.NodeID, error)
	AddEdge(source, target string, relType entities.RelationshipType, strength float64, props entities.EdgeProperties) (entities.EdgeID, error)
	AddCompetitiveMapping(mapping entities.CompetitiveMapping) error

	// DynamicUpdate merges a partial entity when confidence passes the
	// configured threshold. Low confidence is a no-op reported in the result.
	DynamicUpdate(partial entities.DrugEntity, source string, confidence float64) (entities.UpdateResult, error)
}

// QueryEnhancer rewrites search requests using the knowledge graph.
type QueryEnhancer interface {
	Enhance(params entities.SearchParams, sctx *entities.ScoringContext) entities.EnhancedQuery
	GenerateStrategies(params entities.SearchParams, sctx *entities.ScoringContext) []entities.EnhancedQuery
}

// RelevanceScorer ranks fetched records against a scoring context.
type RelevanceScorer interface {
	Score(record entities.Record, sctx entities.ScoringContext) entities.RelevanceScore
	ScoreAll(records []entities.Record, sctx entities.ScoringContext) []entities.ScoredRecord
}

// SearchExecutor runs one search request against an external data source
// such as a clinical trials registry. Implementations own their HTTP client,
// response cache and pagination.
type SearchExecutor interface {
	Execute(ctx context.Context, params entities.SearchParams) ([]entities.Record, error)
}

// StatsStore keeps the latest analytics snapshot of the graph with atomic
// operations for lock-free reads.
type StatsStore interface {
	GetStats() entities.GraphStats
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateStats(stats entities.GraphStats)
	SetRefreshDuration(d time.Duration)
	BeginUpdate() bool
	EndUpdate()
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	// Knowledge graph endpoints
	ResolveName(w http.ResponseWriter, r *http.Request)
	GetNode(w http.ResponseWriter, r *http.Request)
	GetRelated(w http.ResponseWriter, r *http.Request)
	GetCompetitors(w http.ResponseWriter, r *http.Request)
	GetShortestPath(w http.ResponseWriter, r *http.Request)
	GetClusters(w http.ResponseWriter, r *http.Request)
	GetAnalytics(w http.ResponseWriter, r *http.Request)
	PostDynamicUpdate(w http.ResponseWriter, r *http.Request)

	// Query and relevance endpoints
	PostEnhance(w http.ResponseWriter, r *http.Request)
	PostStrategies(w http.ResponseWriter, r *http.Request)
	PostScore(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// EntityValidator defines the contract for entity and input validation.
type EntityValidator interface {
	// ValidateEntity checks a graph node before insertion or after a merge
	ValidateEntity(e *entities.DrugEntity) error

	// ValidateInput validates user input strings
	ValidateInput(input string) error

	ValidateSearchParams(p *entities.SearchParams) error
}
