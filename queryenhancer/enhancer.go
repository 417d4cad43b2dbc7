// Package queryenhancer rewrites structured search requests with knowledge
// graph expansions: alias OR clauses, intent filter defaults and a fan-out
// of alternative strategies for parallel execution.
package queryenhancer

import (
	"strings"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
)

const (
	baseConfidence         = 0.5
	interventionConfidence = 0.3
	conditionConfidence    = 0.2

	// Alternative strategies are less certain than the request itself
	competitiveFactor     = 0.8
	therapeuticAreaFactor = 0.6

	defaultSort = "LastUpdatePostDate:desc"
)

// defaultFields is the projection requested when the caller sets none.
var defaultFields = []string{
	"NCTId",
	"BriefTitle",
	"OverallStatus",
	"Phase",
	"Condition",
	"InterventionName",
	"LeadSponsorName",
	"StartDate",
	"LastUpdatePostDate",
}

// intentFilters are overlaid on unset filter fields.
var intentFilters = map[entities.Intent]entities.SearchFilter{
	entities.IntentCompetitiveAnalysis: {
		Phase:         []string{"PHASE2", "PHASE3"},
		OverallStatus: []string{"RECRUITING", "ACTIVE_NOT_RECRUITING"},
	},
	entities.IntentSafetyMonitoring: {
		OverallStatus: []string{"COMPLETED", "TERMINATED", "SUSPENDED"},
	},
	entities.IntentDrugDevelopment: {
		OverallStatus: []string{"RECRUITING", "ACTIVE_NOT_RECRUITING", "NOT_YET_RECRUITING"},
	},
}

// Compile-time check to ensure Enhancer implements QueryEnhancer
var _ interfaces.QueryEnhancer = (*Enhancer)(nil)

type Enhancer struct {
	graph interfaces.GraphReader
}

func NewEnhancer(graph interfaces.GraphReader) *Enhancer {
	return &Enhancer{graph: graph}
}

// resolution is what Enhance learned about the request terms.
type resolution struct {
	intervention *entities.DrugEntity
	condition    *entities.DrugEntity
	indicationID entities.NodeID
	competitors  []entities.DrugEntity
}

// Enhance expands the intervention and condition of params through the
// graph. When neither resolves the request is returned unchanged with the
// exact strategy and a confidence of 0.5.
func (e *Enhancer) Enhance(params entities.SearchParams, sctx *entities.ScoringContext) entities.EnhancedQuery {
	q, _ := e.enhance(params, sctx)
	return q
}

func (e *Enhancer) enhance(params entities.SearchParams, sctx *entities.ScoringContext) (entities.EnhancedQuery, resolution) {
	res := e.resolve(params, sctx)

	out := entities.EnhancedQuery{
		OriginalQuery:  params.Clone(),
		EnhancedQuery:  params.Clone(),
		Expansions:     emptyExpansions(),
		SearchStrategy: entities.StrategyExact,
		Confidence:     baseConfidence,
	}
	if res.intervention == nil && res.condition == nil {
		return out, res
	}

	confidence := baseConfidence
	if node := res.intervention; node != nil {
		out.EnhancedQuery.Query.Intervention = AliasClause(*node)
		out.Expansions.DrugExpansions = names(*node)
		out.Expansions.RelatedSearches = append(out.Expansions.RelatedSearches, node.TherapeuticAreas...)
		for _, c := range res.competitors {
			out.Expansions.CompetitorSuggestions = append(out.Expansions.CompetitorSuggestions, c.Name)
		}
		confidence += interventionConfidence
	}
	if node := res.condition; node != nil {
		out.EnhancedQuery.Query.Condition = AliasClause(*node)
		out.Expansions.IndicationExpansions = names(*node)
		confidence += conditionConfidence
	}
	out.SearchStrategy = entities.StrategyExpanded
	out.Confidence = clamp01(confidence)

	if sctx != nil {
		overlayIntent(&out.EnhancedQuery.Filter, sctx.Intent)
	}
	applyDefaults(&out.EnhancedQuery, params, out.SearchStrategy)
	return out, res
}

func (e *Enhancer) resolve(params entities.SearchParams, sctx *entities.ScoringContext) resolution {
	var res resolution

	if term := strings.TrimSpace(params.Query.Condition); term != "" {
		if node, ok := e.lookup(term); ok {
			res.condition = &node
			if node.IsIndication() {
				res.indicationID = node.ID
			}
		} else {
			logging.Debug("Condition not in knowledge graph, searching the literal term", "condition", term)
		}
	}
	if res.indicationID == "" && sctx != nil && sctx.PrimaryIndication != "" {
		if id, ok := e.graph.Resolve(sctx.PrimaryIndication); ok {
			res.indicationID = id
		}
	}

	if term := strings.TrimSpace(params.Query.Intervention); term != "" {
		if node, ok := e.lookup(term); ok {
			res.intervention = &node
			ids, err := e.graph.CompetitorsOf(node.ID, res.indicationID)
			if err != nil {
				logging.Warn("Failed to look up competitors", "drug", node.ID, "error", err)
			}
			for _, id := range ids {
				if c, ok := e.graph.Node(id); ok {
					res.competitors = append(res.competitors, c)
				}
			}
		} else {
			logging.Debug("Intervention not in knowledge graph, searching the literal term", "intervention", term)
		}
	}
	return res
}

func (e *Enhancer) lookup(term string) (entities.DrugEntity, bool) {
	id, ok := e.graph.Resolve(term)
	if !ok {
		return entities.DrugEntity{}, false
	}
	return e.graph.Node(id)
}

// GenerateStrategies returns the base enhancement followed by one
// competitive strategy per competitor of the resolved intervention and one
// therapeutic-area strategy per area of that intervention. Nothing but the
// base is returned when the intervention does not resolve.
func (e *Enhancer) GenerateStrategies(params entities.SearchParams, sctx *entities.ScoringContext) []entities.EnhancedQuery {
	base, res := e.enhance(params, sctx)
	strategies := []entities.EnhancedQuery{base}
	if res.intervention == nil {
		return strategies
	}

	for _, competitor := range res.competitors {
		q := derive(base, params, entities.StrategyCompetitive, competitiveFactor)
		q.EnhancedQuery.Query.Intervention = AliasClause(competitor)
		q.Expansions.DrugExpansions = names(competitor)
		q.Expansions.CompetitorSuggestions = []string{res.intervention.Name}
		strategies = append(strategies, q)
	}

	for _, area := range res.intervention.TherapeuticAreas {
		if strings.TrimSpace(area) == "" {
			continue
		}
		q := derive(base, params, entities.StrategyTherapeuticArea, therapeuticAreaFactor)
		if cond := q.EnhancedQuery.Query.Condition; cond != "" {
			q.EnhancedQuery.Query.Condition = cond + " OR " + quote(area)
		} else {
			q.EnhancedQuery.Query.Condition = quote(area)
		}
		q.Expansions.RelatedSearches = []string{area}
		strategies = append(strategies, q)
	}
	return strategies
}

// derive copies base into a new strategy. The page size is recomputed for
// the strategy unless the caller set one.
func derive(base entities.EnhancedQuery, params entities.SearchParams, strategy entities.SearchStrategy, factor float64) entities.EnhancedQuery {
	q := entities.EnhancedQuery{
		OriginalQuery:  params.Clone(),
		EnhancedQuery:  base.EnhancedQuery.Clone(),
		Expansions:     emptyExpansions(),
		SearchStrategy: strategy,
		Confidence:     clamp01(base.Confidence * factor),
	}
	q.EnhancedQuery.PageSize = params.PageSize
	applyDefaults(&q.EnhancedQuery, params, strategy)
	return q
}

// AliasClause builds an OR expression over the display name and every
// alias of node. Multi-word terms are quoted.
func AliasClause(node entities.DrugEntity) string {
	terms := names(node)
	for i, t := range terms {
		terms[i] = quote(t)
	}
	return strings.Join(terms, " OR ")
}

// names returns the display name followed by the aliases, without
// duplicates under normalization.
func names(node entities.DrugEntity) []string {
	seen := make(map[string]struct{}, len(node.Aliases)+1)
	out := make([]string, 0, len(node.Aliases)+1)
	for _, n := range append([]string{node.Name}, node.Aliases...) {
		n = strings.TrimSpace(n)
		key := entities.NormalizeName(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

func quote(term string) string {
	if strings.ContainsAny(term, " \t") {
		return `"` + strings.ReplaceAll(term, `"`, "") + `"`
	}
	return term
}

func overlayIntent(filter *entities.SearchFilter, intent entities.Intent) {
	defaults, ok := intentFilters[intent]
	if !ok {
		return
	}
	if len(filter.Phase) == 0 && len(defaults.Phase) > 0 {
		filter.Phase = append([]string(nil), defaults.Phase...)
	}
	if len(filter.OverallStatus) == 0 && len(defaults.OverallStatus) > 0 {
		filter.OverallStatus = append([]string(nil), defaults.OverallStatus...)
	}
	if len(filter.StudyType) == 0 && len(defaults.StudyType) > 0 {
		filter.StudyType = append([]string(nil), defaults.StudyType...)
	}
}

// applyDefaults fills unset paging, sort and projection fields.
func applyDefaults(p *entities.SearchParams, original entities.SearchParams, strategy entities.SearchStrategy) {
	if original.PageSize <= 0 {
		p.PageSize = DefaultPageSize(strategy)
	}
	if len(p.Sort) == 0 {
		p.Sort = []string{defaultSort}
	}
	if len(p.Fields) == 0 {
		p.Fields = append([]string(nil), defaultFields...)
	}
}

// DefaultPageSize is the page size used when the caller sets none.
func DefaultPageSize(strategy entities.SearchStrategy) int {
	switch strategy {
	case entities.StrategyCompetitive:
		return 50
	case entities.StrategyExpanded:
		return 30
	default:
		return 20
	}
}

func emptyExpansions() entities.Expansions {
	return entities.Expansions{
		DrugExpansions:        []string{},
		IndicationExpansions:  []string{},
		CompetitorSuggestions: []string{},
		RelatedSearches:       []string{},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
