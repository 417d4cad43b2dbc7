package entities

// SearchQuery holds the free-text clauses of a search request.
type SearchQuery struct {
	Condition    string   `json:"condition,omitempty"`
	Intervention string   `json:"intervention,omitempty"`
	Title        string   `json:"title,omitempty"`
	Sponsor      string   `json:"sponsor,omitempty"`
	Location     string   `json:"location,omitempty"`
	IDs          []string `json:"ids,omitempty"`
}

type SearchFilter struct {
	OverallStatus []string `json:"overallStatus,omitempty"`
	Phase         []string `json:"phase,omitempty"`
	StudyType     []string `json:"studyType,omitempty"`
}

// SearchParams is the structured request consumed by the query enhancer and
// by search executors.
type SearchParams struct {
	Query     SearchQuery  `json:"query"`
	Filter    SearchFilter `json:"filter"`
	Sort      []string     `json:"sort,omitempty"`
	PageSize  int          `json:"pageSize,omitempty"`
	PageToken string       `json:"pageToken,omitempty"`
	Fields    []string     `json:"fields,omitempty"`
}

// Clone deep-copies the params.
func (p SearchParams) Clone() SearchParams {
	out := p
	out.Query.IDs = cloneStrings(p.Query.IDs)
	out.Filter.OverallStatus = cloneStrings(p.Filter.OverallStatus)
	out.Filter.Phase = cloneStrings(p.Filter.Phase)
	out.Filter.StudyType = cloneStrings(p.Filter.StudyType)
	out.Sort = cloneStrings(p.Sort)
	out.Fields = cloneStrings(p.Fields)
	return out
}

type Intent string

const (
	IntentCompetitiveAnalysis Intent = "competitive_analysis"
	IntentDrugDevelopment     Intent = "drug_development"
	IntentSafetyMonitoring    Intent = "safety_monitoring"
	IntentMarketResearch      Intent = "market_research"
	IntentGeneral             Intent = "general"
)

// Valid reports whether i is a known intent. The empty intent is treated as general.
func (i Intent) Valid() bool {
	switch i {
	case "", IntentCompetitiveAnalysis, IntentDrugDevelopment, IntentSafetyMonitoring,
		IntentMarketResearch, IntentGeneral:
		return true
	}
	return false
}

type ScoringContext struct {
	PrimaryDrug       string `json:"primaryDrug,omitempty"`
	PrimaryIndication string `json:"primaryIndication,omitempty"`
	Intent            Intent `json:"intent,omitempty"`
	UserCompany       string `json:"userCompany,omitempty"`
}

// Record is the minimal projection of a search result the scorer needs.
type Record struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title,omitempty"`
	Interventions []string `json:"interventions"`
	Conditions    []string `json:"conditions"`
	Phases        []string `json:"phases"`
	Status        string   `json:"status"`
	SponsorName   string   `json:"sponsorName"`
}

type SearchStrategy string

const (
	StrategyExact           SearchStrategy = "exact"
	StrategyExpanded        SearchStrategy = "expanded"
	StrategyCompetitive     SearchStrategy = "competitive"
	StrategyTherapeuticArea SearchStrategy = "therapeutic_area"
)

type Expansions struct {
	DrugExpansions        []string `json:"drugExpansions"`
	IndicationExpansions  []string `json:"indicationExpansions"`
	CompetitorSuggestions []string `json:"competitorSuggestions"`
	RelatedSearches       []string `json:"relatedSearches"`
}

type EnhancedQuery struct {
	OriginalQuery  SearchParams   `json:"originalQuery"`
	EnhancedQuery  SearchParams   `json:"enhancedQuery"`
	Expansions     Expansions     `json:"expansions"`
	SearchStrategy SearchStrategy `json:"searchStrategy"`
	Confidence     float64        `json:"confidence"`
}

type RelevanceCategory string

const (
	CategoryHighlyRelevant   RelevanceCategory = "highly_relevant"
	CategoryRelevant         RelevanceCategory = "relevant"
	CategorySomewhatRelevant RelevanceCategory = "somewhat_relevant"
	CategoryNotRelevant      RelevanceCategory = "not_relevant"
)

// ScoreFactor is one weighted component of a relevance score.
type ScoreFactor struct {
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason"`
}

type RelevanceScore struct {
	Score       int               `json:"score"`
	Factors     []ScoreFactor     `json:"factors"`
	Category    RelevanceCategory `json:"category"`
	Explanation string            `json:"explanation"`
}

type ScoredRecord struct {
	Record         Record         `json:"record"`
	RelevanceScore RelevanceScore `json:"relevanceScore"`
}
