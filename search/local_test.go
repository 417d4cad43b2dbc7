package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/queryenhancer"
	"github.com/giygas/pharmasearch/relevance"
)

var registryExport = []entities.Record{
	{ID: "NCT-ASA", Title: "Low dose aspirin after stroke", Interventions: []string{"Acetylsalicylic acid 81 mg"}, Conditions: []string{"Pain"}, Phases: []string{"PHASE3"}, Status: "RECRUITING", SponsorName: "Bayer"},
	{ID: "NCT-IBU", Title: "Ibuprofen in knee osteoarthritis", Interventions: []string{"Ibuprofen"}, Conditions: []string{"Osteoarthritis"}, Phases: []string{"PHASE2"}, Status: "COMPLETED", SponsorName: "Pfizer"},
	{ID: "NCT-NASAL", Title: "Nasal spray tolerability", Interventions: []string{"Nasal spray"}, Conditions: []string{"Rhinitis"}, Phases: []string{"PHASE1"}, Status: "RECRUITING", SponsorName: "Somebody"},
	{ID: "NCT-PEMBRO", Title: "Pembrolizumab in melanoma", Interventions: []string{"Keytruda"}, Conditions: []string{"Melanoma"}, Phases: []string{"PHASE3"}, Status: "ACTIVE_NOT_RECRUITING", SponsorName: "Merck & Co."},
}

func ids(records []entities.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestParseClause(t *testing.T) {
	assert.Equal(t, []string{"Aspirin", "acetylsalicylic acid", "ASA"}, ParseClause(`Aspirin OR "acetylsalicylic acid" OR ASA`))
	assert.Equal(t, []string{"pain"}, ParseClause(`"pain"`))
	assert.Nil(t, ParseClause(""))
	assert.Nil(t, ParseClause(`  ""  `))
}

func TestLocalExecutorMatching(t *testing.T) {
	exec := NewLocalExecutor(registryExport)

	tests := []struct {
		name   string
		params entities.SearchParams
		want   []string
	}{
		{
			name:   "alias clause matches whole words",
			params: entities.SearchParams{Query: entities.SearchQuery{Intervention: `Aspirin OR "acetylsalicylic acid" OR ASA`}},
			want:   []string{"NCT-ASA"},
		},
		{
			name:   "brand name",
			params: entities.SearchParams{Query: entities.SearchQuery{Intervention: "Keytruda OR pembrolizumab"}},
			want:   []string{"NCT-PEMBRO"},
		},
		{
			name: "clauses are combined",
			params: entities.SearchParams{Query: entities.SearchQuery{
				Intervention: "Ibuprofen OR Aspirin OR ASA",
				Condition:    `"osteoarthritis"`,
			}},
			want: []string{"NCT-IBU"},
		},
		{
			name:   "phase and status filters",
			params: entities.SearchParams{Filter: entities.SearchFilter{Phase: []string{"PHASE3"}, OverallStatus: []string{"RECRUITING"}}},
			want:   []string{"NCT-ASA"},
		},
		{
			name:   "sponsor and title",
			params: entities.SearchParams{Query: entities.SearchQuery{Sponsor: "merck", Title: "melanoma"}},
			want:   []string{"NCT-PEMBRO"},
		},
		{
			name:   "ids",
			params: entities.SearchParams{Query: entities.SearchQuery{IDs: []string{"nct-ibu", "NCT-MISSING"}}},
			want:   []string{"NCT-IBU"},
		},
		{
			name:   "page size",
			params: entities.SearchParams{Filter: entities.SearchFilter{Phase: []string{"PHASE3", "PHASE1"}}, PageSize: 2},
			want:   []string{"NCT-ASA", "NCT-NASAL"},
		},
		{
			name:   "no match",
			params: entities.SearchParams{Query: entities.SearchQuery{Intervention: "unknownium"}},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.Execute(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestLocalExecutorCanonicalFilters(t *testing.T) {
	exec := NewLocalExecutor([]entities.Record{
		{ID: "NCT-SPELLED", Phases: []string{"Phase 2"}, Status: "Active, not recruiting"},
		{ID: "NCT-SNAKE", Phases: []string{"phase_2"}, Status: "active_not_recruiting"},
		{ID: "NCT-EARLY", Phases: []string{"Early Phase 1"}, Status: "Recruiting"},
	})

	// The filters written by the competitive analysis intent
	got, err := exec.Execute(context.Background(), entities.SearchParams{Filter: entities.SearchFilter{
		Phase:         []string{"PHASE2", "PHASE3"},
		OverallStatus: []string{"RECRUITING", "ACTIVE_NOT_RECRUITING"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NCT-SPELLED", "NCT-SNAKE"}, ids(got))

	got, err = exec.Execute(context.Background(), entities.SearchParams{Filter: entities.SearchFilter{Phase: []string{"EARLY_PHASE1"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NCT-EARLY"}, ids(got))
}

func TestLocalExecutorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalExecutor(registryExport).Execute(ctx, entities.SearchParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeRecords(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(`[{"id":"NCT1","interventions":["Aspirin"]}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Aspirin"}, records[0].Interventions)

	_, err = DecodeRecords(strings.NewReader(`{"id":"NCT1"}`))
	assert.ErrorContains(t, err, "failed to decode records")
}

func TestSearchOverLocalExport(t *testing.T) {
	g, err := knowledgegraph.NewSeeded(nil)
	require.NoError(t, err)
	o := NewOrchestrator(queryenhancer.NewEnhancer(g), relevance.NewScorer(g), NewLocalExecutor(registryExport))

	res, err := o.Search(context.Background(), entities.SearchParams{Query: entities.SearchQuery{Intervention: "aspirin"}}, nil)
	require.NoError(t, err)

	assert.Len(t, res.Strategies, 7)
	got := make([]string, len(res.Records))
	for i, r := range res.Records {
		got[i] = r.Record.ID
	}
	// The competitive strategy for ibuprofen finds the second trial
	assert.ElementsMatch(t, []string{"NCT-ASA", "NCT-IBU"}, got)
}
