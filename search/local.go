package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
)

var _ interfaces.SearchExecutor = (*LocalExecutor)(nil)

// LocalExecutor answers searches from an in-memory set of registry records,
// such as a JSON export of trial records. It understands the OR clauses
// built by the query enhancer: a record matches a clause when one of the
// clause terms appears in the matching field as a whole word sequence.
// Every clause and filter that is set must match. Location and study type
// are not carried by records and are ignored.
type LocalExecutor struct {
	records []entities.Record
}

func NewLocalExecutor(records []entities.Record) *LocalExecutor {
	return &LocalExecutor{records: records}
}

// DecodeRecords reads a JSON array of records.
func DecodeRecords(r io.Reader) ([]entities.Record, error) {
	var records []entities.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// Execute returns the matching records in input order, at most PageSize of
// them when a page size is set.
func (l *LocalExecutor) Execute(ctx context.Context, params entities.SearchParams) ([]entities.Record, error) {
	m := newMatcher(params)

	var out []entities.Record
	for i, r := range l.records {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !m.match(r) {
			continue
		}
		out = append(out, r)
		if params.PageSize > 0 && len(out) >= params.PageSize {
			break
		}
	}
	return out, nil
}

// ParseClause splits an OR expression into its terms, dropping quotes.
func ParseClause(clause string) []string {
	var terms []string
	for _, part := range strings.Split(clause, " OR ") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

type matcher struct {
	interventions []string
	conditions    []string
	titles        []string
	sponsors      []string
	ids           map[string]struct{}
	phases        []string
	statuses      []string
}

func newMatcher(params entities.SearchParams) matcher {
	m := matcher{
		interventions: normalizeAll(ParseClause(params.Query.Intervention)),
		conditions:    normalizeAll(ParseClause(params.Query.Condition)),
		titles:        normalizeAll(ParseClause(params.Query.Title)),
		sponsors:      normalizeAll(ParseClause(params.Query.Sponsor)),
		phases:        canonicalAll(params.Filter.Phase, entities.CanonicalPhase),
		statuses:      canonicalAll(params.Filter.OverallStatus, entities.CanonicalStatus),
	}
	if len(params.Query.IDs) > 0 {
		m.ids = make(map[string]struct{}, len(params.Query.IDs))
		for _, id := range params.Query.IDs {
			m.ids[strings.ToUpper(strings.TrimSpace(id))] = struct{}{}
		}
	}
	return m
}

func (m matcher) match(r entities.Record) bool {
	if m.ids != nil {
		if _, ok := m.ids[strings.ToUpper(r.ID)]; !ok {
			return false
		}
	}
	return containsAny(r.Interventions, m.interventions) &&
		containsAny(r.Conditions, m.conditions) &&
		containsAny([]string{r.Title}, m.titles) &&
		containsAny([]string{r.SponsorName}, m.sponsors) &&
		equalsAny(r.Phases, m.phases, entities.CanonicalPhase) &&
		equalsAny([]string{r.Status}, m.statuses, entities.CanonicalStatus)
}

// containsAny reports whether a term occurs in one of the fields. Fields and
// terms are normalized, so "Acetylsalicylic acid 81 mg" contains
// "acetylsalicylic acid" but "Nasal spray" does not contain "ASA". No terms
// means no constraint.
func containsAny(fields, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, f := range fields {
		padded := "_" + entities.NormalizeName(f) + "_"
		for _, t := range terms {
			if strings.Contains(padded, "_"+t+"_") {
				return true
			}
		}
	}
	return false
}

// equalsAny compares canonical forms, so a "PHASE2" filter matches a record
// in "Phase 2".
func equalsAny(fields, values []string, canonical func(string) string) bool {
	if len(values) == 0 {
		return true
	}
	for _, f := range fields {
		nf := canonical(f)
		for _, v := range values {
			if nf == v {
				return true
			}
		}
	}
	return false
}

func canonicalAll(values []string, canonical func(string) string) []string {
	var out []string
	for _, v := range values {
		if c := canonical(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func normalizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		if n := entities.NormalizeName(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
