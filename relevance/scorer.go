// Package relevance ranks fetched search records against a scoring context.
//
// A score is the weighted sum of five factors (drug, indication, phase,
// status and sponsor), each in [0,100]. The drug and indication factors use
// the knowledge graph for alias, competitor and related-condition matching.
// Scoring is deterministic and holds no mutable state.
package relevance

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
)

// Compile-time check to ensure Scorer implements RelevanceScorer
var _ interfaces.RelevanceScorer = (*Scorer)(nil)

type Scorer struct {
	graph       interfaces.GraphReader
	majorPharma []string
}

type Option func(*Scorer)

// WithMajorPharma adds sponsor names to the major pharma list.
func WithMajorPharma(names ...string) Option {
	return func(s *Scorer) {
		for _, name := range names {
			if n := entities.NormalizeName(name); n != "" {
				s.majorPharma = append(s.majorPharma, n)
			}
		}
	}
}

func NewScorer(graph interfaces.GraphReader, opts ...Option) *Scorer {
	s := &Scorer{
		graph:       graph,
		majorPharma: slices.Clone(defaultMajorPharma),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the factor weights in factor order. They sum to 1.
func Weights() []float64 {
	return []float64{
		percent(drugWeight),
		percent(indicationWeight),
		percent(phaseWeight),
		percent(statusWeight),
		percent(sponsorWeight),
	}
}

func percent(p int) float64 {
	return float64(p) / 100
}

// Score computes the relevance of one record.
func (s *Scorer) Score(record entities.Record, sctx entities.ScoringContext) entities.RelevanceScore {
	return s.plan(sctx).score(record)
}

// ScoreAll scores every record and sorts them by descending score. Records
// with equal scores keep their input order.
func (s *Scorer) ScoreAll(records []entities.Record, sctx entities.ScoringContext) []entities.ScoredRecord {
	p := s.plan(sctx)

	type indexed struct {
		index  int
		scored entities.ScoredRecord
	}
	ranked := make([]indexed, len(records))
	for i, r := range records {
		ranked[i] = indexed{index: i, scored: entities.ScoredRecord{Record: r, RelevanceScore: p.score(r)}}
	}

	slices.SortFunc(ranked, func(a, b indexed) int {
		return cmp.Or(
			cmp.Compare(b.scored.RelevanceScore.Score, a.scored.RelevanceScore.Score),
			cmp.Compare(a.index, b.index),
		)
	})

	out := make([]entities.ScoredRecord, len(ranked))
	for i, r := range ranked {
		out[i] = r.scored
	}
	return out
}

// target is a resolved context term: the node when it resolves, and the
// normalized names any record text may match.
type target struct {
	raw   string
	id    entities.NodeID
	node  entities.DrugEntity
	known bool
	names []string
}

// scoringPlan holds everything derived from the context once, so ScoreAll
// resolves the primary drug and its competitors a single time.
type scoringPlan struct {
	s      *Scorer
	sctx   entities.ScoringContext
	intent entities.Intent

	drug        *target
	indication  *target
	competitors map[entities.NodeID]struct{}
	related     map[entities.NodeID]struct{}
	relatedText []string
	userCompany string
}

func (s *Scorer) plan(sctx entities.ScoringContext) *scoringPlan {
	p := &scoringPlan{
		s:           s,
		sctx:        sctx,
		intent:      sctx.Intent,
		userCompany: entities.NormalizeName(sctx.UserCompany),
	}
	if !p.intent.Valid() || p.intent == "" {
		p.intent = entities.IntentGeneral
	}

	if strings.TrimSpace(sctx.PrimaryIndication) != "" {
		p.indication = s.resolveTarget(sctx.PrimaryIndication)
		p.related = make(map[entities.NodeID]struct{})
		if p.indication.known {
			for _, name := range p.indication.node.RelatedConditions {
				if id, ok := s.graph.Resolve(name); ok {
					p.related[id] = struct{}{}
				}
				p.relatedText = append(p.relatedText, entities.NormalizeName(name))
			}
		}
	}

	if strings.TrimSpace(sctx.PrimaryDrug) != "" {
		p.drug = s.resolveTarget(sctx.PrimaryDrug)
		p.competitors = make(map[entities.NodeID]struct{})
		if p.drug.known {
			var indicationID entities.NodeID
			if p.indication != nil && p.indication.known {
				indicationID = p.indication.id
			}
			competitors, err := s.graph.CompetitorsOf(p.drug.id, indicationID)
			if err == nil {
				for _, c := range competitors {
					p.competitors[c] = struct{}{}
				}
			}
		}
	}
	return p
}

func (s *Scorer) resolveTarget(term string) *target {
	t := &target{raw: term}
	if id, ok := s.graph.Resolve(term); ok {
		if node, ok := s.graph.Node(id); ok {
			t.id = id
			t.node = node
			t.known = true
			t.names = append(t.names, entities.NormalizeName(node.Name))
			for _, alias := range node.Aliases {
				t.names = append(t.names, entities.NormalizeName(alias))
			}
		}
	}
	if !t.known {
		t.names = []string{entities.NormalizeName(term)}
	}
	return t
}

// resolveRecordTerm resolves a record intervention or condition. Registry
// values such as "Drug: Aspirin" are tried without their type prefix.
func (s *Scorer) resolveRecordTerm(term string) (entities.DrugEntity, bool) {
	candidates := []string{term}
	if i := strings.LastIndex(term, ":"); i >= 0 && i < len(term)-1 {
		candidates = append(candidates, term[i+1:])
	}
	for _, c := range candidates {
		if id, ok := s.graph.Resolve(c); ok {
			if node, ok := s.graph.Node(id); ok {
				return node, true
			}
		}
	}
	return entities.DrugEntity{}, false
}

func (p *scoringPlan) score(record entities.Record) entities.RelevanceScore {
	factors := []entities.ScoreFactor{
		p.drugFactor(record),
		p.indicationFactor(record),
		p.phaseFactor(record),
		p.statusFactor(record),
		p.sponsorFactor(record),
	}

	weights := []int{drugWeight, indicationWeight, phaseWeight, statusWeight, sponsorWeight}
	weighted := 0
	for i := range factors {
		factors[i].Weight = percent(weights[i])
		weighted += factors[i].Score * weights[i]
	}
	// Round half up; weighted is non-negative
	total := (weighted + 50) / 100

	category := categorize(total)
	return entities.RelevanceScore{
		Score:       total,
		Factors:     factors,
		Category:    category,
		Explanation: explain(total, category, factors),
	}
}

func (p *scoringPlan) drugFactor(record entities.Record) entities.ScoreFactor {
	f := entities.ScoreFactor{Name: "drug"}
	if p.drug == nil {
		f.Score, f.Reason = neutralScore, "no primary drug in context"
		return f
	}

	f.Score, f.Reason = drugUnrelated, "no intervention related to "+p.sctx.PrimaryDrug
	for _, intervention := range record.Interventions {
		text := entities.NormalizeName(intervention)
		if _, ok := containsAny(text, p.drug.names); ok {
			f.Score, f.Reason = drugExactMatch, fmt.Sprintf("intervention %q matches %s", intervention, p.sctx.PrimaryDrug)
			return f
		}

		node, ok := p.s.resolveRecordTerm(intervention)
		if !ok {
			continue
		}
		if p.drug.known && node.ID == p.drug.id {
			f.Score, f.Reason = drugExactMatch, fmt.Sprintf("intervention %q matches %s", intervention, p.sctx.PrimaryDrug)
			return f
		}
		if _, competitor := p.competitors[node.ID]; competitor && f.Score < drugCompetitor {
			f.Score, f.Reason = drugCompetitor, fmt.Sprintf("intervention %q is a competitor of %s", intervention, p.sctx.PrimaryDrug)
			continue
		}
		if p.drug.known && f.Score < drugSameMechanism && sameMechanism(node.Mechanism, p.drug.node.Mechanism) {
			f.Score, f.Reason = drugSameMechanism, fmt.Sprintf("intervention %q shares the mechanism of %s", intervention, p.sctx.PrimaryDrug)
		}
	}
	return f
}

func sameMechanism(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func (p *scoringPlan) indicationFactor(record entities.Record) entities.ScoreFactor {
	f := entities.ScoreFactor{Name: "indication"}
	if p.indication == nil {
		f.Score, f.Reason = neutralScore, "no primary indication in context"
		return f
	}

	f.Score, f.Reason = indicationOther, "no condition related to "+p.sctx.PrimaryIndication
	for _, condition := range record.Conditions {
		text := entities.NormalizeName(condition)
		if _, ok := containsAny(text, p.indication.names); ok {
			f.Score, f.Reason = indicationExact, fmt.Sprintf("condition %q matches %s", condition, p.sctx.PrimaryIndication)
			return f
		}
		if _, ok := containsAny(text, p.relatedText); ok && f.Score < indicationRelated {
			f.Score, f.Reason = indicationRelated, fmt.Sprintf("condition %q is related to %s", condition, p.sctx.PrimaryIndication)
			continue
		}

		node, ok := p.s.resolveRecordTerm(condition)
		if !ok || !p.indication.known {
			continue
		}
		if node.ID == p.indication.id {
			f.Score, f.Reason = indicationExact, fmt.Sprintf("condition %q matches %s", condition, p.sctx.PrimaryIndication)
			return f
		}
		if f.Score >= indicationRelated {
			continue
		}
		_, related := p.related[node.ID]
		if related || p.s.graph.Connected(node.ID, p.indication.id) {
			f.Score, f.Reason = indicationRelated, fmt.Sprintf("condition %q is related to %s", condition, p.sctx.PrimaryIndication)
			continue
		}
		if f.Score < indicationSameArea {
			if area, ok := sharedArea(node.TherapeuticAreas, p.indication.node.TherapeuticAreas); ok {
				f.Score, f.Reason = indicationSameArea, fmt.Sprintf("condition %q shares therapeutic area %s", condition, area)
			}
		}
	}
	return f
}

func sharedArea(a, b []string) (string, bool) {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return x, true
			}
		}
	}
	return "", false
}

func (p *scoringPlan) phaseFactor(record entities.Record) entities.ScoreFactor {
	f := entities.ScoreFactor{Name: "phase", Score: neutralScore, Reason: "no phase preference"}
	table := phaseScores[p.intent]
	if table == nil {
		return f
	}

	best := -1
	for _, phase := range record.Phases {
		if v, ok := table[entities.CanonicalPhase(phase)]; ok && v > best {
			best = v
			f.Reason = fmt.Sprintf("%s suits %s", phase, p.intent)
		}
	}
	if best >= 0 {
		f.Score = best
	}
	return f
}

func (p *scoringPlan) statusFactor(record entities.Record) entities.ScoreFactor {
	f := entities.ScoreFactor{Name: "status", Score: neutralScore, Reason: "no status preference"}
	if v, ok := statusScores[p.intent][entities.CanonicalStatus(record.Status)]; ok {
		f.Score = v
		f.Reason = fmt.Sprintf("status %s for %s", record.Status, p.intent)
	}
	return f
}

func (p *scoringPlan) sponsorFactor(record entities.Record) entities.ScoreFactor {
	f := entities.ScoreFactor{Name: "sponsor"}
	sponsor := entities.NormalizeName(record.SponsorName)

	switch {
	case sponsor != "" && p.userCompany != "" && containsTerm(sponsor, p.userCompany):
		f.Score, f.Reason = sponsorUserCompany, "sponsored by your company"
	case containsTermList(sponsor, governmentKeywords):
		f.Score, f.Reason = sponsorGovernment, "government sponsor"
	case containsTermList(sponsor, p.s.majorPharma):
		f.Score, f.Reason = sponsorMajorPharma, "major pharmaceutical sponsor"
	case containsTermList(sponsor, academicKeywords):
		f.Score, f.Reason = sponsorAcademic, "academic sponsor"
	default:
		f.Score, f.Reason = sponsorOther, "other sponsor"
	}
	return f
}

func containsTermList(text string, terms []string) bool {
	_, ok := containsAny(text, terms)
	return ok
}

func categorize(score int) entities.RelevanceCategory {
	switch {
	case score >= 80:
		return entities.CategoryHighlyRelevant
	case score >= 60:
		return entities.CategoryRelevant
	case score >= 40:
		return entities.CategorySomewhatRelevant
	default:
		return entities.CategoryNotRelevant
	}
}

func explain(score int, category entities.RelevanceCategory, factors []entities.ScoreFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%s %d: %s", f.Name, f.Score, f.Reason)
	}
	return fmt.Sprintf("score %d (%s); %s", score, category, strings.Join(parts, "; "))
}
