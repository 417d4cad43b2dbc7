package knowledgegraph

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/validation"
	"github.com/google/uuid"
)

// DynamicUpdate applies a partial entity learned at runtime.
//
// Updates whose confidence is below the configured threshold are logged and
// dropped without touching the graph; the result reports
// UpdateRejectedLowConfidence and the error is nil. Otherwise the entity is
// merged into the node its name or id resolves to (set union for list
// fields, longer value wins for scalars) or inserted as a new node. The
// merged entity is validated before anything is written, and the whole
// merge runs under the write lock so the node table and the alias index
// change together.
func (g *Graph) DynamicUpdate(partial entities.DrugEntity, source string, confidence float64) (entities.UpdateResult, error) {
	result := entities.UpdateResult{UpdateID: uuid.NewString()}

	if entities.NormalizeName(partial.Name) == "" && entities.NormalizeName(string(partial.ID)) == "" {
		err := &entities.ValidationError{Field: "name", Reason: "update must name its target node"}
		logging.Warn("Dynamic update rejected", "update_id", result.UpdateID, "source", source, "error", err)
		return result, err
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		err := &entities.ValidationError{Field: "confidence", Reason: "must be within [0,1]"}
		logging.Warn("Dynamic update rejected", "update_id", result.UpdateID, "source", source, "error", err)
		return result, err
	}

	if confidence < g.minUpdateConfidence {
		result.Outcome = entities.UpdateRejectedLowConfidence
		logging.Info("Dynamic update rejected: confidence below threshold",
			"update_id", result.UpdateID,
			"name", partial.Name,
			"source", source,
			"confidence", confidence,
			"threshold", g.minUpdateConfidence,
		)
		return result, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx, exists := g.locateLocked(partial)
	if !exists {
		entity := partial.Clone()
		entity.Metadata.Sources = appendSource(entity.Metadata.Sources, source)
		entity.Metadata.Confidence = confidence
		entity.Metadata.LastUpdated = g.now()
		if entity.Kind == "" {
			entity.Kind = entities.KindDrug
		}

		id, err := g.addNodeLocked(entity)
		if err != nil {
			logging.Warn("Dynamic update rejected", "update_id", result.UpdateID, "name", partial.Name, "source", source, "error", err)
			return result, fmt.Errorf("dynamic update %s: %w", result.UpdateID, err)
		}
		result.NodeID, result.Applied, result.Outcome = id, true, entities.UpdateCreated
		logging.Info("Dynamic update created node", "update_id", result.UpdateID, "node_id", id, "source", source, "confidence", confidence)
		return result, nil
	}

	merged := mergeEntity(g.nodes[idx], partial)
	merged.Metadata.Sources = appendSource(merged.Metadata.Sources, source)
	merged.Metadata.Confidence = math.Max(merged.Metadata.Confidence, confidence)
	merged.Metadata.LastUpdated = g.now()

	if err := validation.ValidateEntity(&merged); err != nil {
		logging.Warn("Dynamic update rejected", "update_id", result.UpdateID, "node_id", merged.ID, "source", source, "error", err)
		return result, fmt.Errorf("dynamic update %s: %w", result.UpdateID, err)
	}

	g.nodes[idx] = merged
	g.indexAliasesLocked(idx)

	result.NodeID, result.Applied, result.Outcome = merged.ID, true, entities.UpdateMerged
	logging.Info("Dynamic update merged node", "update_id", result.UpdateID, "node_id", merged.ID, "source", source, "confidence", confidence)
	return result, nil
}

// locateLocked finds the node a partial entity refers to: by id, then by
// name, then by any of its aliases.
func (g *Graph) locateLocked(partial entities.DrugEntity) (int, bool) {
	if partial.ID != "" {
		if idx, ok := g.nodeIndex[entities.NodeIDFromName(string(partial.ID))]; ok {
			return idx, true
		}
	}
	if idx, ok := g.resolveLocked(partial.Name); ok {
		return idx, true
	}
	for _, a := range partial.Aliases {
		if idx, ok := g.resolveLocked(a); ok {
			return idx, true
		}
	}
	return 0, false
}

// mergeEntity combines existing with an update. Identity fields (id, kind,
// display name) never change.
func mergeEntity(existing, update entities.DrugEntity) entities.DrugEntity {
	out := existing.Clone()

	out.Aliases = unionFold(out.Aliases, update.Aliases)
	if !strings.EqualFold(strings.TrimSpace(update.Name), out.Name) {
		out.Aliases = unionFold(out.Aliases, []string{update.Name})
	}
	out.TherapeuticAreas = unionFold(out.TherapeuticAreas, update.TherapeuticAreas)
	out.Indications = unionFold(out.Indications, update.Indications)
	out.Competitors = unionFold(out.Competitors, update.Competitors)
	out.RelatedConditions = unionFold(out.RelatedConditions, update.RelatedConditions)
	out.Metadata.Sources = unionFold(out.Metadata.Sources, update.Metadata.Sources)

	out.Mechanism = longer(out.Mechanism, update.Mechanism)
	out.Modality = longer(out.Modality, update.Modality)

	if update.Company != nil {
		if out.Company == nil {
			c := *update.Company
			out.Company = &c
		} else {
			out.Company.Name = longer(out.Company.Name, update.Company.Name)
			out.Company.Headquarters = longer(out.Company.Headquarters, update.Company.Headquarters)
			out.Company.Size = longer(out.Company.Size, update.Company.Size)
		}
	}
	return out
}

// longer returns the more specific of two values; on equal length the
// current value stays.
func longer(current, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if len([]rune(candidate)) > len([]rune(current)) {
		return candidate
	}
	return current
}

// unionFold appends the values of extra missing from base, comparing case-insensitively.
func unionFold(base, extra []string) []string {
	out := slices.Clone(base)
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if slices.ContainsFunc(out, func(existing string) bool { return strings.EqualFold(existing, v) }) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func appendSource(sources []string, source string) []string {
	if strings.TrimSpace(source) == "" {
		return sources
	}
	return unionFold(sources, []string{source})
}
