// Package validation provides entity and user input validation for the pharmasearch API.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
)

const (
	MinNameLength      = 2
	MinMechanismLength = 5
	MaxNameLength      = 200
	MaxInputLength     = 100
	MaxInputWords      = 8
	MaxPageSize        = 1000
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Input validation: letters (any script, accents included), digits and the
	// punctuation found in drug and condition names
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+',()/]+$`)

	// strings.Contains is much faster than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// LDAP injection patterns
		"*)(", "*|(", "*)%",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// Compile-time check to ensure EntityValidatorImpl implements EntityValidator
var _ interfaces.EntityValidator = (*EntityValidatorImpl)(nil)

// EntityValidatorImpl implements the interfaces.EntityValidator interface
type EntityValidatorImpl struct{}

// NewEntityValidator creates a new entity validator
func NewEntityValidator() interfaces.EntityValidator {
	return &EntityValidatorImpl{}
}

var defaultValidator = &EntityValidatorImpl{}

// ValidateEntity validates e with the default validator.
func ValidateEntity(e *entities.DrugEntity) error {
	return defaultValidator.ValidateEntity(e)
}

// ValidateInput validates a user supplied term with the default validator.
func ValidateInput(input string) error {
	return defaultValidator.ValidateInput(input)
}

// ValidateEntity checks that a node carries the fields the graph relies on.
// Drug nodes need a mechanism and a developer; indication nodes only need a
// name and at least one therapeutic area.
func (v *EntityValidatorImpl) ValidateEntity(e *entities.DrugEntity) error {
	if e == nil {
		return &entities.ValidationError{Reason: "entity is nil"}
	}

	name := strings.TrimSpace(e.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return &entities.ValidationError{Field: "name", Reason: fmt.Sprintf("must be at least %d characters", MinNameLength)}
	}
	if len(name) > MaxNameLength {
		return &entities.ValidationError{Field: "name", Reason: fmt.Sprintf("too long: %d characters", len(name))}
	}
	if entities.NormalizeName(name) == "" {
		return &entities.ValidationError{Field: "name", Reason: "must contain letters or digits"}
	}

	switch e.Kind {
	case entities.KindDrug, entities.KindIndication:
	default:
		return &entities.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown node kind %q", e.Kind)}
	}

	if len(nonBlank(e.TherapeuticAreas)) == 0 {
		return &entities.ValidationError{Field: "therapeuticAreas", Reason: "at least one therapeutic area is required"}
	}

	if e.Kind == entities.KindDrug {
		if utf8.RuneCountInString(strings.TrimSpace(e.Mechanism)) < MinMechanismLength {
			return &entities.ValidationError{Field: "mechanism", Reason: fmt.Sprintf("must be at least %d characters", MinMechanismLength)}
		}
		if e.Company == nil || strings.TrimSpace(e.Company.Name) == "" {
			return &entities.ValidationError{Field: "company", Reason: "developer company is required"}
		}
	}

	c := e.Metadata.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return &entities.ValidationError{Field: "metadata.confidence", Reason: "must be within [0,1]"}
	}

	return nil
}

// ValidateInput validates user input strings such as names taken from URL paths
func (v *EntityValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return &entities.ValidationError{Field: "input", Reason: "input cannot be empty"}
	}

	if utf8.RuneCountInString(input) < MinNameLength {
		return &entities.ValidationError{Field: "input", Reason: fmt.Sprintf("input too short: minimum %d characters", MinNameLength)}
	}

	if len(input) > MaxInputLength {
		return &entities.ValidationError{Field: "input", Reason: fmt.Sprintf("input too long: maximum %d characters", MaxInputLength)}
	}

	// Word count validation to prevent DoS attacks with many short words
	if len(strings.Fields(input)) > MaxInputWords {
		return &entities.ValidationError{Field: "input", Reason: fmt.Sprintf("search query too complex: maximum %d words allowed", MaxInputWords)}
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return &entities.ValidationError{Field: "input", Reason: "input contains potentially dangerous content"}
		}
	}

	if !inputRegex.MatchString(input) {
		return &entities.ValidationError{Field: "input", Reason: "input contains invalid characters. Only letters, numbers, spaces and - . + ' , ( ) / are allowed"}
	}

	if v.hasExcessiveRepetition(input) {
		return &entities.ValidationError{Field: "input", Reason: "input contains excessive character repetition"}
	}

	return nil
}

// ValidateSearchParams rejects requests the enhancer and executors cannot serve
func (v *EntityValidatorImpl) ValidateSearchParams(p *entities.SearchParams) error {
	if p == nil {
		return &entities.ValidationError{Reason: "search params are nil"}
	}
	if p.PageSize < 0 || p.PageSize > MaxPageSize {
		return &entities.ValidationError{Field: "pageSize", Reason: fmt.Sprintf("must be between 0 and %d", MaxPageSize)}
	}
	for _, term := range []struct{ field, value string }{
		{"query.intervention", p.Query.Intervention},
		{"query.condition", p.Query.Condition},
	} {
		if term.value == "" {
			continue
		}
		if err := v.ValidateInput(term.value); err != nil {
			return fmt.Errorf("%s: %w", term.field, err)
		}
	}
	return nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times consecutively
func (v *EntityValidatorImpl) hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
