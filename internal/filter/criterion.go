// Package filter implements the --only filter expression: parsing,
// validation, and matching against backlog items.
package filter

import (
	"fmt"
	"strings"
)

// Field names a filterable BacklogItem attribute.
type Field string

const (
	FieldStatus       Field = "status"
	FieldImpact       Field = "impact"
	FieldSize         Field = "size"
	FieldRisk         Field = "risk"
	FieldComplexity   Field = "complexity"
	FieldTag          Field = "tag"
	FieldPipelineType Field = "pipeline_type"
)

var validFields = map[Field]bool{
	FieldStatus: true, FieldImpact: true, FieldSize: true,
	FieldRisk: true, FieldComplexity: true, FieldTag: true,
	FieldPipelineType: true,
}

// Criterion is one parsed KEY=VALUE clause from --only.
type Criterion struct {
	Field Field
	Value string
}

// String renders the criterion the way it was typed, for use in
// FormatCriteria's " AND "-joined summary.
func (c Criterion) String() string {
	return fmt.Sprintf("%s=%s", c.Field, c.Value)
}

// ParseCriterion parses a single "KEY=VALUE" clause.
func ParseCriterion(s string) (Criterion, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Criterion{}, fmt.Errorf("invalid --only criterion %q, expected KEY=VALUE", s)
	}
	field := Field(strings.ToLower(strings.TrimSpace(parts[0])))
	if !validFields[field] {
		return Criterion{}, fmt.Errorf("--only: unknown field %q", field)
	}
	return Criterion{Field: field, Value: strings.TrimSpace(parts[1])}, nil
}

// ValidateCriteria rejects contradictory AND expressions: duplicate
// scalar fields (impact=high AND impact=low) and identical tag-value
// pairs (tag=x AND tag=x). Multiple distinct tag values are permitted
// since an item carries a set of tags and all must match (AND).
func ValidateCriteria(criteria []Criterion) error {
	seenScalar := make(map[Field]bool)
	seenTagValue := make(map[string]bool)

	for _, c := range criteria {
		if c.Field == FieldTag {
			if seenTagValue[c.Value] {
				return fmt.Errorf("--only: duplicate tag criterion %q", c.Value)
			}
			seenTagValue[c.Value] = true
			continue
		}
		if seenScalar[c.Field] {
			return fmt.Errorf("--only: contradictory criteria for field %q", c.Field)
		}
		seenScalar[c.Field] = true
	}
	return nil
}

// ParseAll parses and validates a full --only flag set.
func ParseAll(raw []string) ([]Criterion, error) {
	criteria := make([]Criterion, 0, len(raw))
	for _, s := range raw {
		c, err := ParseCriterion(s)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	if err := ValidateCriteria(criteria); err != nil {
		return nil, err
	}
	return criteria, nil
}

// FormatCriteria joins criteria with " AND "; empty input yields "".
func FormatCriteria(criteria []Criterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
