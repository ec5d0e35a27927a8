package filter

import "github.com/orcd/orcd/internal/model"

// Matches dispatches on criterion.Field. Optional dimension fields
// (size, impact, risk, complexity, pipeline_type) never match an item
// whose value is the absence sentinel (empty string).
func Matches(c Criterion, item model.Item) bool {
	switch c.Field {
	case FieldStatus:
		return string(item.Status) == c.Value
	case FieldImpact:
		return item.Impact != "" && string(item.Impact) == c.Value
	case FieldSize:
		return item.Size != "" && string(item.Size) == c.Value
	case FieldRisk:
		return item.Risk != "" && string(item.Risk) == c.Value
	case FieldComplexity:
		return item.Complexity != "" && string(item.Complexity) == c.Value
	case FieldPipelineType:
		return item.PipelineType != "" && item.PipelineType == c.Value
	case FieldTag:
		return item.HasTag(c.Value)
	default:
		return false
	}
}

// MatchesAll reports whether item satisfies every criterion (AND).
// Empty criteria means every item passes.
func MatchesAll(criteria []Criterion, item model.Item) bool {
	for _, c := range criteria {
		if !Matches(c, item) {
			return false
		}
	}
	return true
}

// Apply returns only the items in items that satisfy every criterion.
func Apply(criteria []Criterion, items []model.Item) []model.Item {
	if len(criteria) == 0 {
		return items
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if MatchesAll(criteria, it) {
			out = append(out, it)
		}
	}
	return out
}
