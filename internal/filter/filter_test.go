package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/model"
)

func TestParseCriterionRejectsMalformed(t *testing.T) {
	_, err := ParseCriterion("bogus")
	assert.Error(t, err)

	_, err = ParseCriterion("status=")
	assert.Error(t, err)

	_, err = ParseCriterion("nope=value")
	assert.Error(t, err)
}

func TestValidateCriteriaRejectsDuplicateScalar(t *testing.T) {
	criteria := []Criterion{{Field: FieldImpact, Value: "high"}, {Field: FieldImpact, Value: "low"}}
	assert.Error(t, ValidateCriteria(criteria))
}

func TestValidateCriteriaAllowsDistinctTags(t *testing.T) {
	criteria := []Criterion{{Field: FieldTag, Value: "backend"}, {Field: FieldTag, Value: "urgent"}}
	assert.NoError(t, ValidateCriteria(criteria))
}

func TestValidateCriteriaRejectsDuplicateTagValue(t *testing.T) {
	criteria := []Criterion{{Field: FieldTag, Value: "backend"}, {Field: FieldTag, Value: "backend"}}
	assert.Error(t, ValidateCriteria(criteria))
}

func TestMatchesOptionalFieldNeverMatchesAbsent(t *testing.T) {
	it := model.Item{}
	assert.False(t, Matches(Criterion{Field: FieldImpact, Value: "high"}, it))
}

func TestMatchesTag(t *testing.T) {
	it := model.Item{Tags: []string{"backend", "urgent"}}
	assert.True(t, Matches(Criterion{Field: FieldTag, Value: "urgent"}, it))
	assert.False(t, Matches(Criterion{Field: FieldTag, Value: "frontend"}, it))
}

// S4 — multi-criteria filter with no matches.
func TestS4MultiCriteriaNoMatch(t *testing.T) {
	items := []model.Item{
		{ID: "A", Impact: model.LevelHigh, Size: model.SizeLarge},
		{ID: "B", Impact: model.LevelLow, Size: model.SizeSmall},
	}
	criteria, err := ParseAll([]string{"impact=high", "size=small"})
	require.NoError(t, err)
	filtered := Apply(criteria, items)
	assert.Empty(t, filtered)
	assert.Equal(t, "impact=high AND size=small", FormatCriteria(criteria))
}

func TestApplyEmptyCriteriaPassesAll(t *testing.T) {
	items := []model.Item{{ID: "A"}, {ID: "B"}}
	assert.Len(t, Apply(nil, items), 2)
}
