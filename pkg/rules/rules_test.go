package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Evaluate_PassingRuleProducesNoViolation(t *testing.T) {
	eng, err := NewEngine([]RuleSpec{
		{Name: "min_los", Expression: "input.los >= 1", FailMessage: "length of stay must be at least 1 night"},
	})
	require.NoError(t, err)

	violations := eng.Evaluate(map[string]any{"los": 3})
	assert.Empty(t, violations)
}

func TestEngine_Evaluate_FailingRuleProducesViolation(t *testing.T) {
	eng, err := NewEngine([]RuleSpec{
		{Name: "min_los", Expression: "input.los >= 1", FailMessage: "length of stay must be at least 1 night"},
	})
	require.NoError(t, err)

	violations := eng.Evaluate(map[string]any{"los": 0})
	require.Len(t, violations, 1)
	assert.Equal(t, "min_los", violations[0].Field)
	assert.Equal(t, "length of stay must be at least 1 night", violations[0].Value)
}

func TestEngine_Evaluate_RuntimeErrorCountsAsViolation(t *testing.T) {
	eng, err := NewEngine([]RuleSpec{
		{Name: "missing_key", Expression: "input.nonexistent.field > 0", FailMessage: "should not pass"},
	})
	require.NoError(t, err)

	violations := eng.Evaluate(map[string]any{"los": 3})
	require.Len(t, violations, 1)
	assert.Equal(t, "custom_rule_error", violations[0].Rule)
}

func TestNewEngine_RejectsInvalidExpression(t *testing.T) {
	_, err := NewEngine([]RuleSpec{
		{Name: "broken", Expression: "input.los >=="},
	})
	assert.Error(t, err)
}

func TestEngine_Count(t *testing.T) {
	eng, err := NewEngine([]RuleSpec{
		{Name: "a", Expression: "true"},
		{Name: "b", Expression: "true"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, eng.Count())
}
