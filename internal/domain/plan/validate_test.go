package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSequenceOrder(t *testing.T) {
	require.NoError(t, ValidateSequenceOrder([]int{0, 1, 2}))
	require.NoError(t, ValidateSequenceOrder([]int{2, 0, 1}))

	err := ValidateSequenceOrder([]int{0, 2})
	require.Error(t, err, "must reject a gap")

	err = ValidateSequenceOrder([]int{0, 0, 1})
	require.Error(t, err, "must reject duplicate orders")
}

func TestValidateDependencies_AcyclicAndSiblingOnly(t *testing.T) {
	siblings := []string{"a", "b", "c"}
	deps := map[string][]string{
		"b": {"a"},
		"c": {"b"},
	}
	require.NoError(t, ValidateDependencies(siblings, deps))

	cyclic := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	err := ValidateDependencies(siblings, cyclic)
	require.Error(t, err, "must reject a cycle")

	nonSibling := map[string][]string{
		"a": {"zzz"},
	}
	err = ValidateDependencies(siblings, nonSibling)
	require.Error(t, err, "must reject a dependency outside the sibling set")
}

func TestValidateIDPrefix(t *testing.T) {
	require.NoError(t, ValidateIDPrefix("S1_W1", "S1_W1_ET1"))
	err := ValidateIDPrefix("S1_W1", "S2_W1_ET1")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
