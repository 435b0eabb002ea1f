package court

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolveAssignment(t *testing.T) {
	t.Parallel()

	t.Run("empty matrix", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, solveAssignment(nil))
	})

	t.Run("no columns leaves all rows unassigned", func(t *testing.T) {
		t.Parallel()
		result := solveAssignment([][]float64{{}, {}})
		assert.Equal(t, []int{-1, -1}, result)
	})

	t.Run("diagonal is optimal", func(t *testing.T) {
		t.Parallel()
		result := solveAssignment([][]float64{
			{1, 5, 5},
			{5, 1, 5},
			{5, 5, 1},
		})
		assert.Equal(t, []int{0, 1, 2}, result)
	})

	t.Run("avoids greedy trap", func(t *testing.T) {
		t.Parallel()
		// Greedy would give row 0 the cheap column 0 (cost 1) and force
		// row 1 into cost 10; the optimal total crosses over.
		result := solveAssignment([][]float64{
			{1, 2},
			{2, 10},
		})
		assert.Equal(t, []int{1, 0}, result)
	})

	t.Run("more rows than columns", func(t *testing.T) {
		t.Parallel()
		result := solveAssignment([][]float64{
			{1},
			{2},
		})
		assert.Equal(t, []int{0, -1}, result)
	})

	t.Run("more columns than rows", func(t *testing.T) {
		t.Parallel()
		result := solveAssignment([][]float64{
			{4, 1, 3},
		})
		assert.Equal(t, []int{1}, result)
	})

	t.Run("forbidden entries are never selected", func(t *testing.T) {
		t.Parallel()
		result := solveAssignment([][]float64{
			{forbiddenCost, 1},
			{forbiddenCost, forbiddenCost},
		})
		assert.Equal(t, []int{1, -1}, result)
	})
}
