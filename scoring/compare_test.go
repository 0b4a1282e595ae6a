package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkmbench/lkmbench/core"
)

func modelResult(model string, overall float64, weighted map[string]float64) ModelResult {
	return ModelResult{
		Model: model,
		Result: core.EvaluationResult{
			OverallScore:   overall,
			WeightedScores: weighted,
		},
	}
}

func TestCompareModelsRanksDescending(t *testing.T) {
	cmp := CompareModels([]ModelResult{
		modelResult("small", 0.42, nil),
		modelResult("large", 0.83, nil),
		modelResult("medium", 0.60, nil),
	})

	require.Len(t, cmp.ModelRankings, 3)
	require.Equal(t, "large", cmp.ModelRankings[0].Model)
	require.Equal(t, "medium", cmp.ModelRankings[1].Model)
	require.Equal(t, "small", cmp.ModelRankings[2].Model)
}

func TestCompareModelsStableOnTies(t *testing.T) {
	cmp := CompareModels([]ModelResult{
		modelResult("first", 0.5, nil),
		modelResult("second", 0.5, nil),
	})
	require.Equal(t, "first", cmp.ModelRankings[0].Model)
	require.Equal(t, "second", cmp.ModelRankings[1].Model)
}

func TestCompareModelsCategoryWinners(t *testing.T) {
	cmp := CompareModels([]ModelResult{
		modelResult("alpha", 0.7, map[string]float64{
			core.CategoryCompilation: 0.30,
			core.CategorySecurity:    0.10,
		}),
		modelResult("beta", 0.6, map[string]float64{
			core.CategoryCompilation: 0.30, // tie goes to the earlier model
			core.CategorySecurity:    0.20,
		}),
	})

	require.Equal(t, "alpha", cmp.CategoryWinners[core.CategoryCompilation])
	require.Equal(t, "beta", cmp.CategoryWinners[core.CategorySecurity])
	// nobody scored in code quality, so there is no winner
	require.Equal(t, "", cmp.CategoryWinners[core.CategoryCodeQuality])
	require.Len(t, cmp.CategoryWinners, len(core.Categories))
}

func TestCompareModelsEmptyInput(t *testing.T) {
	cmp := CompareModels(nil)
	require.Empty(t, cmp.ModelRankings)
	require.Len(t, cmp.CategoryWinners, len(core.Categories))
}
