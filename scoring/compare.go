package scoring

import (
	"sort"

	"github.com/lkmbench/lkmbench/core"
)

// ModelResult pairs a model name with one of its evaluation results.
type ModelResult struct {
	Model  string
	Result core.EvaluationResult
}

// RankingEntry is one row of the model ranking.
type RankingEntry struct {
	Model              string  `json:"model"`
	OverallScore       float64 `json:"overall_score"`
	CompilationSuccess bool    `json:"compilation_success"`
	SecurityScore      float64 `json:"security_score"`
}

// Comparison is the cross-model report: rankings sorted descending by
// overall score, plus the best model per weighted category. A category
// nobody scored in has an empty winner.
type Comparison struct {
	ModelRankings   []RankingEntry    `json:"model_rankings"`
	CategoryWinners map[string]string `json:"category_winners"`
}

// CompareModels builds the comparison over a set of evaluated results.
func CompareModels(results []ModelResult) Comparison {
	rankings := make([]RankingEntry, 0, len(results))
	for _, mr := range results {
		rankings = append(rankings, RankingEntry{
			Model:              mr.Model,
			OverallScore:       mr.Result.OverallScore,
			CompilationSuccess: mr.Result.Compilation.Success,
			SecurityScore:      mr.Result.SecurityScore(),
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].OverallScore > rankings[j].OverallScore
	})

	winners := make(map[string]string, len(core.Categories))
	for _, category := range core.Categories {
		bestScore := 0.0
		bestModel := ""
		for _, mr := range results {
			if score := mr.Result.WeightedScores[category]; score > bestScore {
				bestScore = score
				bestModel = mr.Model
			}
		}
		winners[category] = bestModel
	}

	return Comparison{ModelRankings: rankings, CategoryWinners: winners}
}
