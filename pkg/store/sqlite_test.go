package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkmbench/lkmbench/core"
)

func TestSaveAndListSessions(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "bench.db"))
	require.NoError(t, err)
	defer s.Close()

	first := 1
	summary := core.TrainingSummary{
		Model:    "qwen2.5:latest",
		TestType: "simple_char_driver",
		Iterations: []core.IterationRecord{
			{Iteration: 1, OverallScore: 0.31, CompilationSuccess: false, CodeFile: "i1.c", ResultFile: "i1.json", FeedbackFile: "i1.txt"},
			{Iteration: 2, OverallScore: 0.74, CompilationSuccess: true, CodeFile: "i2.c", ResultFile: "i2.json"},
		},
		Improvement:                0.43,
		FirstSuccessfulCompilation: &first,
		BestIteration:              2,
	}

	id, err := s.SaveSession(summary)
	require.NoError(t, err)
	require.Positive(t, id)

	sessions, err := s.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "qwen2.5:latest", sessions[0].Model)
	require.Equal(t, 2, sessions[0].Iterations)
	require.InDelta(t, 0.43, sessions[0].Improvement, 1e-9)

	scores, err := s.IterationScores(id)
	require.NoError(t, err)
	require.InDelta(t, 0.31, scores[1], 1e-9)
	require.InDelta(t, 0.74, scores[2], 1e-9)
}

func TestSaveSessionWithoutCompilation(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "bench.db"))
	require.NoError(t, err)
	defer s.Close()

	summary := core.TrainingSummary{
		Model:    "m",
		TestType: "t",
		Iterations: []core.IterationRecord{
			{Iteration: 1, OverallScore: 0.1},
		},
		FirstSuccessfulCompilation: nil,
		BestIteration:              1,
	}
	_, err = s.SaveSession(summary)
	require.NoError(t, err)
}
