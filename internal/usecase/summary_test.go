package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

func TestBuildSummary_NoScores(t *testing.T) {
	t.Parallel()
	got := usecase.BuildSummary(domain.Candidate{Name: "Jordan"}, nil)
	assert.Equal(t, "Interview session ended before any questions were answered.", got)
}

func TestBuildSummary_NamesBestAnswer(t *testing.T) {
	t.Parallel()
	scores := []usecase.ScoredQuestion{
		{Question: domain.InterviewQuestion{Difficulty: domain.DifficultyEasy, Prompt: "easy one"}, Score: 6},
		{Question: domain.InterviewQuestion{Difficulty: domain.DifficultyHard, Prompt: "hard one"}, Score: 9},
		{Question: domain.InterviewQuestion{Difficulty: domain.DifficultyMedium, Prompt: "medium one"}, Score: 7.5},
	}
	got := usecase.BuildSummary(domain.Candidate{Name: "Jordan"}, scores)
	assert.Contains(t, got, "Jordan demonstrated a solid understanding of hard concepts")
	assert.Contains(t, got, "average score of 7.5/10")
	assert.Contains(t, got, `"hard one"`)
}

func TestBuildSummary_FirstWinsOnTie(t *testing.T) {
	t.Parallel()
	scores := []usecase.ScoredQuestion{
		{Question: domain.InterviewQuestion{Difficulty: domain.DifficultyEasy, Prompt: "first"}, Score: 8},
		{Question: domain.InterviewQuestion{Difficulty: domain.DifficultyHard, Prompt: "second"}, Score: 8},
	}
	got := usecase.BuildSummary(domain.Candidate{}, scores)
	assert.Contains(t, got, "The candidate demonstrated")
	assert.Contains(t, got, `"first"`)
}
