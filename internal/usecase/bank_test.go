package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

func TestLoadQuestionBank(t *testing.T) {
	t.Parallel()
	bank, err := usecase.LoadQuestionBank()
	require.NoError(t, err)

	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		entries := bank.ForDifficulty(d)
		require.Len(t, entries, 6, "difficulty %s", d)
		for _, q := range entries {
			assert.NotEmpty(t, q.Topic)
			assert.NotEmpty(t, q.Prompt)
			assert.NotEmpty(t, q.Expected)
		}
	}
}

func TestQuestionBank_UnknownDifficulty(t *testing.T) {
	t.Parallel()
	bank := usecase.MustLoadQuestionBank()
	assert.Empty(t, bank.ForDifficulty(domain.Difficulty("EXPERT")))
}
