package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractPath(_ context.Context, _, _ string) (string, error) {
	return f.text, f.err
}

func TestExtractContact(t *testing.T) {
	t.Parallel()

	t.Run("full header", func(t *testing.T) {
		t.Parallel()
		text := "Jordan Smith\nSenior Engineer\njordan.smith@example.com\n+1 415 555 1234"
		info := usecase.ExtractContact(text)
		assert.Equal(t, "Jordan Smith", info.Name)
		assert.Equal(t, "jordan.smith@example.com", info.Email)
		assert.NotEmpty(t, info.Phone)
	})

	t.Run("first line with digits is not a name", func(t *testing.T) {
		t.Parallel()
		info := usecase.ExtractContact("residing at 42 Elm Street\nJordan Smith")
		assert.Empty(t, info.Name)
	})

	t.Run("first line with email is not a name", func(t *testing.T) {
		t.Parallel()
		info := usecase.ExtractContact("contact@me.dev\nJordan Smith")
		assert.Empty(t, info.Name)
		assert.Equal(t, "contact@me.dev", info.Email)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		info := usecase.ExtractContact("")
		assert.Empty(t, info.Name)
		assert.Empty(t, info.Email)
		assert.Empty(t, info.Phone)
	})
}

func TestResumeService_Ingest(t *testing.T) {
	t.Parallel()
	extractor := fakeExtractor{text: "Jordan Smith\njordan@x.dev\n6 years of React and Node.js work."}
	svc := usecase.NewResumeService(extractor, usecase.NewAIAssistant(nil, ""), slog.Default())

	profile, err := svc.Ingest(context.Background(), "resume.pdf", "/tmp/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Jordan Smith", profile.Contact.Name)
	assert.Equal(t, "jordan@x.dev", profile.Contact.Email)
	require.NotNil(t, profile.Insights)
	assert.Contains(t, profile.Insights.Skills, "React")
	assert.Equal(t, 6, profile.Insights.ExperienceYears)
}

func TestResumeService_Ingest_ExtractorError(t *testing.T) {
	t.Parallel()
	extractor := fakeExtractor{err: errors.New("unsupported file type")}
	svc := usecase.NewResumeService(extractor, usecase.NewAIAssistant(nil, ""), slog.Default())

	_, err := svc.Ingest(context.Background(), "resume.txt", "/tmp/resume.txt")
	assert.Error(t, err)
}

func TestResumeService_Ingest_MergesAIInsights(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{responses: []string{`{
		"highlights":["Scaled checkout to 1M users"],
		"skills":["React","Kubernetes"],
		"experienceYears":9,
		"industryContext":"e-commerce"
	}`}}
	extractor := fakeExtractor{text: "Jordan Smith\n6 years of React work."}
	svc := usecase.NewResumeService(extractor, usecase.NewAIAssistant(ai, "m"), slog.Default())

	profile, err := svc.Ingest(context.Background(), "resume.pdf", "/tmp/resume.pdf")
	require.NoError(t, err)
	require.NotNil(t, profile.Insights)
	assert.Contains(t, profile.Insights.Skills, "Kubernetes")
	assert.Contains(t, profile.Insights.Highlights, "Scaled checkout to 1M users")
	assert.Equal(t, 9, profile.Insights.ExperienceYears, "AI estimate wins over keyword scan")
	assert.Equal(t, "e-commerce", profile.Insights.IndustryContext)
}

func TestResumeService_Ingest_AIFailureKeepsKeywordInsights(t *testing.T) {
	t.Parallel()
	extractor := fakeExtractor{text: "Jordan Smith\n6 years of React work."}
	svc := usecase.NewResumeService(extractor, usecase.NewAIAssistant(failingAI{}, "m"), slog.Default())

	profile, err := svc.Ingest(context.Background(), "resume.pdf", "/tmp/resume.pdf")
	require.NoError(t, err)
	require.NotNil(t, profile.Insights)
	assert.Contains(t, profile.Insights.Skills, "React")
	assert.Equal(t, 6, profile.Insights.ExperienceYears)
}
