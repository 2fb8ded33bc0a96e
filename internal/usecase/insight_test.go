package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

const sampleResume = `Jordan Smith
Senior Full Stack Engineer with 7 years of experience building React and Node.js applications.
Shipped a TypeScript monorepo with GraphQL APIs backed by Postgres.
Automated pipelines with GitHub Actions and deployed to AWS with Docker.
Built real-time dashboards over WebSocket connections tested with Jest.`

func TestDeriveInsights_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, usecase.DeriveInsights(""))
	assert.Nil(t, usecase.DeriveInsights("   \n\t"))
}

func TestDeriveInsights_SkillsAndFocus(t *testing.T) {
	t.Parallel()
	ins := usecase.DeriveInsights(sampleResume)
	require.NotNil(t, ins)

	assert.Contains(t, ins.Skills, "React")
	assert.Contains(t, ins.Skills, "Node.js")
	assert.Contains(t, ins.Skills, "TypeScript")
	assert.Contains(t, ins.Skills, "GraphQL")
	assert.Contains(t, ins.Skills, "Databases")
	assert.Contains(t, ins.Skills, "DevOps")
	assert.Contains(t, ins.Skills, "CI/CD")
	assert.Contains(t, ins.Skills, "Real-time")
	assert.Contains(t, ins.Skills, "Testing")

	assert.Equal(t, 7, ins.ExperienceYears)
	assert.NotEmpty(t, ins.Roles)
	assert.LessOrEqual(t, len(ins.Highlights), 5)
	assert.NotEmpty(t, ins.FocusAreas)

	topics := map[string]bool{}
	for _, f := range ins.FocusAreas {
		assert.False(t, topics[f.Topic], "duplicate focus topic %q", f.Topic)
		topics[f.Topic] = true
	}
}

func TestDeriveInsights_CoreFallbacks(t *testing.T) {
	t.Parallel()
	ins := usecase.DeriveInsights("Experienced Python developer focused on Django and data pipelines.")
	require.NotNil(t, ins)

	topics := map[string]bool{}
	for _, f := range ins.FocusAreas {
		topics[f.Topic] = true
	}
	assert.True(t, topics["React fundamentals"], "missing frontend fallback focus")
	assert.True(t, topics["Node.js fundamentals"], "missing backend fallback focus")
}

func TestDeriveInsights_DefaultFocusSeed(t *testing.T) {
	t.Parallel()
	ins := usecase.DeriveInsights("React and Node.js engineer.")
	require.NotNil(t, ins)
	assert.NotEmpty(t, ins.FocusAreas)
}

func TestMergeInsights(t *testing.T) {
	t.Parallel()

	t.Run("both nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, usecase.MergeInsights(nil, nil))
	})

	t.Run("one nil passthrough", func(t *testing.T) {
		t.Parallel()
		primary := &usecase.Insights{Skills: []string{"React"}}
		got := usecase.MergeInsights(primary, nil)
		require.NotNil(t, got)
		assert.Equal(t, []string{"React"}, got.Skills)
	})

	t.Run("dedupes case-insensitively", func(t *testing.T) {
		t.Parallel()
		got := usecase.MergeInsights(
			&usecase.Insights{Skills: []string{"React", "Node.js"}},
			&usecase.Insights{Skills: []string{"react", "GraphQL"}},
		)
		require.NotNil(t, got)
		assert.Equal(t, []string{"React", "Node.js", "GraphQL"}, got.Skills)
	})

	t.Run("secondary wins scalars", func(t *testing.T) {
		t.Parallel()
		got := usecase.MergeInsights(
			&usecase.Insights{ExperienceYears: 3, IndustryContext: "fintech"},
			&usecase.Insights{ExperienceYears: 8, IndustryContext: "healthtech"},
		)
		require.NotNil(t, got)
		assert.Equal(t, 8, got.ExperienceYears)
		assert.Equal(t, "healthtech", got.IndustryContext)
	})

	t.Run("focus areas merge first-wins by topic", func(t *testing.T) {
		t.Parallel()
		got := usecase.MergeInsights(
			&usecase.Insights{FocusAreas: []usecase.FocusArea{{Topic: "React patterns", Reason: "primary"}}},
			&usecase.Insights{FocusAreas: []usecase.FocusArea{
				{Topic: "react patterns", Reason: "secondary"},
				{Topic: "API design", Reason: "secondary"},
			}},
		)
		require.NotNil(t, got)
		require.Len(t, got.FocusAreas, 2)
		assert.Equal(t, "primary", got.FocusAreas[0].Reason)
		assert.Equal(t, "API design", got.FocusAreas[1].Topic)
	})

	t.Run("caps respected", func(t *testing.T) {
		t.Parallel()
		many := func(prefix string, n int) []string {
			out := make([]string, n)
			for i := range out {
				out[i] = prefix + string(rune('a'+i))
			}
			return out
		}
		got := usecase.MergeInsights(
			&usecase.Insights{
				Highlights:    many("h", 10),
				Skills:        many("s", 15),
				Roles:         many("r", 10),
				UniqueDetails: many("u", 10),
				ProjectTypes:  many("p", 12),
			},
			nil,
		)
		require.NotNil(t, got)
		assert.Len(t, got.Highlights, 7)
		assert.Len(t, got.Skills, 12)
		assert.Len(t, got.Roles, 6)
		assert.Len(t, got.UniqueDetails, 5)
		assert.Len(t, got.ProjectTypes, 8)
	})
}
