package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// ScoredQuestion pairs a question with the score its answer received, for the
// deterministic summary path.
type ScoredQuestion struct {
	Question domain.InterviewQuestion
	Score    float64
}

// BuildSummary renders the fallback debrief sentence. It is a pure function
// over the scored set; the AI summary replaces it when the provider is up.
func BuildSummary(candidate domain.Candidate, scores []ScoredQuestion) string {
	if len(scores) == 0 {
		return "Interview session ended before any questions were answered."
	}

	var total float64
	for _, item := range scores {
		total += item.Score
	}
	average := total / float64(len(scores))

	top := scores[0]
	for _, item := range scores[1:] {
		if item.Score > top.Score {
			top = item
		}
	}

	name := candidate.Name
	if name == "" {
		name = "The candidate"
	}
	focus := strings.ToLower(string(top.Question.Difficulty))
	return fmt.Sprintf("%s demonstrated a solid understanding of %s concepts with an average score of %.1f/10. Their strongest response covered %q.",
		name, focus, average, top.Question.Prompt)
}
