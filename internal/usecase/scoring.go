package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// Evaluation is the outcome of scoring one answer, heuristic or AI-backed.
type Evaluation struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
	// Source records provenance: "heuristic" or "ai".
	Source string `json:"source"`
	Model  string `json:"model,omitempty"`
}

type difficultyWeight struct {
	base          float64
	keywordsBonus float64
	lengthBonus   float64
}

var difficultyWeights = map[domain.Difficulty]difficultyWeight{
	domain.DifficultyEasy:   {base: 6, keywordsBonus: 3, lengthBonus: 1},
	domain.DifficultyMedium: {base: 5, keywordsBonus: 4, lengthBonus: 1},
	domain.DifficultyHard:   {base: 4, keywordsBonus: 5, lengthBonus: 1},
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

func tokenize(text string) []string {
	parts := nonAlnumRe.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractKeywords returns the unique rubric tokens longer than 3 characters,
// in first-seen order.
func extractKeywords(expectedNote string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range tokenize(expectedNote) {
		if len(tok) <= 3 {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func clampScore(s float64) float64 {
	return math.Max(0, math.Min(10, s))
}

func round2(s float64) float64 {
	return math.Round(s*100) / 100
}

// HeuristicScore evaluates an answer deterministically: per-difficulty base,
// rubric keyword coverage bonus, length bonus, overtime penalty, clamped to
// [0,10]. Same inputs always produce the same score and feedback.
func HeuristicScore(answerText, expectedNote string, difficulty domain.Difficulty, timeTakenSecs, timeLimitSecs int) Evaluation {
	if strings.TrimSpace(answerText) == "" {
		return Evaluation{
			Score:        0,
			Feedback:     "No substantial answer was provided.",
			Improvements: []string{"Provide a more complete response."},
			Source:       "heuristic",
		}
	}

	weight, ok := difficultyWeights[difficulty]
	if !ok {
		weight = difficultyWeights[domain.DifficultyEasy]
	}

	tokens := tokenize(answerText)
	uniqueTokens := map[string]struct{}{}
	for _, t := range tokens {
		uniqueTokens[t] = struct{}{}
	}
	keywords := extractKeywords(expectedNote)
	var matched []string
	for _, k := range keywords {
		if _, ok := uniqueTokens[k]; ok {
			matched = append(matched, k)
		}
	}

	score := weight.base
	if len(matched) > 0 {
		coverage := float64(len(matched)) / math.Max(float64(len(keywords)), 1)
		// +0.2 slack rewards partial coverage, capped at the full bonus.
		score += weight.keywordsBonus * math.Min(1, coverage+0.2)
	}
	if len(tokens) > 40 {
		score += weight.lengthBonus
	}
	if timeLimitSecs > 0 && timeTakenSecs > timeLimitSecs {
		score -= 1
	}
	score = clampScore(round2(score))

	var feedbackParts, strengths, improvements []string
	if len(matched) > 0 {
		top := matched
		if len(top) > 5 {
			top = top[:5]
		}
		feedbackParts = append(feedbackParts, fmt.Sprintf("Good coverage of key topics (%s).", strings.Join(top, ", ")))
		strengths = append(strengths, fmt.Sprintf("Covered key topics: %s", strings.Join(top, ", ")))
	} else if len(keywords) > 0 {
		top := keywords
		if len(top) > 5 {
			top = top[:5]
		}
		feedbackParts = append(feedbackParts, "Consider addressing core keywords highlighted in the question.")
		improvements = append(improvements, fmt.Sprintf("Incorporate keywords such as %s", strings.Join(top, ", ")))
	}

	if len(tokens) < 25 {
		feedbackParts = append(feedbackParts, "Answer could include more depth or examples.")
		improvements = append(improvements, "Add more depth or concrete examples.")
	} else if len(tokens) > 60 {
		strengths = append(strengths, "Provided an in-depth and thorough response.")
	}

	if timeLimitSecs > 0 && timeTakenSecs > timeLimitSecs {
		feedbackParts = append(feedbackParts, "Answer exceeded the recommended time limit.")
		improvements = append(improvements, "Stay within the recommended time limit.")
	}

	if len(feedbackParts) == 0 {
		feedbackParts = append(feedbackParts, "Solid answer with well-structured explanation.")
		strengths = append(strengths, "Answer was well structured and comprehensive.")
	}

	return Evaluation{
		Score:        score,
		Feedback:     strings.Join(feedbackParts, " "),
		Strengths:    strengths,
		Improvements: improvements,
		Source:       "heuristic",
	}
}
