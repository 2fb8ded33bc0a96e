package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

// AIAssistant wraps the AI provider port with the engine's prompt contracts.
// A nil Client means the AI path is disabled and every call returns
// domain.ErrAIUnavailable so callers take their deterministic fallback.
type AIAssistant struct {
	Client domain.AIClient
	Model  string
}

// NewAIAssistant constructs an assistant; client may be nil when no provider
// credentials are configured.
func NewAIAssistant(client domain.AIClient, model string) AIAssistant {
	return AIAssistant{Client: client, Model: model}
}

// Enabled reports whether AI-backed paths may be attempted.
func (a AIAssistant) Enabled() bool { return a.Client != nil }

// GeneratedQuestion is the parsed output of an AI question generation call.
type GeneratedQuestion struct {
	Prompt          string
	ExpectedNote    string
	Topic           string
	Personalization string
}

// GenerateQuestionInput carries everything the question prompt embeds.
type GenerateQuestionInput struct {
	Difficulty    domain.Difficulty
	ResumeText    string
	AskedTopics   []string
	CandidateName string
	Insights      *Insights
	FocusHint     *FocusArea
}

const questionSystemPrompt = `You are an expert technical interviewer for a senior full-stack role (React + Node).
Analyze the candidate's resume thoroughly and generate questions tailored to their unique background, projects, companies, and experiences.
Guidelines:
- Reference specific technologies, projects, or companies mentioned in the resume
- Ask about challenges they likely faced in their specific roles
- Probe deeper into their most relevant experiences
- Make questions unique to their career path and expertise level
Return ONLY valid JSON, no markdown, no prose.`

// GenerateQuestion asks the provider for one personalized question. A single
// call, no retry; the generator owns the attempt budget.
func (a AIAssistant) GenerateQuestion(ctx context.Context, in GenerateQuestionInput) (GeneratedQuestion, error) {
	if !a.Enabled() {
		return GeneratedQuestion{}, domain.ErrAIUnavailable
	}
	usr := buildQuestionUserPrompt(in)
	out, err := a.Client.CompleteJSON(ctx, questionSystemPrompt, usr, 500)
	if err != nil {
		return GeneratedQuestion{}, fmt.Errorf("op=ai.generate_question: %w", err)
	}
	return parseGeneratedQuestion(out)
}

func buildQuestionUserPrompt(in GenerateQuestionInput) string {
	b := &strings.Builder{}
	if in.CandidateName != "" {
		fmt.Fprintf(b, "Candidate: %s\n", in.CandidateName)
	} else {
		b.WriteString("Candidate: Name not provided\n")
	}
	level := strings.ToLower(string(in.Difficulty))
	fmt.Fprintf(b, "\nTASK: Generate ONE unique %s-level interview question specifically tailored to this candidate's background.\n", level)
	if len(in.AskedTopics) > 0 {
		fmt.Fprintf(b, "\nAVOID these topics already covered: %s\n", strings.Join(in.AskedTopics, ", "))
	}
	if in.FocusHint != nil && in.FocusHint.Topic != "" {
		fmt.Fprintf(b, "\nSteer toward this focus area: %s", in.FocusHint.Topic)
		if in.FocusHint.Reason != "" {
			fmt.Fprintf(b, " (%s)", in.FocusHint.Reason)
		}
		b.WriteString("\n")
	}
	if ins := in.Insights; ins != nil {
		b.WriteString("\nResume Analysis:\n")
		if len(ins.Highlights) > 0 {
			fmt.Fprintf(b, "Highlights:\n- %s\n", strings.Join(ins.Highlights, "\n- "))
		}
		if len(ins.Skills) > 0 {
			fmt.Fprintf(b, "Technical Skills: %s\n", strings.Join(ins.Skills, ", "))
		}
		if len(ins.Roles) > 0 {
			fmt.Fprintf(b, "Career Roles: %s\n", strings.Join(ins.Roles, ", "))
		}
		if ins.ExperienceYears > 0 {
			fmt.Fprintf(b, "Experience Level: ~%d years\n", ins.ExperienceYears)
		}
		if len(ins.UniqueDetails) > 0 {
			fmt.Fprintf(b, "Unique Details: %s\n", strings.Join(ins.UniqueDetails, "; "))
		}
		if ins.IndustryContext != "" {
			fmt.Fprintf(b, "Industry Context: %s\n", ins.IndustryContext)
		}
	} else {
		b.WriteString("\nResume Analysis: Limited insights available\n")
	}
	b.WriteString("\nFULL RESUME TEXT:\n")
	b.WriteString(textx.Truncate(in.ResumeText, 3000))
	b.WriteString(`

Return JSON with:
- prompt: The personalized interview question
- rubric: Key points the answer should cover (as array or string)
- topic: Brief topic label for tracking
- personalization: Brief note on how this question relates to their background`)
	return b.String()
}

func parseGeneratedQuestion(s string) (GeneratedQuestion, error) {
	obj, err := decodeJSONObject(s)
	if err != nil {
		return GeneratedQuestion{}, err
	}
	prompt := strings.TrimSpace(stringField(obj, "prompt"))
	if prompt == "" {
		return GeneratedQuestion{}, fmt.Errorf("%w: missing prompt field", domain.ErrSchemaInvalid)
	}
	rubric := normalizeStringList(obj["rubric"])
	if len(rubric) == 0 {
		rubric = normalizeStringList(obj["focusPoints"])
	}
	return GeneratedQuestion{
		Prompt:          prompt,
		ExpectedNote:    strings.Join(rubric, "\n"),
		Topic:           strings.TrimSpace(stringField(obj, "topic")),
		Personalization: strings.TrimSpace(stringField(obj, "personalization")),
	}, nil
}

const evaluateSystemPrompt = `You are an impartial technical interviewer. Score answers from 0.0 to 10.0 using half-point precision. Return ONLY valid JSON, no markdown, no prose.`

// EvaluateAnswer scores an answer via the provider. One attempt; on failure
// the caller falls back to the heuristic scorer and tags provenance.
func (a AIAssistant) EvaluateAnswer(ctx context.Context, questionPrompt, expectedNote, answerText string, difficulty domain.Difficulty) (Evaluation, error) {
	if !a.Enabled() {
		return Evaluation{}, domain.ErrAIUnavailable
	}
	note := expectedNote
	if note == "" {
		note = "N/A"
	}
	answer := answerText
	if answer == "" {
		answer = "(empty)"
	}
	usr := fmt.Sprintf(`Question (difficulty %s): %s
Ideal focus points: %s
Candidate answer: %s

Return JSON with:
- score: 0-10 numeric
- feedback: constructive critique (2-3 sentences)
- keyStrengths: optional array of phrases
- improvements: optional array of suggestions`, difficulty, questionPrompt, note, answer)

	out, err := a.Client.CompleteJSON(ctx, evaluateSystemPrompt, usr, 400)
	if err != nil {
		return Evaluation{}, fmt.Errorf("op=ai.evaluate_answer: %w", err)
	}
	obj, err := decodeJSONObject(out)
	if err != nil {
		return Evaluation{}, err
	}
	feedback := strings.TrimSpace(stringField(obj, "feedback"))
	if feedback == "" {
		feedback = "Feedback unavailable."
	}
	strengths := normalizeStringList(obj["keyStrengths"])
	if len(strengths) == 0 {
		strengths = normalizeStringList(obj["strengths"])
	}
	improvements := normalizeStringList(obj["improvements"])
	if len(improvements) == 0 {
		improvements = normalizeStringList(obj["gaps"])
	}
	return Evaluation{
		Score:        clampScore(numberField(obj, "score")),
		Feedback:     feedback,
		Strengths:    strengths,
		Improvements: improvements,
		Source:       "ai",
		Model:        a.Model,
	}, nil
}

// AnswerDigest is one scored question fed into the summary prompt.
type AnswerDigest struct {
	Difficulty     domain.Difficulty
	QuestionPrompt string
	Score          float64
	AnswerText     string
	Feedback       string
}

const summarySystemPrompt = `You are preparing a concise interviewer debrief. Return ONLY valid JSON, no markdown, no prose.`

// SummarizeCandidate produces the AI debrief text, with the recommendation
// appended when present.
func (a AIAssistant) SummarizeCandidate(ctx context.Context, candidate domain.Candidate, answers []AnswerDigest) (string, error) {
	if !a.Enabled() {
		return "", domain.ErrAIUnavailable
	}
	b := &strings.Builder{}
	name := candidate.Name
	if name == "" {
		name = "Unknown"
	}
	email := candidate.Email
	if email == "" {
		email = "N/A"
	}
	fmt.Fprintf(b, "Candidate: %s (%s)\n", name, email)
	b.WriteString(`Review the interview answers and produce JSON with:
  - summary (string): 3-4 sentences highlighting strengths, technical depth, and concerns.
  - recommendation (string): one of "Hire", "Hold", or "Decline".

Interview details:
`)
	for i, item := range answers {
		answer := item.AnswerText
		if answer == "" {
			answer = "(no answer)"
		}
		fmt.Fprintf(b, "Q%d (%s): %s\nScore: %.2f\nAnswer: %s\nAI feedback: %s\n\n",
			i+1, item.Difficulty, item.QuestionPrompt, item.Score, answer, item.Feedback)
	}

	out, err := a.Client.CompleteJSON(ctx, summarySystemPrompt, b.String(), 300)
	if err != nil {
		return "", fmt.Errorf("op=ai.summarize: %w", err)
	}
	obj, err := decodeJSONObject(out)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(stringField(obj, "summary"))
	if summary == "" {
		return "", fmt.Errorf("%w: missing summary text", domain.ErrSchemaInvalid)
	}
	if rec := strings.TrimSpace(stringField(obj, "recommendation")); rec != "" {
		return summary + "\n\nRecommendation: " + rec, nil
	}
	return summary, nil
}

const resumeSystemPrompt = `You are preparing detailed interview context from a candidate resume for a senior full-stack interview.
Focus on specific, unique details that help generate personalized interview questions: companies, projects, technologies, domain expertise, leadership indicators, and scale of work.
Return ONLY valid JSON, no markdown, no prose.`

// SummarizeResume runs the AI insight pass over raw resume text; the result is
// merged with the keyword-derived insight set by the caller.
func (a AIAssistant) SummarizeResume(ctx context.Context, resumeText string) (*Insights, error) {
	if !a.Enabled() {
		return nil, domain.ErrAIUnavailable
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, nil
	}
	usr := fmt.Sprintf(`Analyze this resume thoroughly and return JSON with:

- highlights: Array of 4-5 specific accomplishments or experiences (not generic skills)
- skills: Array of key technologies/tools mentioned (max 12)
- roles: Array of specific job titles and companies (max 6)
- experienceYears: Estimated total years of professional experience
- focusAreas: Array of 5-6 interview topics personalized to their background, each as { topic: string, reason: string }
- uniqueDetails: Array of 3-4 specific details that make this candidate unique
- industryContext: Brief description of industries/domains they have experience in
- projectTypes: Array of types of projects they've built

Resume text:
%s`, textx.Truncate(resumeText, 5000))

	out, err := a.Client.CompleteJSON(ctx, resumeSystemPrompt, usr, 600)
	if err != nil {
		return nil, fmt.Errorf("op=ai.summarize_resume: %w", err)
	}
	obj, err := decodeJSONObject(out)
	if err != nil {
		return nil, err
	}
	ins := &Insights{
		Highlights:      normalizeStringList(obj["highlights"]),
		Skills:          normalizeStringList(obj["skills"]),
		Roles:           normalizeStringList(obj["roles"]),
		UniqueDetails:   normalizeStringList(obj["uniqueDetails"]),
		ProjectTypes:    normalizeStringList(obj["projectTypes"]),
		IndustryContext: strings.TrimSpace(stringField(obj, "industryContext")),
		ExperienceYears: int(numberField(obj, "experienceYears")),
	}
	if areas, ok := obj["focusAreas"].([]any); ok {
		for _, raw := range areas {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			fa := FocusArea{
				Topic:  strings.TrimSpace(stringField(m, "topic")),
				Reason: strings.TrimSpace(stringField(m, "reason")),
			}
			if fa.Topic != "" || fa.Reason != "" {
				ins.FocusAreas = append(ins.FocusAreas, fa)
			}
		}
	}
	return ins, nil
}

// decodeJSONObject extracts the first JSON object embedded in provider output
// and decodes it into a generic map.
func decodeJSONObject(s string) (map[string]any, error) {
	js, ok := extractFirstJSONObject(s)
	if !ok {
		return nil, fmt.Errorf("%w: no json object in response", domain.ErrSchemaInvalid)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(js), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	return obj, nil
}

func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		if s[i] == '{' {
			depth++
		}
		if s[i] == '}' {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func numberField(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

// normalizeStringList canonicalizes rubric-like provider fields that arrive as
// a string, a delimited string, or an array of values into an ordered list.
func normalizeStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, item := range val {
			s := strings.TrimSpace(fmt.Sprintf("%v", item))
			if s != "" && s != "<nil>" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		var out []string
		for _, s := range val {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.FieldsFunc(val, func(r rune) bool {
			return r == '\n' || r == ',' || r == ';'
		}) {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
		return out
	default:
		return nil
	}
}

