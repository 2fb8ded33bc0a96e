package httpserver

import (
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// Payload types decouple the JSON surface from the domain structs. The
// session view never exposes expected answer notes; those only appear on the
// interviewer-facing candidate detail.

type candidatePayload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	ResumeURL  string    `json:"resume_url,omitempty"`
	ResumeName string    `json:"resume_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type sessionPayload struct {
	ID                   string     `json:"id"`
	CandidateID          string     `json:"candidate_id"`
	Status               string     `json:"status"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	FinalScore           *float64   `json:"final_score,omitempty"`
	Summary              *string    `json:"summary,omitempty"`
}

type questionPayload struct {
	ID               string `json:"id"`
	Order            int    `json:"order"`
	Difficulty       string `json:"difficulty"`
	Prompt           string `json:"prompt"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	ExpectedNote     string `json:"expected_note,omitempty"`
}

type answerPayload struct {
	ID            string    `json:"id"`
	QuestionID    string    `json:"question_id"`
	ResponseText  string    `json:"response_text"`
	TimeTakenSecs int       `json:"time_taken_secs"`
	AutoSubmitted bool      `json:"auto_submitted"`
	Score         float64   `json:"score"`
	Feedback      string    `json:"feedback"`
	CreatedAt     time.Time `json:"created_at"`
}

type messagePayload struct {
	ID        string         `json:"id"`
	Sender    string         `json:"sender"`
	Content   string         `json:"content"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type sessionViewPayload struct {
	Session   sessionPayload    `json:"session"`
	Candidate candidatePayload  `json:"candidate"`
	Questions []questionPayload `json:"questions"`
	Answers   []answerPayload   `json:"answers"`
	Messages  []messagePayload  `json:"messages"`
}

type candidateListItemPayload struct {
	Candidate     candidatePayload `json:"candidate"`
	LatestSession *sessionPayload  `json:"latest_session,omitempty"`
}

type candidateDetailPayload struct {
	Candidate candidatePayload     `json:"candidate"`
	Sessions  []sessionViewPayload `json:"sessions"`
}

type focusAreaPayload struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason,omitempty"`
}

type insightsPayload struct {
	Highlights      []string           `json:"highlights,omitempty"`
	Skills          []string           `json:"skills,omitempty"`
	Roles           []string           `json:"roles,omitempty"`
	FocusAreas      []focusAreaPayload `json:"focus_areas,omitempty"`
	ExperienceYears int                `json:"experience_years,omitempty"`
	UniqueDetails   []string           `json:"unique_details,omitempty"`
	ProjectTypes    []string           `json:"project_types,omitempty"`
	IndustryContext string             `json:"industry_context,omitempty"`
}

type resumePayload struct {
	FileName string           `json:"file_name"`
	Text     string           `json:"text"`
	Contact  contactPayload   `json:"contact"`
	Insights *insightsPayload `json:"insights,omitempty"`
}

type contactPayload struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func toCandidatePayload(c domain.Candidate) candidatePayload {
	return candidatePayload{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		ResumeURL:  c.ResumeURL,
		ResumeName: c.ResumeName,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toSessionPayload(s domain.InterviewSession) sessionPayload {
	return sessionPayload{
		ID:                   s.ID,
		CandidateID:          s.CandidateID,
		Status:               string(s.Status),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		StartedAt:            s.StartedAt,
		CompletedAt:          s.CompletedAt,
		FinalScore:           s.FinalScore,
		Summary:              s.Summary,
	}
}

func toQuestionPayload(q domain.InterviewQuestion, includeExpected bool) questionPayload {
	p := questionPayload{
		ID:               q.ID,
		Order:            q.Order,
		Difficulty:       string(q.Difficulty),
		Prompt:           q.Prompt,
		TimeLimitSeconds: domain.TimeLimitSeconds(q.Difficulty),
	}
	if includeExpected {
		p.ExpectedNote = q.ExpectedNote
	}
	return p
}

func toAnswerPayload(a domain.CandidateAnswer) answerPayload {
	return answerPayload{
		ID:            a.ID,
		QuestionID:    a.QuestionID,
		ResponseText:  a.ResponseText,
		TimeTakenSecs: a.TimeTakenSecs,
		AutoSubmitted: a.AutoSubmitted,
		Score:         a.Score,
		Feedback:      a.Feedback,
		CreatedAt:     a.CreatedAt,
	}
}

func toMessagePayload(m domain.ChatMessage) messagePayload {
	return messagePayload{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Content:   m.Content,
		Meta:      m.Meta,
		CreatedAt: m.CreatedAt,
	}
}

func toResumePayload(fileName string, p usecase.ResumeProfile) resumePayload {
	out := resumePayload{
		FileName: fileName,
		Text:     p.Text,
		Contact:  contactPayload{Name: p.Contact.Name, Email: p.Contact.Email, Phone: p.Contact.Phone},
	}
	if p.Insights != nil {
		ins := insightsPayload{
			Highlights:      p.Insights.Highlights,
			Skills:          p.Insights.Skills,
			Roles:           p.Insights.Roles,
			ExperienceYears: p.Insights.ExperienceYears,
			UniqueDetails:   p.Insights.UniqueDetails,
			ProjectTypes:    p.Insights.ProjectTypes,
			IndustryContext: p.Insights.IndustryContext,
		}
		for _, f := range p.Insights.FocusAreas {
			ins.FocusAreas = append(ins.FocusAreas, focusAreaPayload{Topic: f.Topic, Reason: f.Reason})
		}
		out.Insights = &ins
	}
	return out
}

func toSessionViewPayload(v domain.SessionView, includeExpected bool) sessionViewPayload {
	out := sessionViewPayload{
		Session:   toSessionPayload(v.Session),
		Candidate: toCandidatePayload(v.Candidate),
		Questions: make([]questionPayload, 0, len(v.Questions)),
		Answers:   make([]answerPayload, 0, len(v.Answers)),
		Messages:  make([]messagePayload, 0, len(v.Messages)),
	}
	for _, q := range v.Questions {
		out.Questions = append(out.Questions, toQuestionPayload(q, includeExpected))
	}
	for _, a := range v.Answers {
		out.Answers = append(out.Answers, toAnswerPayload(a))
	}
	for _, m := range v.Messages {
		out.Messages = append(out.Messages, toMessagePayload(m))
	}
	return out
}
