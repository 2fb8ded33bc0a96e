package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

// SubmitLocker guards the submit-answer critical section per question so two
// near-simultaneous submissions never both score and advance. A nil locker is
// valid; the answer store's uniqueness constraint remains the backstop.
type SubmitLocker interface {
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// InterviewService drives the linear six-question session state machine.
type InterviewService struct {
	candidates domain.CandidateRepository
	sessions   domain.SessionRepository
	questions  domain.QuestionRepository
	answers    domain.AnswerRepository
	messages   domain.MessageRepository
	generator  *Generator
	ai         AIAssistant
	events     domain.EventPublisher
	locker     SubmitLocker
	log        *slog.Logger
	now        func() time.Time
}

func NewInterviewService(
	candidates domain.CandidateRepository,
	sessions domain.SessionRepository,
	questions domain.QuestionRepository,
	answers domain.AnswerRepository,
	messages domain.MessageRepository,
	generator *Generator,
	ai AIAssistant,
	events domain.EventPublisher,
	locker SubmitLocker,
	log *slog.Logger,
) *InterviewService {
	if log == nil {
		log = slog.Default()
	}
	return &InterviewService{
		candidates: candidates,
		sessions:   sessions,
		questions:  questions,
		answers:    answers,
		messages:   messages,
		generator:  generator,
		ai:         ai,
		events:     events,
		locker:     locker,
		log:        log,
		now:        time.Now,
	}
}

// StartInterviewInput carries candidate identity plus optional resume context.
type StartInterviewInput struct {
	Name       string
	Email      string
	Phone      string
	ResumeURL  string
	ResumeName string
	ResumeText string
	Insights   *Insights
}

// StartInterview upserts the candidate, creates an ACTIVE session at index 0,
// generates all six questions and seeds the transcript. Generation failure
// aborts the whole operation; there is no partial session.
func (s *InterviewService) StartInterview(ctx context.Context, in StartInterviewInput) (domain.SessionView, error) {
	if strings.TrimSpace(in.Email) == "" {
		return domain.SessionView{}, fmt.Errorf("%w: candidate email is required", domain.ErrInvalidArgument)
	}

	candidate, err := s.candidates.UpsertByEmail(ctx, domain.Candidate{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:      strings.TrimSpace(in.Phone),
		ResumeURL:  in.ResumeURL,
		ResumeName: in.ResumeName,
	})
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.start: %w", err)
	}

	session := domain.InterviewSession{
		CandidateID:          candidate.ID,
		Status:               domain.SessionActive,
		CurrentQuestionIndex: 0,
		StartedAt:            s.now(),
	}
	session.ID, err = s.sessions.Create(ctx, session)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.start: %w", err)
	}

	generated, err := s.generator.GenerateQuestionsForSession(ctx, session, candidate.Name, in.ResumeText, in.Insights)
	if err != nil {
		return domain.SessionView{}, err
	}
	for i := range generated {
		generated[i].ID, err = s.questions.Create(ctx, generated[i])
		if err != nil {
			return domain.SessionView{}, fmt.Errorf("op=interview.start: %w", err)
		}
	}

	var bannerMeta map[string]any
	if in.ResumeText != "" {
		bannerMeta = map[string]any{"resumeSummary": textx.Truncate(in.ResumeText, 500)}
	}
	if err := s.appendMessage(ctx, session.ID, domain.SenderSystem,
		"Interview started. You will be asked six questions ranging from easy to hard difficulty.", bannerMeta); err != nil {
		return domain.SessionView{}, err
	}
	first := generated[0]
	if err := s.appendMessage(ctx, session.ID, domain.SenderAI, first.Prompt, map[string]any{
		"difficulty": string(first.Difficulty),
		"order":      first.Order,
	}); err != nil {
		return domain.SessionView{}, err
	}

	s.publishEvent(ctx, domain.SessionEvent{
		Type:        domain.EventSessionStarted,
		SessionID:   session.ID,
		CandidateID: candidate.ID,
	})

	return s.GetSession(ctx, session.ID)
}

// GetSession returns the session with its ordered questions, answers and
// transcript.
func (s *InterviewService) GetSession(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.get_session: %w", err)
	}
	return s.loadView(ctx, session)
}

func (s *InterviewService) loadView(ctx context.Context, session domain.InterviewSession) (domain.SessionView, error) {
	candidate, err := s.candidates.Get(ctx, session.CandidateID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.load_view: %w", err)
	}
	questions, err := s.questions.ListBySession(ctx, session.ID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.load_view: %w", err)
	}
	answers, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.load_view: %w", err)
	}
	messages, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.load_view: %w", err)
	}
	return domain.SessionView{
		Session:   session,
		Candidate: candidate,
		Questions: questions,
		Answers:   answers,
		Messages:  messages,
	}, nil
}

// SubmitAnswerInput identifies the question being answered and how.
type SubmitAnswerInput struct {
	SessionID     string
	QuestionID    string
	AnswerText    string
	TimeTakenSecs int
	AutoSubmitted bool
}

// SubmitResult is the state after an accepted (or replayed) submission.
// ScoreSource is "ai" or "heuristic" for freshly scored answers and empty on
// the idempotent replay path.
type SubmitResult struct {
	Answer       domain.CandidateAnswer
	NextQuestion *domain.InterviewQuestion
	Session      domain.SessionView
	ScoreSource  string
}

// SubmitAnswer records the answer for the session's current question, scores
// it, advances the pointer and finalizes on the last slot. Resubmitting an
// already-answered question replays the stored answer without re-scoring or
// re-advancing.
func (s *InterviewService) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (SubmitResult, error) {
	view, err := s.GetSession(ctx, in.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if view.Session.Status != domain.SessionActive {
		return SubmitResult{}, fmt.Errorf("%w: interview session is not active", domain.ErrConflict)
	}

	var question *domain.InterviewQuestion
	for i := range view.Questions {
		if view.Questions[i].ID == in.QuestionID {
			question = &view.Questions[i]
			break
		}
	}
	if question == nil {
		return SubmitResult{}, fmt.Errorf("%w: question not found in session", domain.ErrNotFound)
	}

	if existing, err := s.answers.GetByQuestion(ctx, question.ID); err == nil {
		return s.replayResult(ctx, in.SessionID, existing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return SubmitResult{}, fmt.Errorf("op=interview.submit: %w", err)
	}

	if question.Order != view.Session.CurrentQuestionIndex {
		return SubmitResult{}, fmt.Errorf("%w: question order mismatch", domain.ErrConflict)
	}

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, question.ID)
		if err != nil {
			s.log.Warn("submit lock unavailable, relying on store constraint", slog.Any("error", err))
		} else if !ok {
			if existing, err := s.answers.GetByQuestion(ctx, question.ID); err == nil {
				return s.replayResult(ctx, in.SessionID, existing)
			}
			return SubmitResult{}, fmt.Errorf("%w: answer submission already in progress", domain.ErrConflict)
		} else {
			defer func() {
				if err := s.locker.Unlock(ctx, question.ID); err != nil {
					s.log.Warn("submit lock release failed", slog.Any("error", err))
				}
			}()
		}
	}

	evaluation := s.evaluate(ctx, *question, in.AnswerText, in.TimeTakenSecs)

	stored, created, err := s.answers.Create(ctx, domain.CandidateAnswer{
		QuestionID:    question.ID,
		SessionID:     in.SessionID,
		ResponseText:  in.AnswerText,
		TimeTakenSecs: in.TimeTakenSecs,
		AutoSubmitted: in.AutoSubmitted,
		Score:         evaluation.Score,
		Feedback:      evaluation.Feedback,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("op=interview.submit: %w", err)
	}
	if !created {
		return s.replayResult(ctx, in.SessionID, stored)
	}

	answerContent := in.AnswerText
	if answerContent == "" {
		answerContent = "(no answer provided)"
	}
	if err := s.appendMessage(ctx, in.SessionID, domain.SenderInterviewee, answerContent, map[string]any{
		"questionId":       question.ID,
		"timeTakenSeconds": in.TimeTakenSecs,
		"autoSubmitted":    in.AutoSubmitted,
	}); err != nil {
		return SubmitResult{}, err
	}
	if err := s.appendMessage(ctx, in.SessionID, domain.SenderAI, evaluation.Feedback, map[string]any{
		"score":      evaluation.Score,
		"questionId": question.ID,
		"source":     evaluation.Source,
	}); err != nil {
		return SubmitResult{}, err
	}

	nextIndex := view.Session.CurrentQuestionIndex + 1
	isLast := nextIndex >= len(domain.DifficultyScript)

	var nextQuestion *domain.InterviewQuestion
	if isLast {
		completedAt := s.now()
		if err := s.sessions.Advance(ctx, in.SessionID, nextIndex, domain.SessionCompleted, &completedAt); err != nil {
			return SubmitResult{}, fmt.Errorf("op=interview.submit: %w", err)
		}
		if _, err := s.FinalizeSession(ctx, in.SessionID); err != nil {
			return SubmitResult{}, err
		}
	} else {
		if err := s.sessions.Advance(ctx, in.SessionID, nextIndex, domain.SessionActive, nil); err != nil {
			return SubmitResult{}, fmt.Errorf("op=interview.submit: %w", err)
		}
		for i := range view.Questions {
			if view.Questions[i].Order == nextIndex {
				nextQuestion = &view.Questions[i]
				break
			}
		}
		if nextQuestion != nil {
			if err := s.appendMessage(ctx, in.SessionID, domain.SenderAI, nextQuestion.Prompt, map[string]any{
				"difficulty": string(nextQuestion.Difficulty),
				"order":      nextQuestion.Order,
			}); err != nil {
				return SubmitResult{}, err
			}
		}
	}

	s.publishEvent(ctx, domain.SessionEvent{
		Type:        domain.EventAnswerRecorded,
		SessionID:   in.SessionID,
		CandidateID: view.Session.CandidateID,
		QuestionID:  question.ID,
		Score:       stored.Score,
	})

	updated, err := s.GetSession(ctx, in.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Answer: stored, NextQuestion: nextQuestion, Session: updated, ScoreSource: evaluation.Source}, nil
}

// replayResult serves the idempotent duplicate-submission path: existing
// answer plus the current session state, no mutation.
func (s *InterviewService) replayResult(ctx context.Context, sessionID string, existing domain.CandidateAnswer) (SubmitResult, error) {
	view, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	var next *domain.InterviewQuestion
	if view.Session.Status == domain.SessionActive {
		for i := range view.Questions {
			if view.Questions[i].Order == view.Session.CurrentQuestionIndex {
				next = &view.Questions[i]
				break
			}
		}
	}
	return SubmitResult{Answer: existing, NextQuestion: next, Session: view}, nil
}

func (s *InterviewService) evaluate(ctx context.Context, q domain.InterviewQuestion, answerText string, timeTaken int) Evaluation {
	limit := domain.TimeLimitSeconds(q.Difficulty)
	if s.ai.Enabled() {
		ev, err := s.ai.EvaluateAnswer(ctx, q.Prompt, q.ExpectedNote, answerText, q.Difficulty)
		if err == nil {
			return ev
		}
		s.log.Warn("ai evaluation failed, using heuristic",
			slog.String("question_id", q.ID),
			slog.Any("error", err))
	}
	return HeuristicScore(answerText, q.ExpectedNote, q.Difficulty, timeTaken, limit)
}

// FinalizeSession computes the final score and summary and stamps the session
// COMPLETED. Calling it on an already-finalized session returns the stored
// state untouched.
func (s *InterviewService) FinalizeSession(ctx context.Context, sessionID string) (domain.SessionView, error) {
	view, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if view.Session.Status == domain.SessionCompleted && view.Session.FinalScore != nil {
		return view, nil
	}

	answersByQuestion := make(map[string]domain.CandidateAnswer, len(view.Answers))
	for _, a := range view.Answers {
		answersByQuestion[a.QuestionID] = a
	}

	// Every script slot contributes to the mean; an unanswered question
	// counts as 0, not as exempt.
	scores := make([]ScoredQuestion, 0, len(view.Questions))
	var total float64
	for _, q := range view.Questions {
		score := 0.0
		if a, ok := answersByQuestion[q.ID]; ok {
			score = a.Score
		}
		total += score
		scores = append(scores, ScoredQuestion{Question: q, Score: score})
	}
	denominator := len(view.Questions)
	if denominator == 0 {
		denominator = 1
	}
	finalScore := total / float64(denominator)

	summary, summarySource := s.summarize(ctx, view, answersByQuestion, scores)

	completedAt := s.now()
	if err := s.sessions.Finalize(ctx, sessionID, finalScore, summary, completedAt); err != nil {
		return domain.SessionView{}, fmt.Errorf("op=interview.finalize: %w", err)
	}

	closing := fmt.Sprintf("Interview complete. Final score: %.1f/10. Summary: %s", finalScore, summary)
	if err := s.appendMessage(ctx, sessionID, domain.SenderSystem, closing, map[string]any{
		"summarySource": summarySource,
	}); err != nil {
		return domain.SessionView{}, err
	}

	s.publishEvent(ctx, domain.SessionEvent{
		Type:        domain.EventSessionCompleted,
		SessionID:   sessionID,
		CandidateID: view.Session.CandidateID,
		FinalScore:  finalScore,
	})

	return s.GetSession(ctx, sessionID)
}

func (s *InterviewService) summarize(ctx context.Context, view domain.SessionView, answersByQuestion map[string]domain.CandidateAnswer, scores []ScoredQuestion) (text, source string) {
	answered := 0
	for _, a := range view.Answers {
		if strings.TrimSpace(a.ResponseText) != "" {
			answered++
		}
	}
	if s.ai.Enabled() && answered > 0 {
		digests := make([]AnswerDigest, 0, len(view.Questions))
		for _, q := range view.Questions {
			a := answersByQuestion[q.ID]
			digests = append(digests, AnswerDigest{
				Difficulty:     q.Difficulty,
				QuestionPrompt: q.Prompt,
				Score:          a.Score,
				AnswerText:     a.ResponseText,
				Feedback:       a.Feedback,
			})
		}
		if summary, err := s.ai.SummarizeCandidate(ctx, view.Candidate, digests); err == nil {
			return summary, "ai"
		} else {
			s.log.Warn("ai summary failed, using deterministic builder",
				slog.String("session_id", view.Session.ID),
				slog.Any("error", err))
		}
	}
	answeredScores := scores
	if answered == 0 {
		answeredScores = nil
	}
	return BuildSummary(view.Candidate, answeredScores), "deterministic"
}

// ListCandidates returns candidates joined with their latest session. The
// finalScore sort runs here rather than in the store since it depends on the
// derived latest-interview join.
func (s *InterviewService) ListCandidates(ctx context.Context, filter domain.CandidateListFilter) ([]domain.CandidateListItem, error) {
	storeFilter := filter
	if filter.SortField == "finalScore" {
		storeFilter.SortField = "updatedAt"
		storeFilter.SortAsc = false
	}
	candidates, err := s.candidates.List(ctx, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("op=interview.list_candidates: %w", err)
	}

	items := make([]domain.CandidateListItem, 0, len(candidates))
	for _, c := range candidates {
		sessions, err := s.sessions.ListByCandidate(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("op=interview.list_candidates: %w", err)
		}
		item := domain.CandidateListItem{Candidate: c}
		if len(sessions) > 0 {
			latest := sessions[0]
			item.LatestSession = &latest
		}
		items = append(items, item)
	}

	if filter.SortField == "finalScore" {
		sort.SliceStable(items, func(i, j int) bool {
			a := latestScore(items[i])
			b := latestScore(items[j])
			if filter.SortAsc {
				return a < b
			}
			return a > b
		})
	}
	return items, nil
}

func latestScore(item domain.CandidateListItem) float64 {
	if item.LatestSession == nil || item.LatestSession.FinalScore == nil {
		return -1
	}
	return *item.LatestSession.FinalScore
}

// GetCandidateDetail returns the candidate with full interview history,
// newest session first.
func (s *InterviewService) GetCandidateDetail(ctx context.Context, candidateID string) (domain.CandidateDetail, error) {
	candidate, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return domain.CandidateDetail{}, fmt.Errorf("op=interview.candidate_detail: %w", err)
	}
	sessions, err := s.sessions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return domain.CandidateDetail{}, fmt.Errorf("op=interview.candidate_detail: %w", err)
	}
	detail := domain.CandidateDetail{Candidate: candidate}
	for _, session := range sessions {
		view, err := s.loadView(ctx, session)
		if err != nil {
			return domain.CandidateDetail{}, err
		}
		detail.Sessions = append(detail.Sessions, view)
	}
	return detail, nil
}

func (s *InterviewService) appendMessage(ctx context.Context, sessionID string, sender domain.MessageSender, content string, meta map[string]any) error {
	_, err := s.messages.Append(ctx, domain.ChatMessage{
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		Meta:      meta,
	})
	if err != nil {
		return fmt.Errorf("op=interview.append_message: %w", err)
	}
	return nil
}

func (s *InterviewService) publishEvent(ctx context.Context, ev domain.SessionEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed",
			slog.String("type", ev.Type),
			slog.String("session_id", ev.SessionID),
			slog.Any("error", err))
	}
}
