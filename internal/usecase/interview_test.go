package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

func startSession(t *testing.T, svc *usecase.InterviewService, email string) domain.SessionView {
	t.Helper()
	view, err := svc.StartInterview(context.Background(), usecase.StartInterviewInput{
		Name:       "Jordan Smith",
		Email:      email,
		Phone:      "555 123 4567",
		ResumeText: "Senior engineer with 7 years of React and Node.js experience.",
	})
	require.NoError(t, err)
	return view
}

func TestStartInterview_RequiresEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	_, err := svc.StartInterview(context.Background(), usecase.StartInterviewInput{Name: "No Email"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestStartInterview_CreatesFullScript(t *testing.T) {
	t.Parallel()
	svc, _, pub := newTestService(nil)
	view := startSession(t, svc, "Jordan@Example.COM")

	assert.Equal(t, domain.SessionActive, view.Session.Status)
	assert.Zero(t, view.Session.CurrentQuestionIndex)
	assert.Equal(t, "jordan@example.com", view.Candidate.Email)

	require.Len(t, view.Questions, 6)
	for i, q := range view.Questions {
		assert.Equal(t, i, q.Order)
		assert.Equal(t, domain.DifficultyScript[i], q.Difficulty)
	}

	require.Len(t, view.Messages, 2)
	assert.Equal(t, domain.SenderSystem, view.Messages[0].Sender)
	assert.Contains(t, view.Messages[0].Content, "Interview started")
	assert.Contains(t, view.Messages[0].Meta, "resumeSummary")
	assert.Equal(t, domain.SenderAI, view.Messages[1].Sender)
	assert.Equal(t, view.Questions[0].Prompt, view.Messages[1].Content)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventSessionStarted, events[0].Type)
	assert.Equal(t, view.Session.ID, events[0].SessionID)
}

func TestStartInterview_UpsertsCandidateByEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	first := startSession(t, svc, "same@person.dev")
	second := startSession(t, svc, "SAME@person.dev")
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
}

func TestSubmitAnswer_FullRun(t *testing.T) {
	t.Parallel()
	svc, _, pub := newTestService(nil)
	view := startSession(t, svc, "run@test.dev")

	sessionID := view.Session.ID
	for i, q := range view.Questions {
		res, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
			SessionID:     sessionID,
			QuestionID:    q.ID,
			AnswerText:    "A reasonably detailed answer touching on state, components and services.",
			TimeTakenSecs: 10,
		})
		require.NoError(t, err, "slot %d", i)
		assert.Equal(t, q.ID, res.Answer.QuestionID)
		assert.GreaterOrEqual(t, res.Answer.Score, 0.0)
		assert.LessOrEqual(t, res.Answer.Score, 10.0)

		if i < 5 {
			require.NotNil(t, res.NextQuestion, "slot %d", i)
			assert.Equal(t, i+1, res.NextQuestion.Order)
			assert.Equal(t, i+1, res.Session.Session.CurrentQuestionIndex)
			assert.Equal(t, domain.SessionActive, res.Session.Session.Status)
		} else {
			assert.Nil(t, res.NextQuestion)
			assert.Equal(t, 6, res.Session.Session.CurrentQuestionIndex)
			assert.Equal(t, domain.SessionCompleted, res.Session.Session.Status)
			require.NotNil(t, res.Session.Session.FinalScore)
			require.NotNil(t, res.Session.Session.Summary)
			require.NotNil(t, res.Session.Session.CompletedAt)
		}
	}

	final, err := svc.GetSession(context.Background(), sessionID)
	require.NoError(t, err)

	// system banner + q1 + 6x(answer + feedback) + 5 next-question prompts + closing
	assert.Len(t, final.Messages, 2+12+5+1)
	closing := final.Messages[len(final.Messages)-1]
	assert.Equal(t, domain.SenderSystem, closing.Sender)
	assert.Contains(t, closing.Content, "Interview complete. Final score:")
	assert.Equal(t, "deterministic", closing.Meta["summarySource"])

	var total float64
	for _, a := range final.Answers {
		total += a.Score
	}
	assert.InDelta(t, total/6, *final.Session.FinalScore, 0.001)

	events := pub.Events()
	require.Len(t, events, 8)
	assert.Equal(t, domain.EventSessionStarted, events[0].Type)
	for _, ev := range events[1:7] {
		assert.Equal(t, domain.EventAnswerRecorded, ev.Type)
	}
	assert.Equal(t, domain.EventSessionCompleted, events[7].Type)
}

func TestSubmitAnswer_DuplicateIsIdempotent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "dup@test.dev")
	q := view.Questions[0]

	first, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: q.ID,
		AnswerText: "original answer",
	})
	require.NoError(t, err)

	second, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: q.ID,
		AnswerText: "a different retry payload",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Answer.ID, second.Answer.ID)
	assert.Equal(t, "original answer", second.Answer.ResponseText)
	assert.Equal(t, 1, second.Session.Session.CurrentQuestionIndex, "duplicate must not re-advance")
	require.NotNil(t, second.NextQuestion)
	assert.Equal(t, 1, second.NextQuestion.Order)
}

func TestSubmitAnswer_OutOfOrderRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "order@test.dev")

	_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: view.Questions[2].ID,
		AnswerText: "skipping ahead",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	current, err := svc.GetSession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Zero(t, current.Session.CurrentQuestionIndex)
	assert.Empty(t, current.Answers)
}

func TestSubmitAnswer_UnknownSessionAndQuestion(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "missing@test.dev")

	_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  "nope",
		QuestionID: view.Questions[0].ID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: "nope",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitAnswer_CompletedSessionRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "done@test.dev")

	for _, q := range view.Questions {
		_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
			SessionID:  view.Session.ID,
			QuestionID: q.ID,
			AnswerText: "answer",
		})
		require.NoError(t, err)
	}

	// A brand-new question id against the completed session.
	_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: "any",
		AnswerText: "late",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFinalizeSession_MissingAnswersCountAsZero(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "partial@test.dev")

	var answered float64
	for _, q := range view.Questions[:2] {
		res, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
			SessionID:  view.Session.ID,
			QuestionID: q.ID,
			AnswerText: "a short answer about components and state handling",
		})
		require.NoError(t, err)
		answered += res.Answer.Score
	}

	final, err := svc.FinalizeSession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, final.Session.Status)
	require.NotNil(t, final.Session.FinalScore)
	assert.InDelta(t, answered/6, *final.Session.FinalScore, 0.001)
}

func TestFinalizeSession_Idempotent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "idem@test.dev")

	first, err := svc.FinalizeSession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	messagesAfterFirst := len(first.Messages)

	second, err := svc.FinalizeSession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Session.FinalScore, *second.Session.FinalScore)
	assert.Equal(t, *first.Session.Summary, *second.Session.Summary)
	assert.Len(t, second.Messages, messagesAfterFirst, "finalize must not append twice")
}

func TestFinalizeSession_NoAnswersSummary(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	view := startSession(t, svc, "silent@test.dev")

	final, err := svc.FinalizeSession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Session.Summary)
	assert.Equal(t, "Interview session ended before any questions were answered.", *final.Session.Summary)
	require.NotNil(t, final.Session.FinalScore)
	assert.Zero(t, *final.Session.FinalScore)
}

func TestSubmitAnswer_AIScoringPreferred(t *testing.T) {
	t.Parallel()
	// First 6 calls generate questions, the 7th scores the answer.
	responses := make([]string, 0, 7)
	for i := 0; i < 6; i++ {
		responses = append(responses, `{"prompt":"ai q `+string(rune('a'+i))+`","rubric":["r"],"topic":"t`+string(rune('a'+i))+`"}`)
	}
	responses = append(responses, `{"score":9.5,"feedback":"Excellent depth."}`)
	svc, _, _ := newTestService(&scriptedAI{responses: responses})

	view := startSession(t, svc, "ai@test.dev")
	res, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: view.Questions[0].ID,
		AnswerText: "my answer",
	})
	require.NoError(t, err)
	assert.Equal(t, 9.5, res.Answer.Score)
	assert.Equal(t, "Excellent depth.", res.Answer.Feedback)
}

func TestSubmitAnswer_AIFailureFallsBackToHeuristic(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(failingAI{})

	view := startSession(t, svc, "fallback@test.dev")
	res, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
		SessionID:  view.Session.ID,
		QuestionID: view.Questions[0].ID,
		AnswerText: "an answer that still deserves a deterministic score",
	})
	require.NoError(t, err)
	assert.Greater(t, res.Answer.Score, 0.0)
	assert.NotEmpty(t, res.Answer.Feedback)
}

func TestListCandidates_FinalScoreSort(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)

	strong := startSession(t, svc, "strong@test.dev")
	for _, q := range strong.Questions {
		_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
			SessionID:     strong.Session.ID,
			QuestionID:    q.ID,
			AnswerText:    "a thorough answer about components state hooks services apis databases deployment testing and more detail to earn the length bonus across every single question asked here today",
			TimeTakenSecs: 5,
		})
		require.NoError(t, err)
	}

	weak := startSession(t, svc, "weak@test.dev")
	for _, q := range weak.Questions {
		_, err := svc.SubmitAnswer(context.Background(), usecase.SubmitAnswerInput{
			SessionID:     weak.Session.ID,
			QuestionID:    q.ID,
			AnswerText:    "",
			TimeTakenSecs: 500,
		})
		require.NoError(t, err)
	}

	startSession(t, svc, "unscored@test.dev")

	items, err := svc.ListCandidates(context.Background(), domain.CandidateListFilter{SortField: "finalScore"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "strong@test.dev", items[0].Candidate.Email)
	assert.Equal(t, "weak@test.dev", items[1].Candidate.Email)
	assert.Equal(t, "unscored@test.dev", items[2].Candidate.Email)
}

func TestListCandidates_Search(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	startSession(t, svc, "alice@corp.dev")
	startSession(t, svc, "bob@corp.dev")

	items, err := svc.ListCandidates(context.Background(), domain.CandidateListFilter{Search: "alice"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alice@corp.dev", items[0].Candidate.Email)
	require.NotNil(t, items[0].LatestSession)
}

func TestGetCandidateDetail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	first := startSession(t, svc, "history@test.dev")
	second := startSession(t, svc, "history@test.dev")

	detail, err := svc.GetCandidateDetail(context.Background(), first.Candidate.ID)
	require.NoError(t, err)
	require.Len(t, detail.Sessions, 2)
	assert.Equal(t, second.Session.ID, detail.Sessions[0].Session.ID, "newest session first")
	assert.Equal(t, first.Session.ID, detail.Sessions[1].Session.ID)
	assert.Len(t, detail.Sessions[0].Questions, 6)
}

func TestGetCandidateDetail_NotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(nil)
	_, err := svc.GetCandidateDetail(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
