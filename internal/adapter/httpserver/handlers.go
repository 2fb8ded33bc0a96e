package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Interviews *usecase.InterviewService
	Resumes    *usecase.ResumeService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	TikaCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, interviews *usecase.InterviewService, resumes *usecase.ResumeService, dbCheck, redisCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Interviews: interviews, Resumes: resumes, DBCheck: dbCheck, RedisCheck: redisCheck, TikaCheck: tikaCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// allowedResumeExt enforces the upload allowlist: .pdf, .docx, .txt.
func allowedResumeExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx") || strings.HasSuffix(n, ".txt")
}

func allowedResumeMIME(m string) bool {
	m = strings.ToLower(m)
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// StartInterviewHandler creates a candidate session with all six questions.
// It accepts either application/json with candidate identity or
// multipart/form-data carrying a resume file that fills in missing fields.
func (s *Server) StartInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := s.parseStartRequest(w, r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}

		view, err := s.Interviews.StartInterview(r.Context(), in)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.SessionsStartedTotal.Inc()
		writeJSON(w, http.StatusCreated, toSessionViewPayload(view, false))
	}
}

func (s *Server) parseStartRequest(w http.ResponseWriter, r *http.Request) (usecase.StartInterviewInput, error) {
	var in usecase.StartInterviewInput

	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return in, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		in.Name = strings.TrimSpace(r.FormValue("name"))
		in.Email = strings.TrimSpace(r.FormValue("email"))
		in.Phone = strings.TrimSpace(r.FormValue("phone"))

		file, header, err := r.FormFile("resume")
		if err == nil {
			defer func() { _ = file.Close() }()
			profile, perr := s.ingestResume(r.Context(), header.Filename, file)
			if perr != nil {
				return in, perr
			}
			in.ResumeText = profile.Text
			in.ResumeName = header.Filename
			in.Insights = profile.Insights
			if in.Name == "" {
				in.Name = profile.Contact.Name
			}
			if in.Email == "" {
				in.Email = profile.Contact.Email
			}
			if in.Phone == "" {
				in.Phone = profile.Contact.Phone
			}
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email" validate:"required,email"`
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return in, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument)
		}
		if err := getValidator().Struct(req); err != nil {
			return in, fmt.Errorf("%w: validation failed: %v", domain.ErrInvalidArgument, validationDetails(err))
		}
		in.Name = strings.TrimSpace(req.Name)
		in.Email = strings.TrimSpace(req.Email)
		in.Phone = strings.TrimSpace(req.Phone)
	}

	if in.Email == "" {
		return in, fmt.Errorf("%w: email is required (provide it or upload a resume containing one)", domain.ErrInvalidArgument)
	}
	return in, nil
}

// ingestResume spools the upload to a temp file and runs extraction plus
// insight derivation.
func (s *Server) ingestResume(ctx context.Context, fileName string, file io.Reader) (usecase.ResumeProfile, error) {
	if !allowedResumeExt(fileName) {
		return usecase.ResumeProfile{}, fmt.Errorf("%w: unsupported resume extension %q", domain.ErrInvalidArgument, filepath.Ext(fileName))
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return usecase.ResumeProfile{}, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err)
	}
	if m := mimetype.Detect(data); !allowedResumeMIME(m.String()) {
		return usecase.ResumeProfile{}, fmt.Errorf("%w: unsupported resume content type %q", domain.ErrInvalidArgument, m.String())
	}

	tmp, err := os.CreateTemp("", "resume-*"+filepath.Ext(fileName))
	if err != nil {
		return usecase.ResumeProfile{}, fmt.Errorf("op=http.ingest_resume: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return usecase.ResumeProfile{}, fmt.Errorf("op=http.ingest_resume: %w", err)
	}
	return s.Resumes.Ingest(ctx, fileName, tmp.Name())
}

// UploadResumeHandler extracts text, contact guesses and insights from a
// resume file without starting a session. Frontends use it to prefill the
// interview start form.
func (s *Server) UploadResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file is required", domain.ErrInvalidArgument), nil)
			return
		}
		defer func() { _ = file.Close() }()

		profile, err := s.ingestResume(r.Context(), header.Filename, file)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toResumePayload(header.Filename, profile))
	}
}

// GetSessionHandler returns the full session view.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		view, err := s.Interviews.GetSession(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionViewPayload(view, false))
	}
}

// SubmitAnswerHandler records one answer for the session's current question.
func (s *Server) SubmitAnswerHandler() http.HandlerFunc {
	type submitResponse struct {
		Answer       answerPayload      `json:"answer"`
		NextQuestion *questionPayload   `json:"next_question,omitempty"`
		Session      sessionViewPayload `json:"session"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if sessionID == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			QuestionID    string `json:"question_id" validate:"required"`
			AnswerText    string `json:"answer_text" validate:"max=20000"`
			TimeTakenSecs int    `json:"time_taken_secs" validate:"gte=0"`
			AutoSubmitted bool   `json:"auto_submitted"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		res, err := s.Interviews.SubmitAnswer(r.Context(), usecase.SubmitAnswerInput{
			SessionID:     sessionID,
			QuestionID:    req.QuestionID,
			AnswerText:    req.AnswerText,
			TimeTakenSecs: req.TimeTakenSecs,
			AutoSubmitted: req.AutoSubmitted,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}

		if res.ScoreSource != "" {
			observability.ObserveAnswerScored(res.ScoreSource, res.Answer.Score)
			if res.Session.Session.Status == domain.SessionCompleted && res.Session.Session.FinalScore != nil {
				observability.ObserveSessionCompleted(*res.Session.Session.FinalScore)
			}
		}

		out := submitResponse{
			Answer:  toAnswerPayload(res.Answer),
			Session: toSessionViewPayload(res.Session, false),
		}
		if res.NextQuestion != nil {
			q := toQuestionPayload(*res.NextQuestion, false)
			out.NextQuestion = &q
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// FinalizeSessionHandler closes out an abandoned session: it scores whatever
// was answered and stamps COMPLETED. Already-finalized sessions are returned
// unchanged.
func (s *Server) FinalizeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		view, err := s.Interviews.FinalizeSession(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionViewPayload(view, false))
	}
}

// ListCandidatesHandler returns candidates with their latest session for the
// interviewer dashboard.
func (s *Server) ListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := domain.CandidateListFilter{
			Search:    strings.TrimSpace(r.URL.Query().Get("search")),
			SortField: r.URL.Query().Get("sort"),
			SortAsc:   strings.EqualFold(r.URL.Query().Get("order"), "asc"),
		}
		items, err := s.Interviews.ListCandidates(r.Context(), filter)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]candidateListItemPayload, 0, len(items))
		for _, it := range items {
			p := candidateListItemPayload{Candidate: toCandidatePayload(it.Candidate)}
			if it.LatestSession != nil {
				sp := toSessionPayload(*it.LatestSession)
				p.LatestSession = &sp
			}
			out = append(out, p)
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
	}
}

// CandidateDetailHandler returns the full interview history for one
// candidate, expected answer notes included.
func (s *Server) CandidateDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: candidate id missing", domain.ErrInvalidArgument), nil)
			return
		}
		detail, err := s.Interviews.GetCandidateDetail(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := candidateDetailPayload{
			Candidate: toCandidatePayload(detail.Candidate),
			Sessions:  make([]sessionViewPayload, 0, len(detail.Sessions)),
		}
		for _, v := range detail.Sessions {
			out.Sessions = append(out.Sessions, toSessionViewPayload(v, true))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ReadyzHandler probes the backing services.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		var checks []check
		run := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
				return
			}
			checks = append(checks, check{Name: name, OK: true})
		}
		run("db", s.DBCheck)
		run("redis", s.RedisCheck)
		run("tika", s.TikaCheck)

		status := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}
