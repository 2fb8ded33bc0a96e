package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Total LLM tokens consumed, split by prompt/completion",
		},
		[]string{"provider", "model", "kind"},
	)

	SessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Total number of interview sessions created",
		},
	)
	SessionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Total number of interview sessions finalized",
		},
	)
	QuestionsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_questions_generated_total",
			Help: "Questions generated per source tier and difficulty",
		},
		[]string{"source", "difficulty"},
	)
	AnswersScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_answers_scored_total",
			Help: "Answers scored, split by evaluation source",
		},
		[]string{"source"},
	)

	// Outcome distributions
	AnswerScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_answer_score",
			Help:    "Distribution of per-answer scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
	FinalScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_final_score",
			Help:    "Distribution of session final scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AITokensTotal)
	prometheus.MustRegister(SessionsStartedTotal)
	prometheus.MustRegister(SessionsCompletedTotal)
	prometheus.MustRegister(QuestionsGeneratedTotal)
	prometheus.MustRegister(AnswersScoredTotal)
	prometheus.MustRegister(AnswerScoreHistogram)
	prometheus.MustRegister(FinalScoreHistogram)
	prometheus.MustRegister(CircuitBreakerStatus)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveAITokens records prompt and completion token counts for a call.
func ObserveAITokens(provider, model string, promptTokens, completionTokens int) {
	AITokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	AITokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// ObserveQuestionGenerated records which tier served a question slot.
func ObserveQuestionGenerated(source, difficulty string) {
	QuestionsGeneratedTotal.WithLabelValues(source, difficulty).Inc()
}

// ObserveAnswerScored records a scored answer and its provenance.
func ObserveAnswerScored(source string, score float64) {
	AnswersScoredTotal.WithLabelValues(source).Inc()
	if score >= 0 && score <= 10 {
		AnswerScoreHistogram.Observe(score)
	}
}

// ObserveSessionCompleted records a finalized session's score.
func ObserveSessionCompleted(finalScore float64) {
	SessionsCompletedTotal.Inc()
	if finalScore >= 0 && finalScore <= 10 {
		FinalScoreHistogram.Observe(finalScore)
	}
}
