package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+\d{1,3}[\s-]?)?(\(?\d{3}\)?[\s-]?)?\d{3}[\s-]?\d{4}`)
	digitRe = regexp.MustCompile(`[@\d]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// ContactInfo is the best-effort identity guess pulled from resume text.
type ContactInfo struct {
	Name  string
	Email string
	Phone string
}

// ExtractContact scans resume text for a likely name (first short non-empty
// line without digits or an @), the first email and the first phone number.
func ExtractContact(text string) ContactInfo {
	var info ContactInfo
	if text == "" {
		return info
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) <= 60 && !digitRe.MatchString(line) {
			info.Name = line
		}
		break
	}
	info.Email = emailRe.FindString(text)
	if m := phoneRe.FindString(text); m != "" {
		info.Phone = strings.TrimSpace(spaceRe.ReplaceAllString(m, " "))
	}
	return info
}

// ResumeProfile is everything the interview flow needs from an uploaded
// resume: sanitized text, contact guesses and merged insights.
type ResumeProfile struct {
	Text     string
	Contact  ContactInfo
	Insights *Insights
}

// ResumeService turns uploaded resume files into interview context.
type ResumeService struct {
	extractor domain.TextExtractor
	ai        AIAssistant
	log       *slog.Logger
}

func NewResumeService(extractor domain.TextExtractor, ai AIAssistant, log *slog.Logger) *ResumeService {
	if log == nil {
		log = slog.Default()
	}
	return &ResumeService{extractor: extractor, ai: ai, log: log}
}

// Ingest extracts text from the stored file, derives keyword insights and,
// when the provider is up, merges in the AI insight pass. AI failure degrades
// to the keyword-only insight set.
func (s *ResumeService) Ingest(ctx context.Context, fileName, path string) (ResumeProfile, error) {
	raw, err := s.extractor.ExtractPath(ctx, fileName, path)
	if err != nil {
		return ResumeProfile{}, fmt.Errorf("op=resume.ingest: %w", err)
	}
	text := textx.SanitizeText(raw)
	profile := ResumeProfile{
		Text:     text,
		Contact:  ExtractContact(text),
		Insights: DeriveInsights(text),
	}

	if s.ai.Enabled() && text != "" {
		aiInsights, err := s.ai.SummarizeResume(ctx, text)
		if err != nil {
			s.log.Warn("ai resume analysis failed, keeping keyword insights",
				slog.String("file", fileName),
				slog.Any("error", err))
		} else {
			profile.Insights = MergeInsights(profile.Insights, aiInsights)
		}
	}
	return profile, nil
}
