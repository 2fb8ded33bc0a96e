// Package usecase contains the interview engine business logic.
package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FocusArea is a suggested interview topic with the reason it was picked.
type FocusArea struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason,omitempty"`
}

// Insights is structured signal derived from a resume, either by keyword
// matching or by an AI pass, and merged before question generation.
type Insights struct {
	Highlights      []string    `json:"highlights,omitempty"`
	Skills          []string    `json:"skills,omitempty"`
	Roles           []string    `json:"roles,omitempty"`
	FocusAreas      []FocusArea `json:"focusAreas,omitempty"`
	ExperienceYears int         `json:"experienceYears,omitempty"`
	UniqueDetails   []string    `json:"uniqueDetails,omitempty"`
	ProjectTypes    []string    `json:"projectTypes,omitempty"`
	IndustryContext string      `json:"industryContext,omitempty"`
}

type skillMatcher struct {
	name      string
	patterns  []string
	highlight string
	focus     FocusArea
}

var defaultFocusTopics = []FocusArea{
	{Topic: "React component architecture", Reason: "Core capability for building the interview experience across complex UIs."},
	{Topic: "Node.js API design", Reason: "Essential to confirm the candidate can deliver robust backend services."},
	{Topic: "Data modeling and persistence", Reason: "Full-stack roles require thoughtful database and ORM design decisions."},
}

var skillMatchers = []skillMatcher{
	{
		name:      "React",
		patterns:  []string{"react", "react.js", "reactjs", "next.js", "nextjs"},
		highlight: "Hands-on experience shipping React applications.",
		focus:     FocusArea{Topic: "Advanced React patterns", Reason: "Resume highlights React usage; validate depth with hooks, context, and performance tuning."},
	},
	{
		name:      "Redux",
		patterns:  []string{"redux", "redux-toolkit", "zustand", "mobx"},
		highlight: "Familiar with state management libraries.",
		focus:     FocusArea{Topic: "Scaling state management", Reason: "Explore trade-offs the candidate makes when structuring shared state."},
	},
	{
		name:      "TypeScript",
		patterns:  []string{"typescript", "tsconfig"},
		highlight: "Worked with TypeScript in production.",
		focus:     FocusArea{Topic: "TypeScript type design", Reason: "Assess ability to design resilient type systems for large codebases."},
	},
	{
		name:      "Node.js",
		patterns:  []string{"node.js", "nodejs", "node ", "express", "koa", "nestjs"},
		highlight: "Backend delivery experience with Node.js or Express services.",
		focus:     FocusArea{Topic: "Node.js service design", Reason: "Discuss how the candidate structures APIs, middleware, and error handling."},
	},
	{
		name:      "GraphQL",
		patterns:  []string{"graphql", "apollo", "hasura"},
		highlight: "Exposure to GraphQL ecosystems.",
		focus:     FocusArea{Topic: "GraphQL schema design", Reason: "Validate ability to craft schemas and resolve complex data graphs."},
	},
	{
		name:      "Testing",
		patterns:  []string{"jest", "testing library", "cypress", "playwright"},
		highlight: "Invests in automated testing suites.",
		focus:     FocusArea{Topic: "Testing strategy", Reason: "Understand how the candidate balances unit, integration, and e2e coverage."},
	},
	{
		name:      "DevOps",
		patterns:  []string{"docker", "kubernetes", "aws", "azure", "gcp", "terraform"},
		highlight: "Comfortable with cloud or container tooling.",
		focus:     FocusArea{Topic: "Deployment and scalability", Reason: "Probe approaches to deploying and scaling full-stack workloads safely."},
	},
	{
		name:      "Databases",
		patterns:  []string{"mongodb", "postgres", "mysql", "sql", "prisma", "sequelize", "typeorm"},
		highlight: "Worked across relational or document data stores.",
		focus:     FocusArea{Topic: "Database modeling", Reason: "Discuss how the candidate models entities and handles migrations."},
	},
	{
		name:      "CI/CD",
		patterns:  []string{"ci/cd", "continuous integration", "jenkins", "github actions", "gitlab ci", "pipeline"},
		highlight: "Familiar with continuous integration and delivery practices.",
		focus:     FocusArea{Topic: "CI/CD automation", Reason: "Gauge ability to automate testing, build, and deploy pipelines."},
	},
	{
		name:      "Real-time",
		patterns:  []string{"websocket", "socket.io", "real-time", "signalr"},
		highlight: "Experienced building collaborative, real-time experiences.",
		focus:     FocusArea{Topic: "Real-time collaboration design", Reason: "Understand strategies for synchronization, events, and scaling live features."},
	},
}

// coreExpected skills get a fallback focus area when absent from the resume so
// every session carries both frontend and backend coverage intent.
var coreExpected = []struct {
	name     string
	fallback FocusArea
}{
	{
		name:     "React",
		fallback: FocusArea{Topic: "React fundamentals", Reason: "Resume did not strongly emphasize React; ensure front-end foundations are in place."},
	},
	{
		name:     "Node.js",
		fallback: FocusArea{Topic: "Node.js fundamentals", Reason: "Resume is light on backend delivery; confirm comfort building Node.js APIs."},
	},
}

var (
	roleRe  = regexp.MustCompile(`(?i)(senior|lead|principal|staff|full\s*stack|frontend|back\s*end|software|engineering\s*manager)[^\n\r,]{0,40}`)
	yearsRe = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years|yrs)`)
)

func upsertFocusArea(areas []FocusArea, f FocusArea) []FocusArea {
	if f.Topic == "" {
		return areas
	}
	key := strings.ToLower(f.Topic)
	for _, a := range areas {
		if strings.ToLower(a.Topic) == key {
			return areas
		}
	}
	return append(areas, f)
}

// uniqueStrings deduplicates case-insensitively preserving first-seen order;
// limit <= 0 means unbounded.
func uniqueStrings(values []string, limit int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func extractRoles(text string) []string {
	if text == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var roles []string
	for _, m := range roleRe.FindAllString(text, -1) {
		v := strings.TrimSpace(strings.ReplaceAll(strings.Join(strings.Fields(m), " "), ".", ""))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		roles = append(roles, v)
		if len(roles) == 5 {
			break
		}
	}
	return roles
}

// deriveExperienceYears returns the largest "<N> years" mention, or 0 when the
// resume carries none.
func deriveExperienceYears(text string) int {
	maxYears := 0
	for _, m := range yearsRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxYears {
			maxYears = n
		}
	}
	return maxYears
}

// DeriveInsights scans resume text against the fixed skill-matcher table and
// returns structured signal for question generation. Returns nil for empty
// input.
func DeriveInsights(text string) *Insights {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	normalized := strings.ToLower(text)

	var (
		skills     []string
		focusAreas []FocusArea
		highlights []string
	)
	detected := map[string]struct{}{}
	for _, m := range skillMatchers {
		for _, p := range m.patterns {
			if strings.Contains(normalized, p) {
				if _, ok := detected[m.name]; !ok {
					detected[m.name] = struct{}{}
					skills = append(skills, m.name)
					highlights = append(highlights, m.highlight)
					focusAreas = upsertFocusArea(focusAreas, m.focus)
				}
				break
			}
		}
	}

	for _, core := range coreExpected {
		if _, ok := detected[core.name]; !ok {
			focusAreas = upsertFocusArea(focusAreas, core.fallback)
		}
	}
	if len(focusAreas) == 0 {
		for _, f := range defaultFocusTopics {
			focusAreas = upsertFocusArea(focusAreas, f)
		}
	}

	years := deriveExperienceYears(text)
	if years > 0 {
		highlights = append(highlights, fmt.Sprintf("Approximately %d+ years of experience noted in the resume.", years))
	}

	roles := extractRoles(text)
	for i, role := range roles {
		if i == 3 {
			break
		}
		highlights = append(highlights, fmt.Sprintf("Experience as %s.", role))
	}

	if len(skills) > 0 {
		highlights = append(highlights, fmt.Sprintf("Key tools mentioned: %s.", strings.Join(skills, ", ")))
	}

	if len(focusAreas) > 5 {
		focusAreas = focusAreas[:5]
	}
	return &Insights{
		Highlights:      uniqueStrings(highlights, 5),
		Skills:          uniqueStrings(skills, 0),
		Roles:           roles,
		FocusAreas:      focusAreas,
		ExperienceYears: years,
	}
}

// MergeInsights combines keyword-derived and AI-derived insight sets. Nil is
// returned only when both inputs are nil. Arrays concatenate primary-then-
// secondary with case-insensitive first-seen dedup; experience years and
// industry context prefer the secondary value when present.
func MergeInsights(primary, secondary *Insights) *Insights {
	if primary == nil && secondary == nil {
		return nil
	}
	base, extra := primary, secondary
	if base == nil {
		base = &Insights{}
	}
	if extra == nil {
		extra = &Insights{}
	}

	var focus []FocusArea
	for _, f := range append(append([]FocusArea{}, base.FocusAreas...), extra.FocusAreas...) {
		focus = upsertFocusArea(focus, f)
	}
	if len(focus) > 6 {
		focus = focus[:6]
	}

	years := extra.ExperienceYears
	if years == 0 {
		years = base.ExperienceYears
	}
	industry := extra.IndustryContext
	if industry == "" {
		industry = base.IndustryContext
	}

	return &Insights{
		Highlights:      uniqueStrings(append(append([]string{}, base.Highlights...), extra.Highlights...), 7),
		Skills:          uniqueStrings(append(append([]string{}, base.Skills...), extra.Skills...), 12),
		Roles:           uniqueStrings(append(append([]string{}, base.Roles...), extra.Roles...), 6),
		FocusAreas:      focus,
		ExperienceYears: years,
		UniqueDetails:   uniqueStrings(append(append([]string{}, base.UniqueDetails...), extra.UniqueDetails...), 5),
		ProjectTypes:    uniqueStrings(append(append([]string{}, base.ProjectTypes...), extra.ProjectTypes...), 8),
		IndustryContext: industry,
	}
}
