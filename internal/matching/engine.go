package matching

import (
	"context"
	"math"
	"strings"

	"skillsnap/internal/nlp"
	"skillsnap/internal/similarity"
	"skillsnap/internal/skills"
	"skillsnap/internal/types"
)

// Scoring policy.
const (
	SkillWeight    = 0.5
	SemanticWeight = 0.5

	StrongThreshold   = 70.0
	ModerateThreshold = 40.0

	// KeywordThreshold is the final score below which keyword optimization is suggested.
	KeywordThreshold = 70.0

	// BaselineScore is reported for a general audit, where there is nothing to match against.
	BaselineScore = 85.0

	DefaultMinJobDescriptionLength = 10

	missingSkillsInSuggestion = 3
	keywordSuggestion         = "Optimize keywords for better ATS match."
	acquirePrefix             = "Consider acquiring: "
)

// Engine fuses skill overlap and semantic similarity into an ATS-style analysis.
type Engine struct {
	feedback     *FeedbackGenerator
	minJobLength int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinJobDescriptionLength sets the trimmed length below which a job description is ignored.
func WithMinJobDescriptionLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minJobLength = n
		}
	}
}

// NewEngine creates an engine. feedback may be nil, in which case general audits use rules only.
func NewEngine(feedback *FeedbackGenerator, opts ...Option) *Engine {
	if feedback == nil {
		feedback = NewFeedbackGenerator(nil, nil)
	}
	e := &Engine{feedback: feedback, minJobLength: DefaultMinJobDescriptionLength}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsComparative reports whether jobDescription is long enough to score against.
func (e *Engine) IsComparative(jobDescription string) bool {
	return len([]rune(strings.TrimSpace(jobDescription))) >= e.minJobLength
}

// Score analyzes resumeText against jobDescription using the loaded models. A short or empty job
// description selects a general audit. Similarity failures are returned unchanged; no degraded
// score is produced.
func (e *Engine) Score(ctx context.Context, models *nlp.Models, resumeText, jobDescription string) (*types.AnalysisResult, error) {
	if !e.IsComparative(jobDescription) {
		return e.audit(ctx, models, resumeText), nil
	}

	resumeSkills := skills.Extract(resumeText, models.Vocabulary)
	jobSkills := skills.Extract(jobDescription, models.Vocabulary)
	matched := skills.Intersect(resumeSkills, jobSkills)
	missing := skills.Difference(jobSkills, resumeSkills)

	semantic, err := models.Scorer.Similarity(ctx, resumeText, jobDescription)
	if err != nil {
		return nil, err
	}

	skill := semantic
	if len(jobSkills) > 0 {
		skill = float64(len(matched)) / float64(len(jobSkills)) * 100
	}
	final := similarity.Clamp(Round1(SkillWeight*skill + SemanticWeight*semantic))

	var suggestions []string
	if len(missing) > 0 {
		n := min(len(missing), missingSkillsInSuggestion)
		suggestions = append(suggestions, acquirePrefix+strings.Join(missing[:n], ", "))
	}
	if final < KeywordThreshold {
		suggestions = append(suggestions, keywordSuggestion)
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	semanticRounded := Round1(semantic)
	skillRounded := Round1(skill)
	return &types.AnalysisResult{
		ATSScore:        final,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		ExperienceMatch: Tier(semantic),
		Suggestions:     suggestions,
		SemanticScore:   &semanticRounded,
		SkillScore:      &skillRounded,
		Mode:            types.ModeComparative,
	}, nil
}

func (e *Engine) audit(ctx context.Context, models *nlp.Models, resumeText string) *types.AnalysisResult {
	return &types.AnalysisResult{
		ATSScore:        BaselineScore,
		MatchedSkills:   skills.Extract(resumeText, models.Vocabulary),
		MissingSkills:   []string{},
		ExperienceMatch: types.ExperienceStrong,
		Suggestions:     e.feedback.Generate(ctx, resumeText),
		Mode:            types.ModeGeneralAudit,
	}
}

// Tier maps a semantic score to an experience tier.
func Tier(semantic float64) types.ExperienceMatch {
	switch {
	case semantic > StrongThreshold:
		return types.ExperienceStrong
	case semantic > ModerateThreshold:
		return types.ExperienceModerate
	default:
		return types.ExperienceWeak
	}
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
