package matching

import (
	"context"
	"hash/fnv"
	"slices"
	"strings"
	"unicode"

	"skillsnap/internal/errors"
	"skillsnap/internal/types"
)

// SuggestionCount is the number of suggestions a general audit always returns.
const SuggestionCount = 3

// Rule-based suggestions, checked in this order.
const (
	SuggestQuantify      = "Quantify your achievements! Use numbers (e.g., 'Improved efficiency by 20%') to prove impact."
	SuggestExperience    = "Ensure you have a clearly labeled 'Professional Experience' section."
	SuggestEducation     = "Don't forget to include an 'Education' section with your degree and year."
	SuggestCollaboration = "Highlight teamwork and collaboration. Use words like 'partnered', 'collaborated', or 'co-ordinated'."
)

// TipPool pads rule-based feedback up to SuggestionCount entries.
var TipPool = []string{
	"Use strong action verbs (e.g., 'Architected', 'Spearheaded') instead of passive language.",
	"Tailor your project descriptions to highlight the technologies most relevant to the role.",
	"Ensure your LinkedIn profile URL is included and clickable.",
	"Move your most relevant technical skills to the top of the resume.",
	"Check for consistency in date formatting (e.g., 'Jan 2023' vs '01/2023').",
}

// SuggestionProvider produces free-form improvement suggestions.
type SuggestionProvider interface {
	SuggestImprovements(ctx context.Context, input *types.SuggestionsInput) (*types.SuggestionsOutput, error)
}

// FeedbackGenerator asks the provider for suggestions and falls back to local rules on any failure.
type FeedbackGenerator struct {
	provider   SuggestionProvider
	logger     *errors.Logger
	onFallback func(ctx context.Context, reason error)
}

// NewFeedbackGenerator creates a generator. provider may be nil, in which case rules are always used.
func NewFeedbackGenerator(provider SuggestionProvider, logger *errors.Logger) *FeedbackGenerator {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FeedbackGenerator{provider: provider, logger: logger}
}

// OnFallback registers a hook called whenever rule-based feedback replaces the provider.
func (g *FeedbackGenerator) OnFallback(fn func(ctx context.Context, reason error)) {
	g.onFallback = fn
}

// Generate returns exactly SuggestionCount suggestions for resumeText. It never fails.
func (g *FeedbackGenerator) Generate(ctx context.Context, resumeText string) []string {
	suggestions, err := g.fromProvider(ctx, resumeText)
	if err == nil {
		return suggestions
	}

	g.logger.Warn("Suggestion provider unavailable, using rule-based feedback", "reason", err.Error())
	if g.onFallback != nil {
		g.onFallback(ctx, err)
	}
	return RuleBasedFeedback(resumeText)
}

func (g *FeedbackGenerator) fromProvider(ctx context.Context, resumeText string) ([]string, error) {
	if g.provider == nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderDisabled, "no suggestion provider configured", nil)
	}

	out, err := g.provider.SuggestImprovements(ctx, &types.SuggestionsInput{ResumeText: resumeText})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderOutput, "provider returned no output", nil)
	}

	var suggestions []string
	for _, s := range out.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) == 0 {
		return nil, errors.NewProviderError(errors.ErrCodeProviderOutput, "provider returned no suggestions", nil)
	}
	if len(suggestions) > SuggestionCount {
		suggestions = suggestions[:SuggestionCount]
	}
	return suggestions, nil
}

// RuleBasedFeedback applies the local rules and pads the result from TipPool. The padding start
// is derived from a hash of the text, so identical input always yields identical output.
func RuleBasedFeedback(resumeText string) []string {
	lower := strings.ToLower(resumeText)
	var suggestions []string

	if !strings.ContainsFunc(resumeText, unicode.IsDigit) {
		suggestions = append(suggestions, SuggestQuantify)
	}
	if !strings.Contains(lower, "experience") && !strings.Contains(lower, "work") {
		suggestions = append(suggestions, SuggestExperience)
	}
	if !strings.Contains(lower, "education") && !strings.Contains(lower, "university") {
		suggestions = append(suggestions, SuggestEducation)
	}
	if !strings.Contains(lower, "team") && !strings.Contains(lower, "collaborat") {
		suggestions = append(suggestions, SuggestCollaboration)
	}
	if len(suggestions) >= SuggestionCount {
		return suggestions[:SuggestionCount]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(resumeText))
	start := int(h.Sum32() % uint32(len(TipPool)))

	for i := 0; i < len(TipPool) && len(suggestions) < SuggestionCount; i++ {
		tip := TipPool[(start+i)%len(TipPool)]
		if !slices.Contains(suggestions, tip) {
			suggestions = append(suggestions, tip)
		}
	}
	return suggestions
}
