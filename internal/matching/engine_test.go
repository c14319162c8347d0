package matching

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/errors"
	"skillsnap/internal/nlp"
	"skillsnap/internal/similarity"
	"skillsnap/internal/skills"
	"skillsnap/internal/types"
)

// fixedEmbedder maps the resume text to [1,0] and everything else to a vector at the given cosine.
type fixedEmbedder struct {
	resume string
	cosine float32
	err    error
}

func (f fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if text == f.resume {
		return []float32{1, 0}, nil
	}
	sin := float32(1 - f.cosine*f.cosine)
	return []float32{f.cosine, float32(math.Sqrt(float64(sin)))}, nil
}

func (fixedEmbedder) Dimension() int { return 2 }
func (fixedEmbedder) Name() string   { return "fixed" }

func testModels(t *testing.T, emb similarity.Embedder) *nlp.Models {
	t.Helper()
	return &nlp.Models{Vocabulary: skills.DefaultVocabulary(), Scorer: similarity.NewScorer(emb)}
}

type stubProvider struct {
	out   *types.SuggestionsOutput
	err   error
	calls int
}

func (s *stubProvider) SuggestImprovements(context.Context, *types.SuggestionsInput) (*types.SuggestionsOutput, error) {
	s.calls++
	return s.out, s.err
}

func TestScoreComparative(t *testing.T) {
	resume := "Backend developer, Python scripting, data pipelines"
	job := "We need a Python and SQL engineer"
	models := testModels(t, fixedEmbedder{resume: resume, cosine: 0.6})

	result, err := NewEngine(nil).Score(context.Background(), models, resume, job)
	require.NoError(t, err)

	assert.Equal(t, types.ModeComparative, result.Mode)
	assert.Equal(t, []string{"python"}, result.MatchedSkills)
	assert.Equal(t, []string{"sql"}, result.MissingSkills)
	require.NotNil(t, result.SkillScore)
	assert.Equal(t, 50.0, *result.SkillScore)
	require.NotNil(t, result.SemanticScore)
	assert.Equal(t, 60.0, *result.SemanticScore)
	assert.Equal(t, 55.0, result.ATSScore)
	assert.Equal(t, types.ExperienceModerate, result.ExperienceMatch)
	assert.Equal(t, []string{
		"Consider acquiring: sql",
		"Optimize keywords for better ATS match.",
	}, result.Suggestions)
}

func TestScoreJobWithoutSkills(t *testing.T) {
	resume := "Python developer"
	models := testModels(t, fixedEmbedder{resume: resume, cosine: 0.8})

	result, err := NewEngine(nil).Score(context.Background(), models, resume, "Looking for a motivated person")
	require.NoError(t, err)

	// skill score falls back to the semantic score
	assert.Equal(t, 80.0, result.ATSScore)
	assert.Equal(t, types.ExperienceStrong, result.ExperienceMatch)
	assert.Empty(t, result.MatchedSkills)
	assert.Empty(t, result.MissingSkills)
	assert.Empty(t, result.Suggestions)
}

func TestScoreMissingSkillsSuggestion(t *testing.T) {
	resume := "Go developer"
	job := "Required: Terraform, Kubernetes, AWS, Docker, Go and Ansible"
	models := testModels(t, fixedEmbedder{resume: resume, cosine: 0.2})

	result, err := NewEngine(nil).Score(context.Background(), models, resume, job)
	require.NoError(t, err)

	assert.Equal(t, []string{"ansible", "aws", "docker", "kubernetes", "terraform"}, result.MissingSkills)
	assert.Equal(t, "Consider acquiring: ansible, aws, docker", result.Suggestions[0])
	assert.Equal(t, types.ExperienceWeak, result.ExperienceMatch)
}

func TestScoreInvariants(t *testing.T) {
	engine := NewEngine(nil)
	models := testModels(t, similarity.NewHashingEmbedder(similarity.DefaultDimension))

	cases := []struct{ resume, job string }{
		{"Python, SQL, Docker and AWS in production", "Python SQL engineer with Kubernetes"},
		{"florist", "Senior Rust engineer, Kubernetes, GCP"},
		{"Go Go Go kubernetes docker", "Go developer with Docker and Kubernetes"},
	}
	for _, c := range cases {
		result, err := engine.Score(context.Background(), models, c.resume, c.job)
		require.NoError(t, err)

		jobSkills := skills.Extract(c.job, models.Vocabulary)
		assert.GreaterOrEqual(t, result.ATSScore, 0.0)
		assert.LessOrEqual(t, result.ATSScore, 100.0)
		for _, m := range result.MatchedSkills {
			assert.Contains(t, jobSkills, m)
			assert.NotContains(t, result.MissingSkills, m)
		}
		for _, m := range result.MissingSkills {
			assert.Contains(t, jobSkills, m)
		}
	}
}

func TestScoreSimilarityFailure(t *testing.T) {
	models := testModels(t, fixedEmbedder{err: stderrors.New("offline")})

	_, err := NewEngine(nil).Score(context.Background(), models, "resume", "a long enough job description")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeModelUnavailable))
}

func TestScoreGeneralAudit(t *testing.T) {
	models := testModels(t, fixedEmbedder{err: stderrors.New("must not be called")})
	resume := "Python developer with 5 years of work experience, university degree in education and team lead"

	for _, job := range []string{"", "   ", "short job"} {
		result, err := NewEngine(nil).Score(context.Background(), models, resume, job)
		require.NoError(t, err, "job %q", job)

		assert.Equal(t, BaselineScore, result.ATSScore)
		assert.Equal(t, types.ModeGeneralAudit, result.Mode)
		assert.Equal(t, types.ExperienceStrong, result.ExperienceMatch)
		assert.Equal(t, []string{"python"}, result.MatchedSkills)
		assert.Empty(t, result.MissingSkills)
		assert.Len(t, result.Suggestions, SuggestionCount)
	}
}

func TestScoreGeneralAuditUsesProvider(t *testing.T) {
	provider := &stubProvider{out: &types.SuggestionsOutput{Suggestions: []string{"a", " ", "b", "c", "d"}}}
	engine := NewEngine(NewFeedbackGenerator(provider, nil))
	models := testModels(t, similarity.NewHashingEmbedder(8))

	result, err := engine.Score(context.Background(), models, "resume text", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, result.Suggestions)
	assert.Equal(t, 1, provider.calls)
}

func TestFeedbackFallback(t *testing.T) {
	tests := []struct {
		name     string
		provider SuggestionProvider
	}{
		{"no provider", nil},
		{"provider error", &stubProvider{err: errors.NewProviderError(errors.ErrCodeProviderFailed, "timeout", nil)}},
		{"nil output", &stubProvider{}},
		{"empty suggestions", &stubProvider{out: &types.SuggestionsOutput{}}},
	}

	resume := "I like cats"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewFeedbackGenerator(tt.provider, nil)
			var fallbacks int
			gen.OnFallback(func(context.Context, error) { fallbacks++ })

			got := gen.Generate(context.Background(), resume)
			assert.Equal(t, RuleBasedFeedback(resume), got)
			assert.Equal(t, 1, fallbacks)
		})
	}
}

func TestRuleBasedFeedback(t *testing.T) {
	t.Run("first three rules win", func(t *testing.T) {
		got := RuleBasedFeedback("I like cats")
		assert.Equal(t, []string{SuggestQuantify, SuggestExperience, SuggestEducation}, got)
	})

	t.Run("padding is deterministic and unique", func(t *testing.T) {
		resume := "10 years of work experience at a university with my team"
		first := RuleBasedFeedback(resume)
		assert.Len(t, first, SuggestionCount)
		assert.Equal(t, first, RuleBasedFeedback(resume))

		seen := map[string]bool{}
		for _, s := range first {
			assert.Contains(t, TipPool, s)
			assert.False(t, seen[s])
			seen[s] = true
		}
	})

	t.Run("rules then padding", func(t *testing.T) {
		got := RuleBasedFeedback("Work experience 2020, university, team player")
		assert.Len(t, got, SuggestionCount)
		for _, s := range got {
			assert.Contains(t, TipPool, s)
		}

		got = RuleBasedFeedback("Experience at Acme since 2019. Education: BSc.")
		require.Len(t, got, SuggestionCount)
		assert.Equal(t, SuggestCollaboration, got[0])
		assert.Contains(t, TipPool, got[1])
		assert.Contains(t, TipPool, got[2])
		assert.NotEqual(t, got[1], got[2])
	})
}

func TestTier(t *testing.T) {
	assert.Equal(t, types.ExperienceStrong, Tier(70.1))
	assert.Equal(t, types.ExperienceModerate, Tier(70))
	assert.Equal(t, types.ExperienceModerate, Tier(40.1))
	assert.Equal(t, types.ExperienceWeak, Tier(40))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 55.0, Round1(55.0000012))
	assert.Equal(t, 66.7, Round1(66.666))
	assert.Equal(t, 0.1, Round1(0.05))
}
