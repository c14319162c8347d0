package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/ai"
	"skillsnap/internal/errors"
	"skillsnap/internal/matching"
	"skillsnap/internal/nlp"
	"skillsnap/internal/similarity"
	"skillsnap/internal/store"
	"skillsnap/internal/types"
)

type fakeProvider struct {
	optimizeErr error
	compareErr  error
	qualityErr  error

	optimizeCalls int
	compareCalls  int

	explainInput   *types.ExplainScoreInput
	interviewInput *types.InterviewQuestionsInput
}

func (f *fakeProvider) SuggestImprovements(context.Context, *types.SuggestionsInput) (*types.SuggestionsOutput, error) {
	return &types.SuggestionsOutput{Suggestions: []string{"a", "b", "c"}}, nil
}

func (f *fakeProvider) OptimizeResume(_ context.Context, in *types.OptimizeResumeInput) (*types.OptimizeResumeOutput, error) {
	f.optimizeCalls++
	if f.optimizeErr != nil {
		return nil, f.optimizeErr
	}
	return &types.OptimizeResumeOutput{
		OptimizedSummary:    "Backend engineer for " + in.CompanyName,
		OptimizedSkills:     []string{"go", "sql"},
		ATSImprovementScore: 12,
		ChangesExplanation:  "keywords aligned",
	}, nil
}

func (f *fakeProvider) CompareVersions(context.Context, *types.CompareVersionsInput) (*types.ComparisonNarrative, error) {
	f.compareCalls++
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	return &types.ComparisonNarrative{Improvements: []string{"clearer summary"}, Recommendation: "keep going"}, nil
}

func (f *fakeProvider) CheckQuality(context.Context, *types.QualityCheckInput) (*types.QualityReport, error) {
	if f.qualityErr != nil {
		return nil, f.qualityErr
	}
	return &types.QualityReport{ConfidenceScore: 80, AuthenticityScore: 90, RiskLevel: "low"}, nil
}

func (f *fakeProvider) ExplainScore(_ context.Context, in *types.ExplainScoreInput) (*types.ScoreExplanation, error) {
	f.explainInput = in
	return &types.ScoreExplanation{
		Reasoning:          "skills overlap drives the score",
		ImprovementActions: []types.ImprovementAction{{Action: "add docker", ExpectedImpact: "+10 points", Priority: "high"}},
		ScoreBreakdown:     types.ScoreBreakdown{SkillsMatch: 66},
	}, nil
}

func (f *fakeProvider) GenerateInterviewQuestions(_ context.Context, in *types.InterviewQuestionsInput) (*types.InterviewPrep, error) {
	f.interviewInput = in
	return &types.InterviewPrep{
		Technical:         []types.InterviewQuestion{{Question: "How do you size containers?", FocusArea: "docker", Difficulty: "medium"}},
		OverallDifficulty: "medium",
		PreparationTips:   []string{"review docker basics"},
	}, nil
}

func (f *fakeProvider) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake", Available: true}
}

func (f *fakeProvider) Close() error { return nil }

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func readyBarrier(t *testing.T) *nlp.Barrier {
	t.Helper()
	b := nlp.NewBarrier()
	_, err := b.Init(context.Background(), nlp.Loader("", similarity.NewHashingEmbedder(384)))
	require.NoError(t, err)
	return b
}

func newTestService(t *testing.T, provider ai.Provider) (*Service, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	clock := fixedNow
	svc := NewService(Deps{
		Store:    s,
		Engine:   matching.NewEngine(nil),
		Barrier:  readyBarrier(t),
		Provider: provider,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	return svc, s
}

func docx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func upload(t *testing.T, svc *Service, user, text string) string {
	t.Helper()
	resp, err := svc.Upload(context.Background(), UploadInput{UserID: user, Filename: "cv.docx", Data: docx(t, text)})
	require.NoError(t, err)
	return resp.ResumeID
}

func TestUpload(t *testing.T) {
	svc, s := newTestService(t, nil)

	resp, err := svc.Upload(context.Background(), UploadInput{
		UserID:   "u1",
		Filename: "cv.docx",
		Data:     docx(t, "Senior engineer with Python, SQL and Docker"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Uploaded", resp.Message)
	assert.Equal(t, []string{"docker", "python", "sql"}, resp.ExtractedSkills)

	stored, err := s.GetByID(context.Background(), resp.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Nil(t, stored.ParentResumeID)
	assert.Nil(t, stored.ATSScore)
	assert.Nil(t, stored.AnalysisResult)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Upload(context.Background(), UploadInput{UserID: "u1", Filename: "cv.txt", Data: []byte("python")})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestModelsNotReady(t *testing.T) {
	svc := NewService(Deps{Store: store.NewMemoryStore(), Barrier: nlp.NewBarrier()})

	_, err := svc.Score(context.Background(), "python developer", "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeModelUnavailable))
}

func TestAnalyzePersistsAndOverwrites(t *testing.T) {
	svc, s := newTestService(t, nil)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Python developer who wrote SQL reports for the finance team")

	first, err := svc.Analyze(ctx, id, "Looking for a Python and SQL engineer")
	require.NoError(t, err)
	assert.Equal(t, types.ModeComparative, first.Mode)

	second, err := svc.Analyze(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, types.ModeGeneralAudit, second.Mode)
	assert.Equal(t, matching.BaselineScore, second.ATSScore)
	assert.Len(t, second.Suggestions, matching.SuggestionCount)

	stored, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.ATSScore)
	assert.Equal(t, matching.BaselineScore, *stored.ATSScore)
	assert.Equal(t, types.ModeGeneralAudit, stored.AnalysisResult.Mode, "analysis is replaced, not merged")
	assert.NotNil(t, stored.LastAnalyzedAt)

	_, err = svc.Analyze(ctx, "missing", "anything at all here")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestListAndDelete(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	older := upload(t, svc, "u1", "Go developer")
	newer := upload(t, svc, "u1", "Python developer")
	upload(t, svc, "u2", "SQL analyst")

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, older, list[1].ID)

	require.NoError(t, svc.Delete(ctx, older))
	err = svc.Delete(ctx, older)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	list, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOptimizeCreatesDerivative(t *testing.T) {
	provider := &fakeProvider{}
	svc, s := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer with SQL")

	resp, err := svc.Optimize(ctx, id, OptimizeInput{JobDescription: "Backend Go engineer", CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, "Backend engineer for Acme", resp.OptimizedSummary)

	child, err := s.GetByID(ctx, resp.OptimizedResumeID)
	require.NoError(t, err)
	assert.Equal(t, "cv.docx_optimized_v2", child.Filename)
	require.NotNil(t, child.ParentResumeID)
	assert.Equal(t, id, *child.ParentResumeID)
	assert.True(t, child.IsOptimized())
	assert.Equal(t, "Acme", child.OptimizationMetadata.CompanyName)

	versions, err := svc.Versions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, versions.TotalVersions)
	assert.False(t, versions.Versions[0].IsOptimized)
	assert.True(t, versions.Versions[1].IsOptimized)
}

func TestOptimizeProviderFailureStoresNothing(t *testing.T) {
	provider := &fakeProvider{optimizeErr: errors.NewProviderError(errors.ErrCodeProviderFailed, "down", nil)}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer")

	_, err := svc.Optimize(ctx, id, OptimizeInput{JobDescription: "Go engineer"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))

	versions, err := svc.Versions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, versions.TotalVersions)
}

func TestGenerativeOperationsWithoutProvider(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer")

	_, err := svc.Optimize(ctx, id, OptimizeInput{JobDescription: "Go engineer"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))

	_, err = svc.QualityCheck(ctx, id)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))

	_, err = svc.ExplainScore(ctx, id, ExplainInput{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))

	_, err = svc.InterviewQuestions(ctx, id, InterviewInput{JobDescription: "Go engineer"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
}

func TestLineageIncludesGrandchildren(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()
	root := upload(t, svc, "u1", "Go developer")

	child, err := svc.Optimize(ctx, root, OptimizeInput{JobDescription: "Go engineer"})
	require.NoError(t, err)
	grandchild, err := svc.Optimize(ctx, child.OptimizedResumeID, OptimizeInput{JobDescription: "Go engineer"})
	require.NoError(t, err)
	assert.Equal(t, 3, grandchild.Version)

	shallow, err := svc.Versions(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, shallow.TotalVersions)

	full, err := svc.Lineage(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, full.TotalVersions)
	assert.Equal(t, grandchild.OptimizedResumeID, full.Versions[2].ID)
}

func TestCompare(t *testing.T) {
	provider := &fakeProvider{}
	svc, s := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer with SQL")

	_, err := svc.Compare(ctx, id, CompareInput{Version1: 1, Version2: 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "single-member lineage")

	_, err = svc.Analyze(ctx, id, "")
	require.NoError(t, err)
	child, err := svc.Optimize(ctx, id, OptimizeInput{JobDescription: "Go engineer"})
	require.NoError(t, err)
	score := 60.0
	require.NoError(t, s.MergeUpdateOne(ctx, child.OptimizedResumeID, store.Patch{ATSScore: &score}))

	cmp, err := svc.Compare(ctx, id, CompareInput{Version1: 1, Version2: 2})
	require.NoError(t, err)
	assert.Equal(t, 85.0, cmp.Version1.Score)
	assert.Equal(t, 60.0, cmp.Version2.Score)
	assert.Equal(t, -25.0, cmp.Comparison.ScoreChange.Delta)
	assert.Equal(t, types.TrendDeclined, cmp.Comparison.ScoreChange.Trend)
	assert.Nil(t, cmp.Comparison.Narrative)
	assert.Zero(t, provider.compareCalls)

	cmp, err = svc.Compare(ctx, id, CompareInput{Version1: 1, Version2: 2, Narrative: true})
	require.NoError(t, err)
	require.NotNil(t, cmp.Comparison.Narrative)
	assert.Equal(t, "keep going", cmp.Comparison.Narrative.Recommendation)

	provider.compareErr = errors.NewProviderError(errors.ErrCodeProviderOutput, "bad output", nil)
	_, err = svc.Compare(ctx, id, CompareInput{Version1: 1, Version2: 2, Narrative: true})
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider), "narrative failures are surfaced")

	_, err = svc.Compare(ctx, id, CompareInput{Version1: 1, Version2: 5})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = svc.Compare(ctx, id, CompareInput{Version1: 0, Version2: 2})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestQualityCheckPersists(t *testing.T) {
	svc, s := newTestService(t, &fakeProvider{})
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer")

	report, err := svc.QualityCheck(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "low", report.RiskLevel)

	stored, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.QualityCheck)
	assert.Equal(t, 90.0, stored.QualityCheck.AuthenticityScore)
	assert.NotNil(t, stored.QualityCheckedAt)
}

func TestExplainScoreRequiresAnalysis(t *testing.T) {
	provider := &fakeProvider{}
	svc, s := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Go developer")

	_, err := svc.ExplainScore(ctx, id, ExplainInput{JobDescription: "Go engineer"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), errors.ErrCodeNotAnalyzed)
	assert.Nil(t, provider.explainInput)

	stored, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.ScoreExplanation)

	_, err = svc.ExplainScore(ctx, "missing", ExplainInput{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestExplainScorePersists(t *testing.T) {
	provider := &fakeProvider{}
	svc, s := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Python developer who wrote SQL reports for the finance team")
	jd := "Looking for a Python, SQL and Docker engineer"

	analysis, err := svc.Analyze(ctx, id, jd)
	require.NoError(t, err)

	explanation, err := svc.ExplainScore(ctx, id, ExplainInput{JobDescription: jd})
	require.NoError(t, err)
	assert.Equal(t, "skills overlap drives the score", explanation.Reasoning)

	require.NotNil(t, provider.explainInput)
	assert.Equal(t, analysis.ATSScore, provider.explainInput.ATSScore)
	assert.Equal(t, analysis.MatchedSkills, provider.explainInput.MatchedSkills)
	assert.Equal(t, analysis.MissingSkills, provider.explainInput.MissingSkills)
	assert.Equal(t, jd, provider.explainInput.JobDescription)

	stored, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.ScoreExplanation)
	assert.Equal(t, 66.0, stored.ScoreExplanation.ScoreBreakdown.SkillsMatch)
	require.NotNil(t, stored.ExplanationAt)
	assert.True(t, stored.ExplanationAt.After(fixedNow))
	require.NotNil(t, stored.ATSScore, "analysis is left untouched")
	assert.Equal(t, analysis.ATSScore, *stored.ATSScore)
}

func TestInterviewQuestions(t *testing.T) {
	provider := &fakeProvider{}
	svc, s := newTestService(t, provider)
	ctx := context.Background()
	id := upload(t, svc, "u1", "Python developer who wrote SQL reports for the finance team")
	jd := "Looking for a Python, SQL and Docker engineer"

	_, err := svc.InterviewQuestions(ctx, id, InterviewInput{JobDescription: "  "})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	t.Run("without analysis", func(t *testing.T) {
		_, err := svc.InterviewQuestions(ctx, id, InterviewInput{JobDescription: jd})
		require.NoError(t, err)
		require.NotNil(t, provider.interviewInput)
		assert.Empty(t, provider.interviewInput.MissingSkills)
	})

	t.Run("missing skills come from the stored analysis", func(t *testing.T) {
		analysis, err := svc.Analyze(ctx, id, jd)
		require.NoError(t, err)
		require.NotEmpty(t, analysis.MissingSkills)

		prep, err := svc.InterviewQuestions(ctx, id, InterviewInput{JobDescription: jd})
		require.NoError(t, err)
		assert.Equal(t, "medium", prep.OverallDifficulty)
		assert.Equal(t, analysis.MissingSkills, provider.interviewInput.MissingSkills)

		stored, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored.InterviewPrep)
		assert.Len(t, stored.InterviewPrep.Technical, 1)
		assert.NotNil(t, stored.InterviewPrepAt)
	})
}

func TestSkills(t *testing.T) {
	svc, _ := newTestService(t, nil)

	report, err := svc.Skills(context.Background(), "Kubernetes and Docker on Go services")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "go", "kubernetes"}, report.Skills)
	assert.NotEmpty(t, report.VocabularyVersion)
}
