// Package resume is the application service behind the HTTP API and the CLI. It ties the match
// engine, the lineage manager, the document store and the generative provider together.
package resume

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"skillsnap/internal/ai"
	"skillsnap/internal/errors"
	"skillsnap/internal/extract"
	"skillsnap/internal/lineage"
	"skillsnap/internal/matching"
	"skillsnap/internal/nlp"
	"skillsnap/internal/observability"
	"skillsnap/internal/skills"
	"skillsnap/internal/store"
	"skillsnap/internal/types"
)

// ListLimit caps the number of resumes returned for one user.
const ListLimit = 100

// Service implements the resume use cases.
type Service struct {
	store    store.Store
	lineage  *lineage.Manager
	engine   *matching.Engine
	barrier  *nlp.Barrier
	provider ai.Provider
	metrics  *observability.Metrics
	logger   *errors.Logger
	now      func() time.Time

	maxExtractedSize int64
}

// Deps are the collaborators of a Service. Provider may be nil; generative operations then fail
// with a provider-disabled error and general audits use local rules.
type Deps struct {
	Store    store.Store
	Engine   *matching.Engine
	Barrier  *nlp.Barrier
	Provider ai.Provider
	Metrics  *observability.Metrics
	Logger   *errors.Logger
	Now      func() time.Time

	// MaxExtractedSize bounds the decompressed body of uploaded documents. Zero uses the
	// extractor default.
	MaxExtractedSize int64
}

// NewService creates a Service from deps.
func NewService(deps Deps) *Service {
	s := &Service{
		store:    deps.Store,
		engine:   deps.Engine,
		barrier:  deps.Barrier,
		provider: deps.Provider,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Now,

		maxExtractedSize: deps.MaxExtractedSize,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = errors.NewNopLogger()
	}
	if s.metrics == nil {
		s.metrics = observability.NopMetrics()
	}
	if s.engine == nil {
		s.engine = matching.NewEngine(nil)
	}
	s.lineage = lineage.NewManager(s.store, lineage.WithClock(s.now))
	return s
}

// UploadInput is one uploaded resume file.
type UploadInput struct {
	UserID   string
	Filename string
	Data     []byte
}

// Upload extracts the text and skills of a file and stores it as version 1 of a new resume.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*types.UploadResponse, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "user_id is required", nil)
	}
	models, err := s.barrier.Models()
	if err != nil {
		return nil, err
	}

	text, err := extract.TextWithLimit(in.Filename, in.Data, s.maxExtractedSize)
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeUploaded, false)
		return nil, err
	}

	r := &types.Resume{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Filename:    in.Filename,
		ContentText: text,
		Skills:      skills.Extract(text, models.Vocabulary),
		Version:     1,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.store.InsertOne(ctx, r); err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeUploaded, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeUploaded, true,
		attribute.Int("skills_count", len(r.Skills)))
	s.logger.Info("Resume uploaded", "resume_id", r.ID, "user_id", r.UserID, "skills", len(r.Skills))

	return &types.UploadResponse{ResumeID: r.ID, Message: "Uploaded", ExtractedSkills: r.Skills}, nil
}

// Score runs the match engine without touching the store.
func (s *Service) Score(ctx context.Context, resumeText, jobDescription string) (*types.AnalysisResult, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "resume text is required", nil)
	}
	models, err := s.barrier.Models()
	if err != nil {
		return nil, err
	}

	mode := types.ModeGeneralAudit
	if s.engine.IsComparative(jobDescription) {
		mode = types.ModeComparative
	}

	start := s.now()
	result, err := s.engine.Score(ctx, models, resumeText, jobDescription)
	s.metrics.RecordScoring(ctx, mode, s.now().Sub(start), err)
	return result, err
}

// Skills extracts the vocabulary skills mentioned in text.
func (s *Service) Skills(ctx context.Context, text string) (*types.SkillsReport, error) {
	models, err := s.barrier.Models()
	if err != nil {
		return nil, err
	}
	return &types.SkillsReport{
		Skills:            skills.Extract(text, models.Vocabulary),
		VocabularyVersion: models.Vocabulary.Version(),
	}, nil
}

// Analyze scores a stored resume and persists the result. A previous analysis is replaced.
func (s *Service) Analyze(ctx context.Context, id, jobDescription string) (*types.AnalysisResult, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.Score(ctx, r.ContentText, jobDescription)
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false)
		return nil, err
	}

	now := s.now().UTC()
	score := result.ATSScore
	if err := s.store.MergeUpdateOne(ctx, id, store.Patch{
		ATSScore:       &score,
		AnalysisResult: result,
		LastAnalyzedAt: &now,
	}); err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true,
		attribute.String("mode", result.Mode))
	return result, nil
}

// List returns the newest resumes of a user.
func (s *Service) List(ctx context.Context, userID string) ([]types.ResumeSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "user_id is required", nil)
	}
	docs, err := s.store.FindMany(ctx, store.Query{
		Filter:     store.Filter{store.FieldUserID: userID},
		SortBy:     store.FieldUploadedAt,
		Descending: true,
		Limit:      ListLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.ResumeSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, types.ResumeSummary{
			ID:             d.ID,
			Filename:       d.Filename,
			UploadedAt:     d.UploadedAt,
			ATSScore:       d.ATSScore,
			AnalysisResult: d.AnalysisResult,
			Version:        d.Version,
			ParentResumeID: d.ParentResumeID,
		})
	}
	return out, nil
}

// Get returns one resume.
func (s *Service) Get(ctx context.Context, id string) (*types.Resume, error) {
	return s.store.GetByID(ctx, id)
}

// Delete removes exactly one resume. Derivatives are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.DeleteOne(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFoundError(errors.ErrCodeResumeNotFound, "resume not found", nil).
			WithContext("resume_id", id)
	}
	s.logger.Info("Resume deleted", "resume_id", id)
	return nil
}

// OptimizeInput is the target of an optimization.
type OptimizeInput struct {
	JobDescription string
	CompanyName    string
}

// Optimize asks the provider to rewrite a resume for a job and stores the rewrite as a derivative.
func (s *Service) Optimize(ctx context.Context, id string, in OptimizeInput) (*types.OptimizeResponse, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "job_description is required", nil)
	}
	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}

	source, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	output, err := provider.OptimizeResume(ctx, &types.OptimizeResumeInput{
		ResumeText:     source.ContentText,
		JobDescription: in.JobDescription,
		CompanyName:    in.CompanyName,
	})
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricDerivativeCreated, false)
		return nil, err
	}

	child, err := s.lineage.CreateDerivative(ctx, id, lineage.Derivative{
		Filename:         derivativeFilename(source),
		ContentText:      source.ContentText,
		OptimizedContent: output,
		OptimizationMetadata: &types.OptimizationMetadata{
			JobDescription: in.JobDescription,
			CompanyName:    in.CompanyName,
			OptimizedAt:    s.now().UTC(),
		},
	})
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricDerivativeCreated, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricDerivativeCreated, true,
		attribute.Int("version", child.Version))
	s.logger.Info("Optimized derivative created",
		"resume_id", id, "derivative_id", child.ID, "version", child.Version)

	return &types.OptimizeResponse{
		OptimizeResumeOutput: *output,
		OptimizedResumeID:    child.ID,
		Version:              child.Version,
	}, nil
}

func derivativeFilename(source *types.Resume) string {
	return fmt.Sprintf("%s_optimized_v%d", source.Filename, max(source.Version, 1)+1)
}

// Versions lists a resume and its direct derivatives.
func (s *Service) Versions(ctx context.Context, id string) (*types.VersionHistory, error) {
	docs, err := s.lineage.ListLineage(ctx, id)
	if err != nil {
		return nil, err
	}
	return lineage.History(id, docs), nil
}

// Lineage lists a resume and every descendant.
func (s *Service) Lineage(ctx context.Context, id string) (*types.VersionHistory, error) {
	docs, err := s.lineage.Closure(ctx, id)
	if err != nil {
		return nil, err
	}
	return lineage.History(id, docs), nil
}

// CompareInput selects the versions to compare.
type CompareInput struct {
	Version1  int
	Version2  int
	Narrative bool
}

// Compare computes the score change between two versions of a lineage. With Narrative set, the
// provider also explains the change and its failures are returned to the caller.
func (s *Service) Compare(ctx context.Context, id string, in CompareInput) (*types.VersionComparison, error) {
	if in.Version1 < 1 || in.Version2 < 1 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "versions must be positive", nil).
			WithContext("version1", in.Version1).
			WithContext("version2", in.Version2)
	}

	a, b, err := s.lineage.GetPair(ctx, id, in.Version1, in.Version2)
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricVersionsCompared, false)
		return nil, err
	}

	delta := lineage.CompareVersions(a, b)
	out := &types.VersionComparison{
		Version1:   types.VersionRef{ID: a.ID, Version: a.Version, Score: a.Score()},
		Version2:   types.VersionRef{ID: b.ID, Version: b.Version, Score: b.Score()},
		Comparison: types.ComparisonDetails{ScoreChange: delta},
	}

	if in.Narrative {
		provider, err := s.requireProvider()
		if err != nil {
			return nil, err
		}
		narrative, err := provider.CompareVersions(ctx, &types.CompareVersionsInput{
			PreviousText:  a.ContentText,
			CurrentText:   b.ContentText,
			PreviousScore: a.Score(),
			CurrentScore:  b.Score(),
		})
		if err != nil {
			s.metrics.RecordBusinessMetric(ctx, observability.MetricVersionsCompared, false)
			return nil, err
		}
		out.Comparison.Narrative = narrative
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricVersionsCompared, true,
		attribute.String("trend", delta.Trend),
		attribute.Bool("narrative", in.Narrative))
	return out, nil
}

// QualityCheck runs the provider audit on a resume and persists the report.
func (s *Service) QualityCheck(ctx context.Context, id string) (*types.QualityReport, error) {
	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := provider.CheckQuality(ctx, &types.QualityCheckInput{ResumeText: r.ContentText})
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricQualityCheck, false)
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.MergeUpdateOne(ctx, id, store.Patch{QualityCheck: report, QualityCheckedAt: &now}); err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricQualityCheck, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricQualityCheck, true,
		attribute.String("risk_level", report.RiskLevel))
	return report, nil
}

// ExplainInput carries the job description an explanation is written against. It may be empty
// for general-audit analyses.
type ExplainInput struct {
	JobDescription string
}

// ExplainScore asks the provider to explain the stored analysis of a resume and persists the
// explanation. A resume that was never analyzed is a validation error.
func (s *Service) ExplainScore(ctx context.Context, id string, in ExplainInput) (*types.ScoreExplanation, error) {
	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.AnalysisResult == nil {
		return nil, errors.NewValidationError(errors.ErrCodeNotAnalyzed,
			"resume not analyzed yet, analyze it first", nil).WithContext("resume_id", id)
	}

	analysis := r.AnalysisResult
	explanation, err := provider.ExplainScore(ctx, &types.ExplainScoreInput{
		ResumeText:     r.ContentText,
		JobDescription: in.JobDescription,
		ATSScore:       analysis.ATSScore,
		MatchedSkills:  analysis.MatchedSkills,
		MissingSkills:  analysis.MissingSkills,
	})
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricScoreExplained, false)
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.MergeUpdateOne(ctx, id, store.Patch{ScoreExplanation: explanation, ExplanationAt: &now}); err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricScoreExplained, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricScoreExplained, true,
		attribute.String("mode", analysis.Mode))
	return explanation, nil
}

// InterviewInput carries the job description questions are generated for
type InterviewInput struct {
	JobDescription string
}

// InterviewQuestions generates interview questions for a resume and job and persists them. When the
// resume has been analyzed, its missing skills steer the questions.
func (s *Service) InterviewQuestions(ctx context.Context, id string, in InterviewInput) (*types.InterviewPrep, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingField, "job_description is required", nil)
	}
	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	if r.AnalysisResult != nil {
		missing = r.AnalysisResult.MissingSkills
	}
	prep, err := provider.GenerateInterviewQuestions(ctx, &types.InterviewQuestionsInput{
		ResumeText:     r.ContentText,
		JobDescription: in.JobDescription,
		MissingSkills:  missing,
	})
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricInterviewPrepared, false)
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.MergeUpdateOne(ctx, id, store.Patch{InterviewPrep: prep, InterviewPrepAt: &now}); err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricInterviewPrepared, false)
		return nil, err
	}

	s.metrics.RecordBusinessMetric(ctx, observability.MetricInterviewPrepared, true,
		attribute.String("difficulty", prep.OverallDifficulty))
	return prep, nil
}

func (s *Service) requireProvider() (ai.Provider, error) {
	if s.provider == nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderDisabled, "generative provider is not configured", nil)
	}
	return s.provider, nil
}
