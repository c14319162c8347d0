// Package store persists resume documents.
package store

import (
	"context"
	"fmt"
	"time"

	"skillsnap/internal/errors"
	"skillsnap/internal/types"
)

// Field names a queryable resume attribute.
type Field string

const (
	FieldID             Field = "id"
	FieldUserID         Field = "user_id"
	FieldParentResumeID Field = "parent_resume_id"
	FieldVersion        Field = "version"
	FieldUploadedAt     Field = "uploaded_at"
)

// Filter is a conjunction of equality predicates. A nil value matches a null field.
type Filter map[Field]any

// Query selects resumes. A document matches when it satisfies every predicate in Filter and, if
// AnyOf is non-empty, at least one of the AnyOf filters.
type Query struct {
	Filter     Filter
	AnyOf      []Filter
	SortBy     Field
	Descending bool
	Limit      int
}

// Patch is a shallow merge applied by MergeUpdateOne. Nil fields are left untouched; all set
// fields are applied together or not at all.
type Patch struct {
	Filename         *string
	Skills           *[]string
	ATSScore         *float64
	AnalysisResult   *types.AnalysisResult
	LastAnalyzedAt   *time.Time
	QualityCheck     *types.QualityReport
	QualityCheckedAt *time.Time
	ScoreExplanation *types.ScoreExplanation
	ExplanationAt    *time.Time
	InterviewPrep    *types.InterviewPrep
	InterviewPrepAt  *time.Time
}

// IsEmpty reports whether the patch sets no field.
func (p Patch) IsEmpty() bool {
	return p.Filename == nil && p.Skills == nil && p.ATSScore == nil && p.AnalysisResult == nil &&
		p.LastAnalyzedAt == nil && p.QualityCheck == nil && p.QualityCheckedAt == nil &&
		p.ScoreExplanation == nil && p.ExplanationAt == nil && p.InterviewPrep == nil && p.InterviewPrepAt == nil
}

func (p Patch) apply(r *types.Resume) {
	if p.Filename != nil {
		r.Filename = *p.Filename
	}
	if p.Skills != nil {
		r.Skills = append([]string(nil), (*p.Skills)...)
	}
	if p.ATSScore != nil {
		score := *p.ATSScore
		r.ATSScore = &score
	}
	if p.AnalysisResult != nil {
		r.AnalysisResult = p.AnalysisResult
	}
	if p.LastAnalyzedAt != nil {
		at := *p.LastAnalyzedAt
		r.LastAnalyzedAt = &at
	}
	if p.QualityCheck != nil {
		r.QualityCheck = p.QualityCheck
	}
	if p.QualityCheckedAt != nil {
		at := *p.QualityCheckedAt
		r.QualityCheckedAt = &at
	}
	if p.ScoreExplanation != nil {
		r.ScoreExplanation = p.ScoreExplanation
	}
	if p.ExplanationAt != nil {
		at := *p.ExplanationAt
		r.ExplanationAt = &at
	}
	if p.InterviewPrep != nil {
		r.InterviewPrep = p.InterviewPrep
	}
	if p.InterviewPrepAt != nil {
		at := *p.InterviewPrepAt
		r.InterviewPrepAt = &at
	}
}

// Store is the document storage collaborator.
type Store interface {
	// GetByID returns the resume or a not-found error.
	GetByID(ctx context.Context, id string) (*types.Resume, error)
	FindMany(ctx context.Context, q Query) ([]*types.Resume, error)
	// InsertOne stores a new resume and assigns its insertion sequence.
	InsertOne(ctx context.Context, r *types.Resume) error
	// MergeUpdateOne applies p to the resume or returns a not-found error.
	MergeUpdateOne(ctx context.Context, id string, p Patch) error
	// DeleteOne removes at most one resume and returns how many were removed.
	DeleteOne(ctx context.Context, id string) (int64, error)
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}

var sortable = map[Field]bool{
	FieldVersion:    true,
	FieldUploadedAt: true,
}

func validateQuery(q Query) error {
	check := func(f Filter) error {
		for field := range f {
			switch field {
			case FieldID, FieldUserID, FieldParentResumeID, FieldVersion:
			default:
				return fmt.Errorf("unsupported filter field %q", field)
			}
		}
		return nil
	}
	if err := check(q.Filter); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid query", err)
	}
	for _, f := range q.AnyOf {
		if err := check(f); err != nil {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid query", err)
		}
	}
	if q.SortBy != "" && !sortable[q.SortBy] {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid query",
			fmt.Errorf("unsupported sort field %q", q.SortBy))
	}
	if q.Limit < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid query",
			fmt.Errorf("negative limit %d", q.Limit))
	}
	return nil
}

func notFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeResumeNotFound, "resume not found", nil).WithContext("resume_id", id)
}

func storeFailure(op string, err error) error {
	return errors.NewInternalError(errors.ErrCodeStoreFailed, op+" failed", err)
}
