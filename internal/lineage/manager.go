package lineage

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"skillsnap/internal/errors"
	"skillsnap/internal/store"
	"skillsnap/internal/types"
)

// MaxLineageSize caps how many documents a lineage listing reads.
const MaxLineageSize = 100

// notEnoughVersionsError is returned by GetPair when a lineage has fewer than two members. Each
// call builds a new error so callers can attach context without affecting other requests.
func notEnoughVersionsError(anchorID string, count int) *errors.AppError {
	return errors.NewValidationError(errors.ErrCodeNotEnoughVersions, "not enough versions to compare", nil).
		WithContext("resume_id", anchorID).
		WithContext("versions", count)
}

// Manager creates derivative resumes and reads their lineage.
type Manager struct {
	store store.Store
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for new derivatives.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a lineage manager over s.
func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{store: s, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Derivative holds the caller-supplied content of a new version.
type Derivative struct {
	Filename             string
	ContentText          string
	Skills               []string
	OptimizedContent     *types.OptimizeResumeOutput
	OptimizationMetadata *types.OptimizationMetadata
}

// CreateDerivative stores a new child of sourceID with version source+1 and a fresh id.
// Two concurrent derivations of the same source both succeed and share a version number.
func (m *Manager) CreateDerivative(ctx context.Context, sourceID string, d Derivative) (*types.Resume, error) {
	source, err := m.store.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	skills := d.Skills
	if skills == nil {
		skills = source.Skills
	}
	parent := source.ID
	child := &types.Resume{
		ID:                   uuid.NewString(),
		UserID:               source.UserID,
		Filename:             d.Filename,
		ContentText:          d.ContentText,
		Skills:               append([]string(nil), skills...),
		Version:              max(source.Version, 1) + 1,
		ParentResumeID:       &parent,
		UploadedAt:           m.now().UTC(),
		OptimizedContent:     d.OptimizedContent,
		OptimizationMetadata: d.OptimizationMetadata,
	}
	if err := m.store.InsertOne(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// ListLineage returns the anchor and its direct children ordered by version, then creation.
func (m *Manager) ListLineage(ctx context.Context, anchorID string) ([]*types.Resume, error) {
	if _, err := m.store.GetByID(ctx, anchorID); err != nil {
		return nil, err
	}

	docs, err := m.store.FindMany(ctx, store.Query{
		AnyOf: []store.Filter{
			{store.FieldID: anchorID},
			{store.FieldParentResumeID: anchorID},
		},
		SortBy: store.FieldVersion,
		Limit:  MaxLineageSize,
	})
	if err != nil {
		return nil, err
	}
	sortLineage(docs)
	return docs, nil
}

// Closure returns the anchor and every descendant, ordered by version, then creation.
func (m *Manager) Closure(ctx context.Context, anchorID string) ([]*types.Resume, error) {
	anchor, err := m.store.GetByID(ctx, anchorID)
	if err != nil {
		return nil, err
	}

	docs, err := m.store.FindMany(ctx, store.Query{Filter: store.Filter{store.FieldUserID: anchor.UserID}})
	if err != nil {
		return nil, err
	}

	children := make(map[string][]*types.Resume)
	for _, d := range docs {
		if d.ParentResumeID != nil {
			children[*d.ParentResumeID] = append(children[*d.ParentResumeID], d)
		}
	}

	visited := map[string]bool{anchor.ID: true}
	out := []*types.Resume{anchor}
	queue := []string{anchor.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}

	sortLineage(out)
	return out, nil
}

// GetPair returns the first members of the shallow lineage of anchorID with versions v1 and v2.
func (m *Manager) GetPair(ctx context.Context, anchorID string, v1, v2 int) (*types.Resume, *types.Resume, error) {
	docs, err := m.ListLineage(ctx, anchorID)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) < 2 {
		return nil, nil, notEnoughVersionsError(anchorID, len(docs))
	}

	a, b := findVersion(docs, v1), findVersion(docs, v2)
	if a == nil || b == nil {
		return nil, nil, errors.NewNotFoundError(errors.ErrCodeVersionNotFound, "one or both versions not found", nil).
			WithContext("resume_id", anchorID).
			WithContext("version1", v1).
			WithContext("version2", v2)
	}
	return a, b, nil
}

func findVersion(docs []*types.Resume, v int) *types.Resume {
	for _, d := range docs {
		if d.Version == v {
			return d
		}
	}
	return nil
}

// CompareVersions computes the score change from a to b. Missing scores count as zero.
func CompareVersions(a, b *types.Resume) types.VersionDelta {
	prev, curr := a.Score(), b.Score()
	delta := math.Round((curr-prev)*10) / 10

	trend := types.TrendUnchanged
	switch {
	case delta > 0:
		trend = types.TrendImproved
	case delta < 0:
		trend = types.TrendDeclined
	}
	return types.VersionDelta{Previous: prev, Current: curr, Delta: delta, Trend: trend}
}

// History builds the version listing returned to clients.
func History(resumeID string, docs []*types.Resume) *types.VersionHistory {
	h := &types.VersionHistory{
		ResumeID:      resumeID,
		TotalVersions: len(docs),
		Versions:      make([]types.VersionEntry, 0, len(docs)),
	}
	for _, d := range docs {
		h.Versions = append(h.Versions, types.VersionEntry{
			ID:                   d.ID,
			Version:              d.Version,
			Filename:             d.Filename,
			UploadedAt:           d.UploadedAt,
			ATSScore:             d.ATSScore,
			IsOptimized:          d.IsOptimized(),
			ParentResumeID:       d.ParentResumeID,
			OptimizationMetadata: d.OptimizationMetadata,
		})
	}
	return h
}

func sortLineage(docs []*types.Resume) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.Before(b.UploadedAt)
		}
		return a.Seq < b.Seq
	})
}
