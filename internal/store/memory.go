package store

import (
	"context"
	"sort"
	"sync"

	"skillsnap/internal/errors"
	"skillsnap/internal/types"
)

// MemoryStore keeps resumes in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*types.Resume
	seq  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*types.Resume)}
}

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetByID(_ context.Context, id string) (*types.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(doc), nil
}

func (s *MemoryStore) FindMany(_ context.Context, q Query) ([]*types.Resume, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []*types.Resume
	for _, doc := range s.docs {
		if matchesQuery(doc, q) {
			out = append(out, clone(doc))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compareField(a, b, q.SortBy); c != 0 {
			if q.Descending {
				return c > 0
			}
			return c < 0
		}
		return a.Seq < b.Seq
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) InsertOne(_ context.Context, r *types.Resume) error {
	if r == nil || r.ID == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "resume id is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[r.ID]; exists {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume already exists", nil).
			WithContext("resume_id", r.ID)
	}
	s.seq++
	r.Seq = s.seq
	s.docs[r.ID] = clone(r)
	return nil
}

func (s *MemoryStore) MergeUpdateOne(_ context.Context, id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	updated := clone(doc)
	p.apply(updated)
	s.docs[id] = updated
	return nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return 0, nil
	}
	delete(s.docs, id)
	return 1, nil
}

func matchesQuery(doc *types.Resume, q Query) bool {
	if !matchesFilter(doc, q.Filter) {
		return false
	}
	if len(q.AnyOf) == 0 {
		return true
	}
	for _, f := range q.AnyOf {
		if matchesFilter(doc, f) {
			return true
		}
	}
	return false
}

func matchesFilter(doc *types.Resume, f Filter) bool {
	for field, want := range f {
		switch field {
		case FieldID:
			if doc.ID != want {
				return false
			}
		case FieldUserID:
			if doc.UserID != want {
				return false
			}
		case FieldVersion:
			v, ok := want.(int)
			if !ok || doc.Version != v {
				return false
			}
		case FieldParentResumeID:
			if want == nil {
				if doc.ParentResumeID != nil {
					return false
				}
				continue
			}
			if doc.ParentResumeID == nil || *doc.ParentResumeID != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareField(a, b *types.Resume, field Field) int {
	switch field {
	case FieldVersion:
		return a.Version - b.Version
	case FieldUploadedAt:
		return a.UploadedAt.Compare(b.UploadedAt)
	default:
		return 0
	}
}

// clone copies the document and the slices it owns. Nested results are replaced, never mutated,
// so sharing them is safe.
func clone(r *types.Resume) *types.Resume {
	c := *r
	if r.Skills != nil {
		c.Skills = append([]string(nil), r.Skills...)
	}
	return &c
}
