package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/errors"
	"skillsnap/internal/types"
)

func newResume(userID string, version int, parent *string, uploaded time.Time) *types.Resume {
	return &types.Resume{
		ID:             uuid.NewString(),
		UserID:         userID,
		Filename:       "cv.pdf",
		ContentText:    "Go developer",
		Skills:         []string{"go"},
		Version:        version,
		ParentResumeID: parent,
		UploadedAt:     uploaded.UTC().Truncate(time.Microsecond),
	}
}

// runStoreContract exercises the behaviour every Store implementation must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	root := newResume(user, 1, nil, base)
	require.NoError(t, s.InsertOne(ctx, root))
	assert.NotZero(t, root.Seq)

	child := newResume(user, 2, &root.ID, base.Add(time.Hour))
	require.NoError(t, s.InsertOne(ctx, child))
	assert.Greater(t, child.Seq, root.Seq)

	other := newResume("someone-else-"+uuid.NewString(), 1, nil, base.Add(2*time.Hour))
	require.NoError(t, s.InsertOne(ctx, other))

	t.Run("get by id", func(t *testing.T) {
		got, err := s.GetByID(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, child.ID, got.ID)
		require.NotNil(t, got.ParentResumeID)
		assert.Equal(t, root.ID, *got.ParentResumeID)
		assert.Equal(t, []string{"go"}, got.Skills)
		assert.Nil(t, got.ATSScore)
		assert.True(t, child.UploadedAt.Equal(got.UploadedAt))

		_, err = s.GetByID(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("find by user sorted descending", func(t *testing.T) {
		got, err := s.FindMany(ctx, Query{
			Filter:     Filter{FieldUserID: user},
			SortBy:     FieldUploadedAt,
			Descending: true,
			Limit:      100,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, child.ID, got[0].ID)
		assert.Equal(t, root.ID, got[1].ID)
	})

	t.Run("find anchor or children", func(t *testing.T) {
		got, err := s.FindMany(ctx, Query{
			AnyOf:  []Filter{{FieldID: root.ID}, {FieldParentResumeID: root.ID}},
			SortBy: FieldVersion,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Version)
		assert.Equal(t, 2, got[1].Version)
	})

	t.Run("null parent filter and limit", func(t *testing.T) {
		got, err := s.FindMany(ctx, Query{Filter: Filter{FieldUserID: user, FieldParentResumeID: nil}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, root.ID, got[0].ID)

		got, err = s.FindMany(ctx, Query{Filter: Filter{FieldUserID: user}, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := s.FindMany(ctx, Query{SortBy: "content_text"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("merge update", func(t *testing.T) {
		score := 72.5
		now := time.Now().UTC().Truncate(time.Microsecond)
		analysis := &types.AnalysisResult{ATSScore: score, MatchedSkills: []string{"go"}, MissingSkills: []string{},
			ExperienceMatch: types.ExperienceStrong, Suggestions: []string{}, Mode: types.ModeComparative}
		require.NoError(t, s.MergeUpdateOne(ctx, root.ID, Patch{
			ATSScore:       &score,
			AnalysisResult: analysis,
			LastAnalyzedAt: &now,
		}))

		got, err := s.GetByID(ctx, root.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ATSScore)
		assert.Equal(t, score, *got.ATSScore)
		require.NotNil(t, got.AnalysisResult)
		assert.Equal(t, types.ExperienceStrong, got.AnalysisResult.ExperienceMatch)
		assert.Equal(t, "cv.pdf", got.Filename, "untouched fields survive")

		err = s.MergeUpdateOne(ctx, uuid.NewString(), Patch{ATSScore: &score})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		n, err := s.DeleteOne(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.DeleteOne(ctx, other.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = s.GetByID(ctx, other.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

		// no cascade
		_, err = s.GetByID(ctx, child.ID)
		assert.NoError(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, "memory", s.Driver())
	runStoreContract(t, s)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := newResume("u", 1, nil, time.Now())
	require.NoError(t, s.InsertOne(ctx, r))

	got, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)
	got.Skills[0] = "mutated"
	got.Filename = "mutated"

	again, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, again.Skills)
	assert.Equal(t, "cv.pdf", again.Filename)

	err = s.InsertOne(ctx, r)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestMemoryStoreTieBreak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Now()
	var ids []string
	for range 5 {
		r := newResume("u", 1, nil, at)
		require.NoError(t, s.InsertOne(ctx, r))
		ids = append(ids, r.ID)
	}

	got, err := s.FindMany(ctx, Query{Filter: Filter{FieldUserID: "u"}, SortBy: FieldUploadedAt})
	require.NoError(t, err)
	for i, r := range got {
		assert.Equal(t, ids[i], r.ID)
	}
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	name := "x"
	assert.False(t, Patch{Filename: &name}.IsEmpty())
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("SKILLSNAP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SKILLSNAP_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	runStoreContract(t, s)
}

func TestCachedStore(t *testing.T) {
	addr := os.Getenv("SKILLSNAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SKILLSNAP_TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)

	s := NewCachedStore(NewMemoryStore(), client, time.Minute, nil)
	defer func() { _ = s.Close() }()
	assert.Equal(t, "memory+redis", s.Driver())

	runStoreContract(t, s)
}

func newMiniredisStore(t *testing.T, next Store) *CachedStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	s := NewCachedStore(next, client, time.Minute, nil)
	t.Cleanup(func() { _ = client.Close() })
	return s
}

func TestCachedStoreContract(t *testing.T) {
	runStoreContract(t, newMiniredisStore(t, NewMemoryStore()))
}

// pausingStore holds the first GetByID after it has read the row until release is closed.
type pausingStore struct {
	Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) GetByID(ctx context.Context, id string) (*types.Resume, error) {
	r, err := p.Store.GetByID(ctx, id)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return r, err
}

func TestCachedStoreFillRacingUpdate(t *testing.T) {
	ctx := context.Background()
	backing := &pausingStore{Store: NewMemoryStore(), read: make(chan struct{}), release: make(chan struct{})}
	s := newMiniredisStore(t, backing)

	r := newResume("user-1", 1, nil, time.Now())
	require.NoError(t, s.InsertOne(ctx, r))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		stale, err := s.GetByID(ctx, r.ID)
		assert.NoError(t, err)
		assert.Nil(t, stale.ATSScore)
	}()

	<-backing.read
	score := 91.0
	require.NoError(t, s.MergeUpdateOne(ctx, r.ID, Patch{ATSScore: &score}))
	close(backing.release)
	wg.Wait()

	got, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ATSScore)
	assert.Equal(t, score, *got.ATSScore)
}

func TestCachedStoreServesFromCache(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s := newMiniredisStore(t, mem)

	r := newResume("user-1", 1, nil, time.Now())
	require.NoError(t, s.InsertOne(ctx, r))
	_, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)

	// a write that bypasses the cache is not visible until invalidation
	score := 40.0
	require.NoError(t, mem.MergeUpdateOne(ctx, r.ID, Patch{ATSScore: &score}))
	cached, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, cached.ATSScore)
	assert.Equal(t, r.Seq, cached.Seq)

	require.NoError(t, s.MergeUpdateOne(ctx, r.ID, Patch{ATSScore: &score}))
	fresh, err := s.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.ATSScore)
	assert.Equal(t, score, *fresh.ATSScore)
}
