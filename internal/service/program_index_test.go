package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adcar/edx-platform/internal/models"
)

type fakeCatalog struct {
	mu       sync.Mutex
	programs []models.Program
	err      error
	calls    int
}

func (f *fakeCatalog) ListPrograms(context.Context) ([]models.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.programs, nil
}

func TestProgramIndexResolve(t *testing.T) {
	catalog := &fakeCatalog{programs: []models.Program{
		{ID: "prog-1", Title: "Data Science", CourseIDs: []string{"course-a", "course-b"}},
		{ID: "prog-2", Title: "Statistics", CourseIDs: []string{"course-b"}},
	}}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	memberships := idx.Resolve([]string{"course-a", "course-b", "course-z"})

	assert.Equal(t, []string{"prog-1"}, memberships["course-a"])
	assert.Equal(t, []string{"prog-1", "prog-2"}, memberships["course-b"])
	assert.NotNil(t, memberships["course-z"])
	assert.Empty(t, memberships["course-z"], "courses in no program resolve to an empty list, not an error")
}

func TestProgramIndexEmptyBeforeFirstRefresh(t *testing.T) {
	idx := NewProgramIndex(&fakeCatalog{}, time.Hour, nil, nil)

	memberships := idx.Resolve([]string{"course-a"})

	assert.Empty(t, memberships["course-a"])
	assert.True(t, idx.Stale())
}

func TestProgramIndexRefreshFailureKeepsLastSnapshot(t *testing.T) {
	catalog := &fakeCatalog{programs: []models.Program{
		{ID: "prog-1", Title: "Data Science", CourseIDs: []string{"course-a"}},
	}}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	catalog.mu.Lock()
	catalog.err = errors.New("catalog down")
	catalog.mu.Unlock()
	require.Error(t, idx.Refresh(context.Background()))

	memberships := idx.Resolve([]string{"course-a"})
	assert.Equal(t, []string{"prog-1"}, memberships["course-a"], "a failed rebuild never clobbers the served index")
}

func TestProgramIndexDeduplicatesProgramIDs(t *testing.T) {
	catalog := &fakeCatalog{programs: []models.Program{
		{ID: "prog-1", Title: "Data Science", CourseIDs: []string{"course-a", "course-a"}},
	}}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	memberships := idx.Resolve([]string{"course-a"})
	assert.Equal(t, []string{"prog-1"}, memberships["course-a"])
}

func TestProgramIndexStaleness(t *testing.T) {
	catalog := &fakeCatalog{}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))
	assert.False(t, idx.Stale())

	idx.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.True(t, idx.Stale())
}

func TestProgramIndexResolveCopiesMemberships(t *testing.T) {
	catalog := &fakeCatalog{programs: []models.Program{
		{ID: "prog-1", Title: "Data Science", CourseIDs: []string{"course-a"}},
	}}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	first := idx.Resolve([]string{"course-a"})
	first["course-a"][0] = "mutated"

	second := idx.Resolve([]string{"course-a"})
	assert.Equal(t, []string{"prog-1"}, second["course-a"])
}

func TestProgramIndexConcurrentResolveDuringRefresh(t *testing.T) {
	catalog := &fakeCatalog{programs: []models.Program{
		{ID: "prog-1", Title: "Data Science", CourseIDs: []string{"course-a"}},
	}}
	idx := NewProgramIndex(catalog, time.Hour, nil, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				memberships := idx.Resolve([]string{"course-a"})
				// Readers always see a complete snapshot.
				assert.Equal(t, []string{"prog-1"}, memberships["course-a"])
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Refresh(context.Background()))
	}
	wg.Wait()
}
