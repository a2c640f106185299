package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/adcar/edx-platform/internal/models"
	"github.com/adcar/edx-platform/pkg/jobs"
)

// RefreshJobType identifies catalog refresh jobs on the background queue.
const RefreshJobType = "catalog_refresh"

type programCatalog interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
}

type programIndexSnapshot struct {
	byCourse     map[string][]string
	builtAt      time.Time
	programCount int
}

// ProgramIndex is the inverted course-to-programs index shared by all
// concurrent renders. Readers always see a complete index: rebuilds construct
// a fresh snapshot and publish it with a single atomic pointer swap, so a
// half-built index is never observable. Concurrent rebuild requests collapse
// into one catalog load via singleflight.
type ProgramIndex struct {
	catalog    programCatalog
	metrics    *MetricsService
	logger     *zap.Logger
	staleAfter time.Duration
	now        func() time.Time

	group    singleflight.Group
	snapshot atomic.Pointer[programIndexSnapshot]
}

// NewProgramIndex constructs an empty index; call Refresh before serving.
func NewProgramIndex(catalog programCatalog, staleAfter time.Duration, metrics *MetricsService, logger *zap.Logger) *ProgramIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	idx := &ProgramIndex{
		catalog:    catalog,
		metrics:    metrics,
		logger:     logger,
		staleAfter: staleAfter,
		now:        time.Now,
	}
	idx.snapshot.Store(&programIndexSnapshot{byCourse: map[string][]string{}})
	return idx
}

// Refresh rebuilds the index from the full program catalog and swaps it in.
func (idx *ProgramIndex) Refresh(ctx context.Context) error {
	_, err, _ := idx.group.Do("refresh", func() (interface{}, error) {
		loadStart := time.Now()
		programs, err := idx.catalog.ListPrograms(ctx)
		idx.metrics.ObserveDBQuery("programs_list", time.Since(loadStart))
		if err != nil {
			return nil, err
		}

		byCourse := make(map[string][]string)
		for _, program := range programs {
			for _, courseID := range program.CourseIDs {
				if courseID == "" {
					continue
				}
				if containsString(byCourse[courseID], program.ID) {
					continue
				}
				byCourse[courseID] = append(byCourse[courseID], program.ID)
			}
		}

		next := &programIndexSnapshot{
			byCourse:     byCourse,
			builtAt:      idx.now().UTC(),
			programCount: len(programs),
		}
		idx.snapshot.Store(next)
		idx.logger.Info("program index rebuilt",
			zap.Int("programs", next.programCount),
			zap.Int("courses", len(byCourse)))
		return nil, nil
	})
	return err
}

// Resolve returns the program memberships for the given course ids. Courses
// in no program map to an empty list, never an error.
func (idx *ProgramIndex) Resolve(courseIDs []string) map[string][]string {
	snap := idx.snapshot.Load()
	result := make(map[string][]string, len(courseIDs))
	for _, courseID := range courseIDs {
		programs := snap.byCourse[courseID]
		if programs == nil {
			result[courseID] = []string{}
			continue
		}
		// Copy so renders never alias the shared snapshot.
		result[courseID] = append([]string(nil), programs...)
	}
	return result
}

// Stale reports whether the index is older than the configured threshold.
// Staleness is diagnostic only; it never blocks a render.
func (idx *ProgramIndex) Stale() bool {
	snap := idx.snapshot.Load()
	if snap.builtAt.IsZero() {
		return true
	}
	return idx.now().Sub(snap.builtAt) > idx.staleAfter
}

// BuiltAt returns when the current snapshot was constructed.
func (idx *ProgramIndex) BuiltAt() time.Time {
	return idx.snapshot.Load().builtAt
}

// HandleRefreshJob adapts Refresh for the background queue; failed rebuilds
// are retried by the queue's retry policy while readers keep the last good
// snapshot.
func (idx *ProgramIndex) HandleRefreshJob(ctx context.Context, _ jobs.Job) error {
	return idx.Refresh(ctx)
}

// ScheduleRefresh enqueues a refresh job immediately and then on every tick
// until ctx is done.
func (idx *ProgramIndex) ScheduleRefresh(ctx context.Context, queue *jobs.Queue, interval time.Duration) {
	if queue == nil || interval <= 0 {
		return
	}
	enqueue := func() {
		job := jobs.Job{ID: uuid.NewString(), Type: RefreshJobType}
		if err := queue.Enqueue(job); err != nil {
			idx.logger.Warn("failed to enqueue catalog refresh", zap.Error(err))
		}
	}
	enqueue()
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				enqueue()
			}
		}
	}()
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
