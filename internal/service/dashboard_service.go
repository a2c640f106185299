package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adcar/edx-platform/internal/dto"
	"github.com/adcar/edx-platform/internal/models"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
)

type enrollmentLister interface {
	ListActiveByLearner(ctx context.Context, learnerID string) ([]models.Enrollment, error)
}

type snapshotFetcher interface {
	Fetch(ctx context.Context, learnerID string, courseIDs []string) models.ProviderSnapshot
}

type programResolver interface {
	Resolve(courseIDs []string) map[string][]string
	Stale() bool
}

// DashboardServiceConfig tunes dashboard rendering behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	// RequiredProviders lists provider names whose degradation fails the
	// whole render. Empty means every provider is optional.
	RequiredProviders []string
}

// DashboardService renders per-learner dashboard status payloads: it loads
// the enrollment list, fans out to the status providers, attaches program
// memberships and composes one entry per enrollment.
type DashboardService struct {
	enrollments enrollmentLister
	coordinator snapshotFetcher
	programs    programResolver
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig

	required map[string]struct{}
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Enrollments enrollmentLister
	Coordinator snapshotFetcher
	Programs    programResolver
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[string]struct{}, len(models.AllProviders))
	for _, provider := range models.AllProviders {
		known[string(provider)] = struct{}{}
	}
	required := make(map[string]struct{}, len(cfg.RequiredProviders))
	for _, name := range cfg.RequiredProviders {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			logger.Warn("ignoring unknown required provider", zap.String("provider", name))
			continue
		}
		required[name] = struct{}{}
	}
	return &DashboardService{
		enrollments: params.Enrollments,
		coordinator: params.Coordinator,
		programs:    params.Programs,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
		required:    required,
	}
}

// RenderStatus composes the dashboard status for one learner. The second
// return value indicates the payload came from cache.
func (s *DashboardService) RenderStatus(ctx context.Context, learnerID string) (*dto.DashboardStatusResponse, bool, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "learner id is required")
	}

	cacheKey := dashboardStatusCacheKey(learnerID)
	if s.cache.Enabled() {
		var cached dto.DashboardStatusResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	queryStart := time.Now()
	enrollments, err := s.enrollments.ListActiveByLearner(ctx, learnerID)
	s.metrics.ObserveDBQuery("enrollments_list", time.Since(queryStart))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrollments")
	}

	courseIDs := make([]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	snap := s.coordinator.Fetch(ctx, learnerID, courseIDs)
	if failed := s.failedRequired(snap); len(failed) > 0 {
		return nil, false, appErrors.Clone(appErrors.ErrRequiredProvider,
			fmt.Sprintf("required provider degraded: %s", strings.Join(failed, ", ")))
	}
	if s.programs != nil {
		snap.Programs = s.programs.Resolve(courseIDs)
	}

	entries := Compose(enrollments, snap)

	resp := &dto.DashboardStatusResponse{
		LearnerID:         learnerID,
		Entries:           entries,
		DegradedProviders: snap.DegradedNames(),
		GeneratedAt:       s.now().UTC(),
	}
	if s.programs != nil && s.programs.Stale() {
		resp.CatalogStale = true
		s.logger.Warn("serving dashboard with stale program catalog",
			zap.String("learner_id", learnerID),
			zap.String("trace_id", snap.TraceID),
			zap.Error(appErrors.ErrCatalogStale))
	}

	// Degraded renders are intentionally not cached so the next request
	// retries the failed providers.
	if s.cache.Enabled() && len(snap.Degraded) == 0 {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard status", zap.String("learner_id", learnerID), zap.Error(err))
		}
	}

	return resp, false, nil
}

// InvalidateLearner drops any cached dashboard payloads for the learner, for
// callers that mutate enrollment state out of band.
func (s *DashboardService) InvalidateLearner(ctx context.Context, learnerID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	return s.cache.Invalidate(ctx, dashboardStatusCacheKey(learnerID))
}

func (s *DashboardService) failedRequired(snap models.ProviderSnapshot) []string {
	if len(s.required) == 0 {
		return nil
	}
	var failed []string
	for _, degraded := range snap.Degraded {
		if _, ok := s.required[string(degraded.Name)]; ok {
			failed = append(failed, string(degraded.Name))
		}
	}
	return failed
}

func dashboardStatusCacheKey(learnerID string) string {
	return fmt.Sprintf("dashboard:status:%s", learnerID)
}
