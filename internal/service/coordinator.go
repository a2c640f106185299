package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adcar/edx-platform/internal/models"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
)

type certificateLookup interface {
	CertificatesByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CertificateStatus, error)
}

type creditLookup interface {
	CreditsByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CreditStatus, error)
}

type verificationLookup interface {
	VerificationsByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.VerificationStatus, error)
}

type financialLookup interface {
	FinancialByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.FinancialInfo, error)
}

type emailLookup interface {
	EmailPreferencesByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.EmailPreference, error)
}

type coursewareLookup interface {
	CoursewareAccessByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CoursewareAccess, error)
}

// CoordinatorConfig tunes the provider fan-out.
type CoordinatorConfig struct {
	// LookupTimeout bounds each individual provider call.
	LookupTimeout time.Duration
	// RenderDeadline bounds the whole fetch stage of one render.
	RenderDeadline time.Duration
}

// FetchCoordinator obtains a consistent provider snapshot for a single
// dashboard render. All provider batch calls are dispatched concurrently,
// each under its own timeout; a provider that errors or times out yields an
// empty mapping and a degraded diagnostic, never a fatal error. There are no
// retries: a timed-out provider is treated as unknown so total fetch latency
// stays near one timeout period regardless of provider count.
type FetchCoordinator struct {
	certificates certificateLookup
	credits      creditLookup
	verification verificationLookup
	financial    financialLookup
	email        emailLookup
	courseware   coursewareLookup
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          CoordinatorConfig
}

// CoordinatorParams groups constructor dependencies.
type CoordinatorParams struct {
	Certificates certificateLookup
	Credits      creditLookup
	Verification verificationLookup
	Financial    financialLookup
	Email        emailLookup
	Courseware   coursewareLookup
	Metrics      *MetricsService
	Logger       *zap.Logger
	Config       CoordinatorConfig
}

// NewFetchCoordinator constructs a FetchCoordinator with sane defaults.
func NewFetchCoordinator(params CoordinatorParams) *FetchCoordinator {
	cfg := params.Config
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	if cfg.RenderDeadline <= 0 {
		cfg.RenderDeadline = 5 * time.Second
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchCoordinator{
		certificates: params.Certificates,
		credits:      params.Credits,
		verification: params.Verification,
		financial:    params.Financial,
		email:        params.Email,
		courseware:   params.Courseware,
		metrics:      params.Metrics,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// Fetch issues one batch lookup per provider, all concurrently, and joins
// before returning: the snapshot is complete (possibly with empty maps) by the
// time the composer sees it. The caller's deadline, capped by RenderDeadline,
// cancels outstanding calls; whatever completed is kept.
func (f *FetchCoordinator) Fetch(ctx context.Context, learnerID string, courseIDs []string) models.ProviderSnapshot {
	ids := dedupeCourseIDs(courseIDs)

	snap := models.ProviderSnapshot{
		Certificates:  map[string]models.CertificateStatus{},
		Credits:       map[string]models.CreditStatus{},
		Verifications: map[string]models.VerificationStatus{},
		Financial:     map[string]models.FinancialInfo{},
		Email:         map[string]models.EmailPreference{},
		Courseware:    map[string]models.CoursewareAccess{},
		Programs:      map[string][]string{},
		TraceID:       uuid.NewString(),
		CapturedAt:    f.now().UTC(),
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.RenderDeadline)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(fetchCtx)

	run := func(name models.ProviderName, lookup func(context.Context) error) {
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, f.cfg.LookupTimeout)
			defer pcancel()

			start := f.now()
			err := lookup(pctx)
			duration := time.Since(start)
			f.metrics.ObserveProviderFetch(string(name), duration, err == nil)
			if err == nil {
				return nil
			}

			reason := models.DegradeUnavailable
			cause := appErrors.ErrProviderUnavailable
			if errors.Is(err, context.DeadlineExceeded) {
				reason = models.DegradeTimeout
				cause = appErrors.ErrProviderTimeout
			}
			f.metrics.RecordProviderDegraded(string(name), string(reason))
			f.logger.Warn("status provider degraded",
				zap.String("provider", string(name)),
				zap.String("reason", string(reason)),
				zap.String("code", cause.Code),
				zap.String("trace_id", snap.TraceID),
				zap.Error(appErrors.Wrap(err, cause.Code, cause.Status, cause.Message)))

			mu.Lock()
			snap.Degraded = append(snap.Degraded, models.DegradedProvider{Name: name, Reason: reason})
			mu.Unlock()
			// Degradation is absorbed here; the composer's defaults apply.
			return nil
		})
	}

	if f.certificates != nil {
		run(models.ProviderCertificates, func(pctx context.Context) error {
			result, err := f.certificates.CertificatesByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Certificates = result
			return nil
		})
	}
	if f.credits != nil {
		run(models.ProviderCredit, func(pctx context.Context) error {
			result, err := f.credits.CreditsByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Credits = result
			return nil
		})
	}
	if f.verification != nil {
		run(models.ProviderVerification, func(pctx context.Context) error {
			result, err := f.verification.VerificationsByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Verifications = result
			return nil
		})
	}
	if f.financial != nil {
		run(models.ProviderFinancial, func(pctx context.Context) error {
			result, err := f.financial.FinancialByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Financial = result
			return nil
		})
	}
	if f.email != nil {
		run(models.ProviderEmail, func(pctx context.Context) error {
			result, err := f.email.EmailPreferencesByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Email = result
			return nil
		})
	}
	if f.courseware != nil {
		run(models.ProviderCourseware, func(pctx context.Context) error {
			result, err := f.courseware.CoursewareAccessByCourse(pctx, learnerID, ids)
			if err != nil {
				return err
			}
			snap.Courseware = result
			return nil
		})
	}

	// Join point: composition never starts with providers still outstanding.
	_ = g.Wait()

	return snap
}

func dedupeCourseIDs(courseIDs []string) []string {
	seen := make(map[string]struct{}, len(courseIDs))
	result := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
