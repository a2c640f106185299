package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adcar/edx-platform/internal/models"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
)

type fakeCertificates struct {
	result map[string]models.CertificateStatus
	err    error
	delay  time.Duration
	calls  [][]string
}

func (f *fakeCertificates) CertificatesByCourse(ctx context.Context, _ string, courseIDs []string) (map[string]models.CertificateStatus, error) {
	f.calls = append(f.calls, courseIDs)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeCredits struct {
	result map[string]models.CreditStatus
	err    error
}

func (f *fakeCredits) CreditsByCourse(context.Context, string, []string) (map[string]models.CreditStatus, error) {
	return f.result, f.err
}

type fakeVerifications struct {
	result map[string]models.VerificationStatus
	err    error
}

func (f *fakeVerifications) VerificationsByCourse(context.Context, string, []string) (map[string]models.VerificationStatus, error) {
	return f.result, f.err
}

type fakeFinancial struct {
	result map[string]models.FinancialInfo
	err    error
}

func (f *fakeFinancial) FinancialByCourse(context.Context, string, []string) (map[string]models.FinancialInfo, error) {
	return f.result, f.err
}

type fakeEmail struct {
	result map[string]models.EmailPreference
	err    error
}

func (f *fakeEmail) EmailPreferencesByCourse(context.Context, string, []string) (map[string]models.EmailPreference, error) {
	return f.result, f.err
}

type fakeCourseware struct {
	result map[string]models.CoursewareAccess
	err    error
}

func (f *fakeCourseware) CoursewareAccessByCourse(context.Context, string, []string) (map[string]models.CoursewareAccess, error) {
	return f.result, f.err
}

func newTestCoordinator(params CoordinatorParams) *FetchCoordinator {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return NewFetchCoordinator(params)
}

func TestFetchAllProvidersHealthy(t *testing.T) {
	certs := &fakeCertificates{result: map[string]models.CertificateStatus{
		"course-1": {CourseID: "course-1", Status: models.CertStatusDownloadable, CanUnenroll: true},
	}}
	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: certs,
		Credits:      &fakeCredits{result: map[string]models.CreditStatus{}},
		Verification: &fakeVerifications{result: map[string]models.VerificationStatus{}},
		Financial:    &fakeFinancial{result: map[string]models.FinancialInfo{}},
		Email:        &fakeEmail{result: map[string]models.EmailPreference{}},
		Courseware:   &fakeCourseware{result: map[string]models.CoursewareAccess{}},
	})

	snap := coordinator.Fetch(context.Background(), "learner-1", []string{"course-1", "course-2"})

	assert.Empty(t, snap.Degraded)
	assert.Len(t, snap.Certificates, 1)
	assert.NotEmpty(t, snap.TraceID)
	require.Len(t, certs.calls, 1)
	assert.Equal(t, []string{"course-1", "course-2"}, certs.calls[0])
}

func TestFetchProviderErrorDegradesToEmpty(t *testing.T) {
	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: &fakeCertificates{err: errors.New("connection refused")},
		Credits:      &fakeCredits{result: map[string]models.CreditStatus{"c": {CourseID: "c"}}},
	})

	snap := coordinator.Fetch(context.Background(), "learner-1", []string{"c"})

	require.Len(t, snap.Degraded, 1)
	assert.Equal(t, models.ProviderCertificates, snap.Degraded[0].Name)
	assert.Equal(t, models.DegradeUnavailable, snap.Degraded[0].Reason)
	assert.Empty(t, snap.Certificates, "failed provider yields an empty map, never nil data for known courses")
	assert.Len(t, snap.Credits, 1, "healthy providers keep their results")
}

func TestFetchProviderTimeoutDegradesWithTimeoutReason(t *testing.T) {
	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: &fakeCertificates{delay: 200 * time.Millisecond},
		Config:       CoordinatorConfig{LookupTimeout: 20 * time.Millisecond, RenderDeadline: time.Second},
	})

	start := time.Now()
	snap := coordinator.Fetch(context.Background(), "learner-1", []string{"c"})
	elapsed := time.Since(start)

	require.Len(t, snap.Degraded, 1)
	assert.Equal(t, models.DegradeTimeout, snap.Degraded[0].Reason)
	assert.Less(t, elapsed, 150*time.Millisecond, "a stuck provider must not hold the render hostage")
}

func TestFetchSlowProvidersDegradeIndependently(t *testing.T) {
	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: &fakeCertificates{delay: 500 * time.Millisecond},
		Email: &fakeEmail{result: map[string]models.EmailPreference{
			"c": {CourseID: "c", OptIn: true, BulkEmailEnabled: true},
		}},
		Config: CoordinatorConfig{LookupTimeout: 30 * time.Millisecond, RenderDeadline: time.Second},
	})

	snap := coordinator.Fetch(context.Background(), "learner-1", []string{"c"})

	require.Len(t, snap.Degraded, 1)
	assert.Equal(t, models.ProviderCertificates, snap.Degraded[0].Name)
	assert.Len(t, snap.Email, 1)
}

func TestFetchDeduplicatesCourseIDs(t *testing.T) {
	certs := &fakeCertificates{result: map[string]models.CertificateStatus{}}
	coordinator := newTestCoordinator(CoordinatorParams{Certificates: certs})

	coordinator.Fetch(context.Background(), "learner-1", []string{"a", "b", "a", "", "b"})

	require.Len(t, certs.calls, 1)
	assert.Equal(t, []string{"a", "b"}, certs.calls[0])
}

func TestFetchNoProvidersConfigured(t *testing.T) {
	coordinator := newTestCoordinator(CoordinatorParams{})

	snap := coordinator.Fetch(context.Background(), "learner-1", []string{"c"})

	assert.Empty(t, snap.Degraded)
	assert.NotNil(t, snap.Certificates)
	assert.NotNil(t, snap.Credits)
	assert.NotNil(t, snap.Verifications)
	assert.NotNil(t, snap.Financial)
	assert.NotNil(t, snap.Email)
	assert.NotNil(t, snap.Courseware)
	assert.NotNil(t, snap.Programs)
}

func TestFetchRespectsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: &fakeCertificates{delay: time.Second},
		Config:       CoordinatorConfig{LookupTimeout: 2 * time.Second, RenderDeadline: 3 * time.Second},
	})

	start := time.Now()
	snap := coordinator.Fetch(ctx, "learner-1", []string{"c"})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, snap.Degraded, 1)
}

func TestFetchDegradationLogsTypedProviderErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	coordinator := newTestCoordinator(CoordinatorParams{
		Certificates: &fakeCertificates{delay: 200 * time.Millisecond},
		Email:        &fakeEmail{err: errors.New("connection refused")},
		Logger:       zap.New(core),
		Config:       CoordinatorConfig{LookupTimeout: 20 * time.Millisecond, RenderDeadline: time.Second},
	})

	coordinator.Fetch(context.Background(), "learner-1", []string{"c"})

	codes := map[string]string{}
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		provider, _ := fields["provider"].(string)
		code, _ := fields["code"].(string)
		codes[provider] = code
	}
	assert.Equal(t, appErrors.ErrProviderTimeout.Code, codes[string(models.ProviderCertificates)])
	assert.Equal(t, appErrors.ErrProviderUnavailable.Code, codes[string(models.ProviderEmail)])
}
