package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adcar/edx-platform/internal/models"
)

func emptySnapshot() models.ProviderSnapshot {
	return models.ProviderSnapshot{
		Certificates:  map[string]models.CertificateStatus{},
		Credits:       map[string]models.CreditStatus{},
		Verifications: map[string]models.VerificationStatus{},
		Financial:     map[string]models.FinancialInfo{},
		Email:         map[string]models.EmailPreference{},
		Courseware:    map[string]models.CoursewareAccess{},
		Programs:      map[string][]string{},
	}
}

func enrollment(courseID string) models.Enrollment {
	return models.Enrollment{
		CourseID:   courseID,
		LearnerID:  "learner-1",
		Mode:       models.ModeVerified,
		Active:     true,
		EnrolledAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestComposePreservesEnrollmentOrder(t *testing.T) {
	enrollments := []models.Enrollment{
		enrollment("course-c"),
		enrollment("course-a"),
		enrollment("course-b"),
	}
	snap := emptySnapshot()
	// Make the middle course "better" on every axis; order must not change.
	snap.Courseware["course-a"] = models.CoursewareAccess{CourseID: "course-a", Visible: true}
	snap.Certificates["course-a"] = models.CertificateStatus{CourseID: "course-a", Status: models.CertStatusDownloadable, CanUnenroll: true}

	entries := Compose(enrollments, snap)
	require.Len(t, entries, 3)
	assert.Equal(t, "course-c", entries[0].Enrollment.CourseID)
	assert.Equal(t, "course-a", entries[1].Enrollment.CourseID)
	assert.Equal(t, "course-b", entries[2].Enrollment.CourseID)
	for i, entry := range entries {
		assert.Equal(t, i, entry.Position)
	}
}

func TestComposeEmptySnapshotDefaults(t *testing.T) {
	entries := Compose([]models.Enrollment{enrollment("course-1")}, emptySnapshot())
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.False(t, entry.ShowCoursewareLink)
	assert.True(t, entry.CanUnenroll, "absent certificate data must not trap the learner")
	assert.False(t, entry.ShowEmailSettings)
	assert.True(t, entry.EmailOptIn)
	assert.False(t, entry.ShowRefundOption)
	assert.False(t, entry.IsPaidCourse)
	assert.False(t, entry.IsCourseBlocked)

	assert.Equal(t, models.CertStatusNone, entry.Certificate.Status)
	assert.Equal(t, models.CreditNotApplicable, entry.Credit.Eligibility)
	assert.Equal(t, models.VerificationNotRequired, entry.Verification.State)
	assert.NotNil(t, entry.UnmetRequirements)
	assert.Empty(t, entry.UnmetRequirements)
	assert.NotNil(t, entry.RelatedPrograms)
	assert.Empty(t, entry.RelatedPrograms)
}

func TestComposeCoursewareVisibility(t *testing.T) {
	snap := emptySnapshot()
	snap.Courseware["visible"] = models.CoursewareAccess{CourseID: "visible", Visible: true}
	snap.Courseware["hidden"] = models.CoursewareAccess{CourseID: "hidden", Visible: false}

	entries := Compose([]models.Enrollment{
		enrollment("visible"),
		enrollment("hidden"),
		enrollment("unknown"),
	}, snap)

	assert.True(t, entries[0].ShowCoursewareLink)
	assert.False(t, entries[1].ShowCoursewareLink)
	assert.False(t, entries[2].ShowCoursewareLink, "absence means not visible")
}

func TestComposeCanUnenroll(t *testing.T) {
	snap := emptySnapshot()
	snap.Certificates["locked"] = models.CertificateStatus{CourseID: "locked", Status: models.CertStatusDownloadable, CanUnenroll: false}
	snap.Certificates["open"] = models.CertificateStatus{CourseID: "open", Status: models.CertStatusGenerating, CanUnenroll: true}

	entries := Compose([]models.Enrollment{
		enrollment("locked"),
		enrollment("open"),
		enrollment("absent"),
	}, snap)

	assert.False(t, entries[0].CanUnenroll)
	assert.True(t, entries[1].CanUnenroll)
	assert.True(t, entries[2].CanUnenroll)
}

func TestComposeEmailFlags(t *testing.T) {
	snap := emptySnapshot()
	snap.Email["bulk-on"] = models.EmailPreference{CourseID: "bulk-on", OptIn: false, BulkEmailEnabled: true}
	snap.Email["bulk-off"] = models.EmailPreference{CourseID: "bulk-off", OptIn: true, BulkEmailEnabled: false}

	entries := Compose([]models.Enrollment{
		enrollment("bulk-on"),
		enrollment("bulk-off"),
		enrollment("silent"),
	}, snap)

	assert.True(t, entries[0].ShowEmailSettings)
	assert.False(t, entries[0].EmailOptIn)

	assert.False(t, entries[1].ShowEmailSettings)
	assert.True(t, entries[1].EmailOptIn)

	assert.False(t, entries[2].ShowEmailSettings)
	assert.True(t, entries[2].EmailOptIn, "opt-in defaults true when the provider is silent")
}

func TestComposeFinancialFlags(t *testing.T) {
	snap := emptySnapshot()
	snap.Financial["paid"] = models.FinancialInfo{
		CourseID:       "paid",
		IsPaid:         true,
		RefundEligible: true,
		Mode:           models.CourseModeInfo{Slug: "verified", DisplayName: "Verified", MinPrice: 149, Currency: "USD"},
	}
	snap.Financial["blocked"] = models.FinancialInfo{CourseID: "blocked", IsBlocked: true}

	entries := Compose([]models.Enrollment{
		enrollment("paid"),
		enrollment("blocked"),
		enrollment("unknown"),
	}, snap)

	assert.True(t, entries[0].IsPaidCourse)
	assert.True(t, entries[0].ShowRefundOption)
	assert.False(t, entries[0].IsCourseBlocked)
	assert.Equal(t, "verified", entries[0].CourseMode.Slug)

	assert.True(t, entries[1].IsCourseBlocked)
	assert.False(t, entries[1].IsPaidCourse)

	// Unknown financial state fails closed on every flag.
	assert.False(t, entries[2].IsPaidCourse)
	assert.False(t, entries[2].ShowRefundOption)
	assert.False(t, entries[2].IsCourseBlocked)
	assert.Equal(t, models.CourseModeInfo{}, entries[2].CourseMode)
}

func TestComposeCreditPassthrough(t *testing.T) {
	snap := emptySnapshot()
	snap.Credits["credit-course"] = models.CreditStatus{
		CourseID:    "credit-course",
		Eligibility: models.CreditEligible,
		UnmetRequirements: []models.Requirement{
			{Namespace: "grade", Name: "grade", DisplayName: "Minimum Grade"},
		},
	}

	entries := Compose([]models.Enrollment{
		enrollment("credit-course"),
		enrollment("regular"),
	}, snap)

	assert.Equal(t, models.CreditEligible, entries[0].Credit.Eligibility)
	require.Len(t, entries[0].UnmetRequirements, 1)
	assert.Equal(t, "Minimum Grade", entries[0].UnmetRequirements[0].DisplayName)

	assert.Equal(t, models.CreditNotApplicable, entries[1].Credit.Eligibility)
	assert.Empty(t, entries[1].UnmetRequirements)
}

func TestComposeIndependentAcrossCourses(t *testing.T) {
	// Rich data for course A must not leak into course B, which has none.
	snap := emptySnapshot()
	snap.Courseware["a"] = models.CoursewareAccess{CourseID: "a", Visible: true}
	snap.Certificates["a"] = models.CertificateStatus{CourseID: "a", Status: models.CertStatusDownloadable, CanUnenroll: false}
	snap.Financial["a"] = models.FinancialInfo{CourseID: "a", IsPaid: true, RefundEligible: true}
	snap.Email["a"] = models.EmailPreference{CourseID: "a", OptIn: false, BulkEmailEnabled: true}
	snap.Programs["a"] = []string{"prog-1", "prog-2"}

	entries := Compose([]models.Enrollment{enrollment("a"), enrollment("b")}, snap)
	a, b := entries[0], entries[1]

	assert.True(t, a.ShowCoursewareLink)
	assert.False(t, a.CanUnenroll)
	assert.True(t, a.IsPaidCourse)
	assert.Equal(t, []string{"prog-1", "prog-2"}, a.RelatedPrograms)

	assert.False(t, b.ShowCoursewareLink)
	assert.True(t, b.CanUnenroll)
	assert.False(t, b.IsPaidCourse)
	assert.Empty(t, b.RelatedPrograms)
}

func TestComposeDeterministic(t *testing.T) {
	snap := emptySnapshot()
	snap.Courseware["a"] = models.CoursewareAccess{CourseID: "a", Visible: true}
	snap.Programs["a"] = []string{"prog-1"}
	enrollments := []models.Enrollment{enrollment("a"), enrollment("b")}

	first := Compose(enrollments, snap)
	second := Compose(enrollments, snap)
	assert.Equal(t, first, second)
}

func TestComposeNoEnrollments(t *testing.T) {
	entries := Compose(nil, emptySnapshot())
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
