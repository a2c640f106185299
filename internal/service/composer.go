package service

import "github.com/adcar/edx-platform/internal/models"

// Compose merges the provider snapshot into one DashboardEntry per enrollment.
// It is a pure, total function: no I/O, deterministic over its inputs, and it
// never fails — absent provider data is handled by per-field defaults, not
// errors. The output preserves enrollment order exactly; Position is the
// original index.
func Compose(enrollments []models.Enrollment, snap models.ProviderSnapshot) []models.DashboardEntry {
	entries := make([]models.DashboardEntry, 0, len(enrollments))
	for i, enrollment := range enrollments {
		entries = append(entries, composeEntry(enrollment, i, snap))
	}
	return entries
}

// Each field below is derived independently for one course; no field depends
// on another course's data. Display-only flags default closed (false) on
// absence, while CanUnenroll defaults open: missing certificate data is not
// evidence of a non-cancelable certificate state.
func composeEntry(enrollment models.Enrollment, position int, snap models.ProviderSnapshot) models.DashboardEntry {
	courseID := enrollment.CourseID

	cert, hasCert := snap.Certificates[courseID]
	if !hasCert {
		cert = models.NoCertificate(courseID)
	}

	credit, hasCredit := snap.Credits[courseID]
	if !hasCredit {
		credit = models.NoCredit(courseID)
	}

	verification, hasVerification := snap.Verifications[courseID]
	if !hasVerification {
		verification = models.NoVerification(courseID)
	}

	financial, hasFinancial := snap.Financial[courseID]

	email, hasEmail := snap.Email[courseID]
	optIn := true
	if hasEmail {
		optIn = email.OptIn
	}

	unmet := credit.UnmetRequirements
	if unmet == nil {
		unmet = []models.Requirement{}
	}

	programs := snap.Programs[courseID]
	if programs == nil {
		programs = []string{}
	}

	entry := models.DashboardEntry{
		Enrollment: enrollment,
		Position:   position,

		ShowCoursewareLink: snap.Courseware[courseID].Visible,
		CanUnenroll:        cert.Status == models.CertStatusNone || cert.CanUnenroll,
		ShowEmailSettings:  hasEmail && email.BulkEmailEnabled,
		EmailOptIn:         optIn,
		ShowRefundOption:   financial.RefundEligible,
		IsPaidCourse:       financial.IsPaid,
		IsCourseBlocked:    financial.IsBlocked,

		Certificate:       cert,
		Credit:            credit,
		Verification:      verification,
		UnmetRequirements: unmet,
		RelatedPrograms:   programs,
	}
	if hasFinancial {
		entry.CourseMode = financial.Mode
	}
	return entry
}
