package models

import "time"

// VerificationState represents identity verification progress for one course.
type VerificationState string

// Possible verification states. VerificationNotRequired is the sentinel for
// courses the verification provider is silent on.
const (
	VerificationNotRequired VerificationState = "not_required"
	VerificationNotStarted  VerificationState = "not_started"
	VerificationPending     VerificationState = "pending"
	VerificationApproved    VerificationState = "approved"
	VerificationExpired     VerificationState = "expired"
	VerificationDenied      VerificationState = "denied"
)

// VerificationStatus is the verification provider's per-course fact.
type VerificationStatus struct {
	CourseID string            `db:"course_id" json:"course_id"`
	State    VerificationState `db:"state" json:"state"`
	Deadline *time.Time        `db:"deadline" json:"deadline,omitempty"`
}

// NoVerification is the defaulted status for courses the provider is silent on.
func NoVerification(courseID string) VerificationStatus {
	return VerificationStatus{CourseID: courseID, State: VerificationNotRequired}
}
