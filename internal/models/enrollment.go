package models

import "time"

// EnrollmentMode identifies the track a learner registered under.
type EnrollmentMode string

// Supported enrollment modes.
const (
	ModeAudit        EnrollmentMode = "audit"
	ModeHonor        EnrollmentMode = "honor"
	ModeVerified     EnrollmentMode = "verified"
	ModeCredit       EnrollmentMode = "credit"
	ModeProfessional EnrollmentMode = "professional"
)

// Enrollment captures a learner's registration in one course run. The
// per-learner enrollment list is an immutable, ordered snapshot for the
// duration of one composition pass; course id is unique within it.
type Enrollment struct {
	CourseID   string         `db:"course_id" json:"course_id"`
	LearnerID  string         `db:"learner_id" json:"learner_id"`
	Mode       EnrollmentMode `db:"mode" json:"mode"`
	Active     bool           `db:"active" json:"is_active"`
	EnrolledAt time.Time      `db:"enrolled_at" json:"enrolled_at"`
}
