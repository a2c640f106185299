package models

// EmailPreference is the email provider's per-course fact. BulkEmailEnabled
// says the course sends learner email at all (the "emailable" set); OptIn is
// the learner's own toggle and defaults to true when the provider is silent.
type EmailPreference struct {
	CourseID         string `db:"course_id" json:"course_id"`
	OptIn            bool   `db:"opt_in" json:"opt_in"`
	BulkEmailEnabled bool   `db:"bulk_email_enabled" json:"bulk_email_enabled"`
}
