package models

// DashboardEntry is the fully-derived, per-course record driving what the
// dashboard may show. Exactly one entry is produced per enrollment, in
// enrollment order; Position is the original index and is never re-sorted by
// any derived field. Entries are immutable after emission.
type DashboardEntry struct {
	Enrollment Enrollment `json:"enrollment"`
	Position   int        `json:"position"`

	ShowCoursewareLink bool `json:"show_courseware_link"`
	CanUnenroll        bool `json:"can_unenroll"`
	ShowEmailSettings  bool `json:"show_email_settings"`
	EmailOptIn         bool `json:"email_opt_in"`
	ShowRefundOption   bool `json:"show_refund_option"`
	IsPaidCourse       bool `json:"is_paid_course"`
	IsCourseBlocked    bool `json:"is_course_blocked"`

	Certificate       CertificateStatus  `json:"certificate"`
	Credit            CreditStatus       `json:"credit"`
	Verification      VerificationStatus `json:"verification"`
	CourseMode        CourseModeInfo     `json:"course_mode"`
	UnmetRequirements []Requirement      `json:"unmet_requirements"`
	RelatedPrograms   []string           `json:"related_programs"`
}
