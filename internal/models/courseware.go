package models

// CoursewareAccess says whether the courseware link may be shown for a course,
// derived upstream from scheduling and start-date policy. Courses absent from
// the provider result are not visible.
type CoursewareAccess struct {
	CourseID string `db:"course_id" json:"course_id"`
	Visible  bool   `db:"visible" json:"visible"`
}
