package models

// CertStatus represents the lifecycle of a course certificate.
type CertStatus string

// Possible certificate statuses. CertStatusNone is the sentinel used when the
// certificate provider has no record for a course.
const (
	CertStatusNone         CertStatus = "none"
	CertStatusUnavailable  CertStatus = "unavailable"
	CertStatusGenerating   CertStatus = "generating"
	CertStatusDownloadable CertStatus = "downloadable"
	CertStatusNotPassing   CertStatus = "notpassing"
	CertStatusRestricted   CertStatus = "restricted"
)

// CertificateStatus is the certificate provider's per-course fact.
type CertificateStatus struct {
	CourseID    string     `db:"course_id" json:"course_id"`
	Status      CertStatus `db:"status" json:"status"`
	CanUnenroll bool       `db:"can_unenroll" json:"can_unenroll"`
	DownloadURL string     `db:"download_url" json:"download_url,omitempty"`
}

// NoCertificate is the defaulted status for courses the provider is silent on.
// Absence is not evidence of a non-cancelable certificate state, so the
// sentinel permits unenrollment.
func NoCertificate(courseID string) CertificateStatus {
	return CertificateStatus{CourseID: courseID, Status: CertStatusNone, CanUnenroll: true}
}
