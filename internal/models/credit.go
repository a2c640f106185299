package models

// CreditEligibility represents a learner's credit standing in one course.
type CreditEligibility string

// Possible credit eligibility values. CreditNotApplicable is the sentinel for
// courses that are not credit courses for this learner.
const (
	CreditNotApplicable CreditEligibility = "not_applicable"
	CreditEligible      CreditEligibility = "eligible"
	CreditPending       CreditEligibility = "pending"
	CreditPurchased     CreditEligibility = "purchased"
	CreditRejected      CreditEligibility = "rejected"
)

// Requirement describes one unmet credit requirement.
type Requirement struct {
	Namespace   string `db:"namespace" json:"namespace"`
	Name        string `db:"name" json:"name"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// CreditStatus is the credit provider's per-course fact.
type CreditStatus struct {
	CourseID          string            `db:"course_id" json:"course_id"`
	Eligibility       CreditEligibility `db:"eligibility" json:"eligibility"`
	UnmetRequirements []Requirement     `json:"unmet_requirements,omitempty"`
}

// NoCredit is the defaulted status for courses the provider is silent on.
func NoCredit(courseID string) CreditStatus {
	return CreditStatus{CourseID: courseID, Eligibility: CreditNotApplicable}
}
