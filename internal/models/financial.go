package models

import "time"

// CourseModeInfo is financial mode metadata passed through to the dashboard
// without derivation.
type CourseModeInfo struct {
	Slug           string     `db:"mode_slug" json:"slug"`
	DisplayName    string     `db:"mode_display_name" json:"display_name"`
	MinPrice       int        `db:"min_price" json:"min_price"`
	Currency       string     `db:"currency" json:"currency"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
}

// FinancialInfo bundles the financial provider's derived per-course booleans.
// IsPaid reflects a completed order, IsBlocked covers audit-access expiry and
// policy blocks, RefundEligible combines the refund time window with payment
// state. All three are computed by the provider, not by the composer.
type FinancialInfo struct {
	CourseID       string         `db:"course_id" json:"course_id"`
	IsPaid         bool           `db:"is_paid" json:"is_paid"`
	IsBlocked      bool           `db:"is_blocked" json:"is_blocked"`
	RefundEligible bool           `db:"refund_eligible" json:"refund_eligible"`
	Mode           CourseModeInfo `json:"mode"`
}
