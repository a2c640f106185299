package models

// ProviderName identifies one status provider in diagnostics and configuration.
type ProviderName string

// The provider fan-out for one dashboard render.
const (
	ProviderCertificates ProviderName = "certificates"
	ProviderCredit       ProviderName = "credit"
	ProviderVerification ProviderName = "verification"
	ProviderFinancial    ProviderName = "financial"
	ProviderEmail        ProviderName = "email"
	ProviderCourseware   ProviderName = "courseware"
)

// AllProviders lists every provider the coordinator dispatches to.
var AllProviders = []ProviderName{
	ProviderCertificates,
	ProviderCredit,
	ProviderVerification,
	ProviderFinancial,
	ProviderEmail,
	ProviderCourseware,
}

// DegradeReason classifies why a provider yielded no data.
type DegradeReason string

const (
	DegradeTimeout     DegradeReason = "timeout"
	DegradeUnavailable DegradeReason = "unavailable"
)

// DegradedProvider records one provider that fell back to empty results.
type DegradedProvider struct {
	Name   ProviderName  `json:"name"`
	Reason DegradeReason `json:"reason"`
}
