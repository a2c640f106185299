package models

import "time"

// ProviderSnapshot bundles every provider's batch result for one dashboard
// render. It is constructed once by the fetch coordinator, read-only from then
// on, and shared with nothing outside its render. A provider that degraded is
// represented by an empty map plus an entry in Degraded; the composer's
// absence defaults then apply to every course.
type ProviderSnapshot struct {
	Certificates  map[string]CertificateStatus
	Credits       map[string]CreditStatus
	Verifications map[string]VerificationStatus
	Financial     map[string]FinancialInfo
	Email         map[string]EmailPreference
	Courseware    map[string]CoursewareAccess

	// Programs maps course id to the ordered program ids it contributes to,
	// resolved from the shared catalog index at capture time.
	Programs map[string][]string

	Degraded   []DegradedProvider
	TraceID    string
	CapturedAt time.Time
}

// DegradedNames flattens the degraded list for diagnostics.
func (s ProviderSnapshot) DegradedNames() []string {
	if len(s.Degraded) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Degraded))
	for _, d := range s.Degraded {
		names = append(names, string(d.Name))
	}
	return names
}

// HasDegraded reports whether the named provider fell back to empty results.
func (s ProviderSnapshot) HasDegraded(name ProviderName) bool {
	for _, d := range s.Degraded {
		if d.Name == name {
			return true
		}
	}
	return false
}
