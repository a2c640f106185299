package dto

import (
	"time"

	"github.com/adcar/edx-platform/internal/models"
)

// DashboardStatusResponse is the composed dashboard payload for one learner.
type DashboardStatusResponse struct {
	LearnerID         string                  `json:"learnerId"`
	Entries           []models.DashboardEntry `json:"entries"`
	DegradedProviders []string                `json:"degradedProviders,omitempty"`
	CatalogStale      bool                    `json:"catalogStale,omitempty"`
	GeneratedAt       time.Time               `json:"generatedAt"`
}

// ExportRequest asks for a downloadable rendering of the learner's dashboard.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResponse returns the signed download link for a generated export.
type ExportResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expiresAt"`
}
