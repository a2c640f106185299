package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// CertificateRepository answers batch certificate lookups for the dashboard.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// CertificatesByCourse returns the learner's certificate status for each of
// the given courses that has one. Courses without a certificate record are
// simply absent from the map.
func (r *CertificateRepository) CertificatesByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CertificateStatus, error) {
	if len(courseIDs) == 0 {
		return map[string]models.CertificateStatus{}, nil
	}

	query := `SELECT course_id, status, can_unenroll, download_url
        FROM certificates
        WHERE learner_id = $1 AND course_id = ANY($2)`

	var rows []models.CertificateStatus
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("certificates for %s: %w", learnerID, err)
	}

	result := make(map[string]models.CertificateStatus, len(rows))
	for _, row := range rows {
		result[row.CourseID] = row
	}
	return result, nil
}
