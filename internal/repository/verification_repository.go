package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// VerificationRepository answers batch identity-verification lookups.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// VerificationsByCourse returns the learner's verification state for each of
// the given courses that requires verification.
func (r *VerificationRepository) VerificationsByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.VerificationStatus, error) {
	if len(courseIDs) == 0 {
		return map[string]models.VerificationStatus{}, nil
	}

	query := `SELECT course_id, state, deadline
        FROM verification_status
        WHERE learner_id = $1 AND course_id = ANY($2)`

	var rows []models.VerificationStatus
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("verification status for %s: %w", learnerID, err)
	}

	result := make(map[string]models.VerificationStatus, len(rows))
	for _, row := range rows {
		result[row.CourseID] = row
	}
	return result, nil
}
