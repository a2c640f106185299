package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/adcar/edx-platform/internal/models"
)

// EnrollmentRepository loads learner enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListActiveByLearner returns the learner's active enrollments in dashboard
// order. The order is stable across renders: oldest enrollment first, course
// id as the tiebreaker.
func (r *EnrollmentRepository) ListActiveByLearner(ctx context.Context, learnerID string) ([]models.Enrollment, error) {
	query := `SELECT course_id, learner_id, mode, active, enrolled_at
        FROM enrollments
        WHERE learner_id = $1 AND active = TRUE
        ORDER BY enrolled_at ASC, course_id ASC`

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, learnerID); err != nil {
		return nil, fmt.Errorf("list enrollments for %s: %w", learnerID, err)
	}
	return enrollments, nil
}
