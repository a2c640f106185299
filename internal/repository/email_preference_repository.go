package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// EmailPreferenceRepository answers batch course-email lookups.
type EmailPreferenceRepository struct {
	db *sqlx.DB
}

// NewEmailPreferenceRepository constructs the repository.
func NewEmailPreferenceRepository(db *sqlx.DB) *EmailPreferenceRepository {
	return &EmailPreferenceRepository{db: db}
}

// EmailPreferencesByCourse returns bulk-email capability and the learner's
// opt-in for each of the given courses that sends learner email. Courses that
// never email learners are absent from the map.
func (r *EmailPreferenceRepository) EmailPreferencesByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.EmailPreference, error) {
	if len(courseIDs) == 0 {
		return map[string]models.EmailPreference{}, nil
	}

	query := `SELECT c.course_id, c.bulk_email_enabled,
            COALESCE(p.opt_in, TRUE) AS opt_in
        FROM course_email_settings c
        LEFT JOIN email_preferences p ON p.course_id = c.course_id AND p.learner_id = $1
        WHERE c.course_id = ANY($2)`

	var rows []models.EmailPreference
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("email preferences for %s: %w", learnerID, err)
	}

	result := make(map[string]models.EmailPreference, len(rows))
	for _, row := range rows {
		result[row.CourseID] = row
	}
	return result, nil
}
