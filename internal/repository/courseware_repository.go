package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// CoursewareRepository answers batch courseware-visibility lookups.
type CoursewareRepository struct {
	db *sqlx.DB
}

// NewCoursewareRepository constructs the repository.
func NewCoursewareRepository(db *sqlx.DB) *CoursewareRepository {
	return &CoursewareRepository{db: db}
}

// CoursewareAccessByCourse returns the visibility decision for each of the
// given courses the learner may currently enter. Visibility is precomputed
// upstream from start dates and scheduling policy.
func (r *CoursewareRepository) CoursewareAccessByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CoursewareAccess, error) {
	if len(courseIDs) == 0 {
		return map[string]models.CoursewareAccess{}, nil
	}

	query := `SELECT course_id, visible
        FROM courseware_access
        WHERE learner_id = $1 AND course_id = ANY($2)`

	var rows []models.CoursewareAccess
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("courseware access for %s: %w", learnerID, err)
	}

	result := make(map[string]models.CoursewareAccess, len(rows))
	for _, row := range rows {
		result[row.CourseID] = row
	}
	return result, nil
}
