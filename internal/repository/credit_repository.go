package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// CreditRepository answers batch credit-eligibility lookups.
type CreditRepository struct {
	db *sqlx.DB
}

// NewCreditRepository constructs the repository.
func NewCreditRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

type creditRequirementRow struct {
	CourseID    string `db:"course_id"`
	Namespace   string `db:"namespace"`
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
}

// CreditsByCourse returns the learner's credit standing plus any unmet
// requirements for each credit course among the given ids. Non-credit courses
// are absent from the map.
func (r *CreditRepository) CreditsByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.CreditStatus, error) {
	if len(courseIDs) == 0 {
		return map[string]models.CreditStatus{}, nil
	}

	query := `SELECT course_id, eligibility
        FROM credit_eligibility
        WHERE learner_id = $1 AND course_id = ANY($2)`

	var rows []models.CreditStatus
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("credit eligibility for %s: %w", learnerID, err)
	}
	if len(rows) == 0 {
		return map[string]models.CreditStatus{}, nil
	}

	result := make(map[string]models.CreditStatus, len(rows))
	creditCourses := make([]string, 0, len(rows))
	for _, row := range rows {
		result[row.CourseID] = row
		creditCourses = append(creditCourses, row.CourseID)
	}

	reqQuery := `SELECT course_id, namespace, name, display_name
        FROM credit_requirements
        WHERE learner_id = $1 AND course_id = ANY($2) AND satisfied = FALSE
        ORDER BY course_id, namespace, name`

	var reqRows []creditRequirementRow
	if err := r.db.SelectContext(ctx, &reqRows, reqQuery, learnerID, pq.Array(creditCourses)); err != nil {
		return nil, fmt.Errorf("credit requirements for %s: %w", learnerID, err)
	}
	for _, req := range reqRows {
		status := result[req.CourseID]
		status.UnmetRequirements = append(status.UnmetRequirements, models.Requirement{
			Namespace:   req.Namespace,
			Name:        req.Name,
			DisplayName: req.DisplayName,
		})
		result[req.CourseID] = status
	}

	return result, nil
}
