package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adcar/edx-platform/internal/models"
)

// FinancialRepository answers batch payment and refund-state lookups.
type FinancialRepository struct {
	db *sqlx.DB
}

// NewFinancialRepository constructs the repository.
func NewFinancialRepository(db *sqlx.DB) *FinancialRepository {
	return &FinancialRepository{db: db}
}

type financialRow struct {
	CourseID       string     `db:"course_id"`
	IsPaid         bool       `db:"is_paid"`
	IsBlocked      bool       `db:"is_blocked"`
	RefundEligible bool       `db:"refund_eligible"`
	ModeSlug       string     `db:"mode_slug"`
	ModeName       string     `db:"mode_display_name"`
	MinPrice       int        `db:"min_price"`
	Currency       string     `db:"currency"`
	ExpirationDate *time.Time `db:"expiration_date"`
}

// FinancialByCourse returns payment, block and refund facts joined with the
// enrolled course mode for each of the given courses that has a financial
// record.
func (r *FinancialRepository) FinancialByCourse(ctx context.Context, learnerID string, courseIDs []string) (map[string]models.FinancialInfo, error) {
	if len(courseIDs) == 0 {
		return map[string]models.FinancialInfo{}, nil
	}

	query := `SELECT f.course_id, f.is_paid, f.is_blocked, f.refund_eligible,
            m.slug AS mode_slug, m.display_name AS mode_display_name,
            m.min_price, m.currency, m.expiration_date
        FROM financial_status f
        JOIN course_modes m ON m.course_id = f.course_id AND m.slug = f.mode_slug
        WHERE f.learner_id = $1 AND f.course_id = ANY($2)`

	var rows []financialRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("financial status for %s: %w", learnerID, err)
	}

	result := make(map[string]models.FinancialInfo, len(rows))
	for _, row := range rows {
		result[row.CourseID] = models.FinancialInfo{
			CourseID:       row.CourseID,
			IsPaid:         row.IsPaid,
			IsBlocked:      row.IsBlocked,
			RefundEligible: row.RefundEligible,
			Mode: models.CourseModeInfo{
				Slug:           row.ModeSlug,
				DisplayName:    row.ModeName,
				MinPrice:       row.MinPrice,
				Currency:       row.Currency,
				ExpirationDate: row.ExpirationDate,
			},
		}
	}
	return result, nil
}
