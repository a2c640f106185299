package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/adcar/edx-platform/internal/models"
)

// ProgramRepository loads the program catalog for index rebuilds.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListPrograms returns the full catalog with each program's course ids. Title
// order keeps per-course program lists deterministic across rebuilds.
func (r *ProgramRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	query := `SELECT p.id, p.title, p.program_type,
            COALESCE(ARRAY_AGG(pc.course_id ORDER BY pc.position) FILTER (WHERE pc.course_id IS NOT NULL), '{}') AS course_ids
        FROM programs p
        LEFT JOIN program_courses pc ON pc.program_id = p.id
        GROUP BY p.id, p.title, p.program_type
        ORDER BY p.title, p.id`

	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}
