package models

import "github.com/lib/pq"

// Program is one entry of the program catalog with the courses it contains.
type Program struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	ProgramType string         `db:"program_type" json:"program_type"`
	CourseIDs   pq.StringArray `db:"course_ids" json:"course_ids"`
}
