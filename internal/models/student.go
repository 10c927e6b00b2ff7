package models

import "time"

// Student represents a learner registered with the tutoring center.
// Branch, board and grade are the pricing tier keys for fee derivation.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Branch       string    `db:"branch" json:"branch"`
	Board        string    `db:"board" json:"board"`
	Grade        string    `db:"grade" json:"grade"`
	GuardianName string    `db:"guardian_name" json:"guardian_name"`
	Phone        string    `db:"phone" json:"phone"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Branch    string
	Board     string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with subject assignments.
type StudentDetail struct {
	Student
	Subjects []SubjectAssignment `json:"subjects"`
}
