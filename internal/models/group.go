package models

import "time"

// Group is a cohort of students taught together.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	Search string
}
