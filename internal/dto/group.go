package dto

// GroupRequest defines payload for creating or renaming a group.
type GroupRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// GroupMemberRequest adds a student to a group.
type GroupMemberRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
