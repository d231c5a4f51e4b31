package dto

// ReportQuery holds query params for student reports.
type ReportQuery struct {
	GroupID string `form:"group_id" validate:"required"`
	From    string `form:"from"`
	To      string `form:"to"`
	Format  string `form:"format" validate:"omitempty,oneof=pdf csv"`
}

// StatisticsQuery holds optional date bounds for statistics endpoints.
type StatisticsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}
