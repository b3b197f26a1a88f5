package dto

// Course is a read-only catalog entry learners submit projects against.
type Course struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"__v"`
}

// DashboardStats is the collaborator's point-in-time count of submissions.
type DashboardStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Evaluated int `json:"evaluated"`
}
