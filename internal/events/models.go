package events

// JobEvent is the exported payload for a job lifecycle transition.
type JobEvent struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id"`
	JobType  string `json:"job_type"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// WorkflowEvent is the exported payload for a workflow state change.
type WorkflowEvent struct {
	WorkflowID   string `json:"workflow_id"`
	WorkflowType string `json:"workflow_type"`
	Status       string `json:"status"`
}
