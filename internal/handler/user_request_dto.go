package handler

// StartCollaborationRequest 启动协作的请求体
type StartCollaborationRequest struct {
	ProjectGoal    string   `json:"project_goal" binding:"required"`
	SelectedAgents []string `json:"selected_agents" binding:"required,min=2,max=5"`
}

// UserFeedbackRequest 用户反馈的请求体
type UserFeedbackRequest struct {
	Feedback         string   `json:"feedback" binding:"required"`
	RequestedChanges []string `json:"requested_changes"`
}
