package dto

type CreateTaskRequest struct {
	Message    string `json:"message" binding:"required"`
	SourceID   string `json:"sourceId" binding:"required"`
	NotifiedID string `json:"notifiedId"`
}
