package dto

import "field-route-service/internal/domain"

type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobID    string        `json:"job_id"`
	Status   string        `json:"status"`
	Progress int           `json:"progress"`
	Result   *PlanResponse `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func NewJobStatusResponse(job *domain.PlanningJob, progress int) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:    job.ID,
		Status:   string(job.Status),
		Progress: progress,
		Error:    job.ErrorMessage,
	}

	if job.Result != nil {
		plan := NewPlanResponse(job.Result)
		resp.Result = &plan
	}

	return resp
}
