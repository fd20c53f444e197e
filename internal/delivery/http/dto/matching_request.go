package dto

type GenerateShortlistRequest struct {
	JobID string `json:"jobId"`
}

type HireRequest struct {
	JobID       string  `json:"jobId"`
	CandidateID string  `json:"candidateId"`
	Notes       *string `json:"notes"`
}

type SetStatusRequest struct {
	JobID       string  `json:"jobId"`
	CandidateID string  `json:"candidateId"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes"`
}
