package models

// SubmitRequest is the body of POST /api/attend.
type SubmitRequest struct {
	UID     string `json:"uid"`
	Section string `json:"section"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Message string `json:"message"`
	Date    string `json:"date"`
}

// ErrorResponse is the uniform error body for every failure status.
type ErrorResponse struct {
	Error string `json:"error"`
}
