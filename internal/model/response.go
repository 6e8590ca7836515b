package model

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MkdirResponse struct {
	Message       string `json:"message"`
	NewFolderPath string `json:"new_folder_path"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
