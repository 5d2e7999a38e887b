package handler

// errorBody documents the error envelope rendered by the API error handler.
type errorBody struct {
	Error string `json:"error" example:"This seminar doesn't exist."`
	Code  string `json:"code" example:"seminar.not_found"`
}
