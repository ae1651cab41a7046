package common

// Problem is the error body convention shared by every endpoint.
// Detail is preferred over Title for display.
type Problem struct {
	Title  string              `json:"title,omitempty"`
	Detail string              `json:"detail,omitempty"`
	Status int                 `json:"status,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// NewProblem creates a problem body with a title and detail
func NewProblem(status int, title, detail string) *Problem {
	return &Problem{
		Title:  title,
		Detail: detail,
		Status: status,
	}
}

// NewValidationProblem creates a problem body carrying field-scoped errors
func NewValidationProblem(status int, detail string, errors map[string][]string) *Problem {
	return &Problem{
		Title:  "Validation failed",
		Detail: detail,
		Status: status,
		Errors: errors,
	}
}
