package client

import (
	"errors"
	"fmt"

	"peoplecatalog/internal/api/dto/common"
)

// RequestError is a transport-level failure: a network error, a
// timeout, or a non-2xx response. Problem carries the decoded error
// body when the server sent one. Status is zero when no HTTP response
// was received.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Problem *common.Problem
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// Classified is a user-displayable rendering of a failure.
// Status is zero and Data nil when the failure was not a transport error.
type Classified struct {
	Message string
	Status  int
	Data    *common.Problem
}

// Classify translates any error into a Classified message following a
// strict fallback chain: problem detail, then problem title, then
// "<status>: <transport message>", then the transport message alone.
// Anything that is not a transport error collapses to "Unexpected
// error" so client bugs never leak internals to the screen.
func Classify(err error) Classified {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return Classified{Message: "Unexpected error"}
	}

	message := reqErr.Message
	switch {
	case reqErr.Problem != nil && reqErr.Problem.Detail != "":
		message = reqErr.Problem.Detail
	case reqErr.Problem != nil && reqErr.Problem.Title != "":
		message = reqErr.Problem.Title
	case reqErr.Status != 0:
		message = fmt.Sprintf("%d: %s", reqErr.Status, reqErr.Message)
	}

	return Classified{
		Message: message,
		Status:  reqErr.Status,
		Data:    reqErr.Problem,
	}
}
