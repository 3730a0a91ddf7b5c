package domain

import "errors"

var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrTransport           = errors.New("backend transport failure")
	ErrMissingPayload      = errors.New("response payload missing")
	ErrPriorityNotFound    = errors.New("priority not found for occurrence type")
	ErrCredentialsNotFound = errors.New("backend credentials not found")
	ErrBatchNotFound       = errors.New("batch file not found")
)
