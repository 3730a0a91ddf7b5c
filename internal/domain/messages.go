package domain

const (
	MessageMissingComplaint    = "complaint date and time are required to create an occurrence"
	MessageMissingServicePoint = "service point id is required"
	MessageMissingOccurrence   = "occurrence id is required"
	MessageMissingTypeOrOrigin = "occurrence type and origin type are required"
	MessagePriorityNotFound    = "priority not found for occurrence type"
	MessageNoRequests          = "occurrence has no request ids, cannot delete"
	MessageHasReopening        = "has reopening, cannot delete"
	MessageUnverifiedReopening = "could not verify reopening, cannot delete"
	MessageUnidentifiedError   = "unidentified error"
	ErrorMessagePrefix         = "Error: "
)
