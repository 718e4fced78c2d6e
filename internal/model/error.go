package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeInvalidCode     = "INVALID_CODE"
	ErrCodeInactiveCode    = "INACTIVE_CODE"
	ErrCodeExpiredCode     = "EXPIRED_CODE"
	ErrCodeQuotaFull       = "QUOTA_FULL"
	ErrCodeNoCoursesLinked = "NO_COURSES_LINKED"
	ErrCodeAlreadyEnrolled = "ALREADY_ENROLLED_ALL"
	ErrCodeQuotaRaceLost   = "QUOTA_RACE_LOST"
	ErrCodeCourseNotFound  = "COURSE_NOT_FOUND"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeGenericFailure  = "GENERIC_FAILURE"
)

// DomainError is a typed business-rule failure. Handlers map the Code to an
// HTTP status; services return these values unchanged so callers can compare
// them against the sentinels below.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "A user identity is required")
	ErrInvalidCode        = NewDomainError(ErrCodeInvalidCode, "Access code does not exist")
	ErrInactiveCode       = NewDomainError(ErrCodeInactiveCode, "Access code has been disabled")
	ErrExpiredCode        = NewDomainError(ErrCodeExpiredCode, "Access code has expired")
	ErrQuotaFull          = NewDomainError(ErrCodeQuotaFull, "Access code usage limit has been reached")
	ErrNoCoursesLinked    = NewDomainError(ErrCodeNoCoursesLinked, "Access code has no courses linked to it")
	ErrAlreadyEnrolledAll = NewDomainError(ErrCodeAlreadyEnrolled, "You are already enrolled in every course this code grants")
	ErrQuotaRaceLost      = NewDomainError(ErrCodeQuotaRaceLost, "Access code usage limit was reached while processing")
	ErrCourseNotFound     = NewDomainError(ErrCodeCourseNotFound, "One or more courses not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrGenericFailure     = NewDomainError(ErrCodeGenericFailure, "Something went wrong, please try again")
)
