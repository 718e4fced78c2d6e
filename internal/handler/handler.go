package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"coursepass/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a taxonomy error response with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Success: false, Error: code, Message: message})
}

// writeDomainError maps a service error onto an HTTP status and taxonomy code.
// QuotaRaceLost is deliberately collapsed into the generic failure payload for
// end users; the distinct kind survives internally (and in the log line) so
// retry-aware callers can be added without widening the error surface later.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, model.ErrCodeGenericFailure, model.ErrGenericFailure.Message, logger)
		return
	}

	status := http.StatusInternalServerError
	code := domainErr.Code
	message := domainErr.Message

	switch domainErr.Code {
	case model.ErrCodeUnauthorised:
		status = http.StatusUnauthorized
	case model.ErrCodeInvalidCode, model.ErrCodeInactiveCode, model.ErrCodeExpiredCode,
		model.ErrCodeNoCoursesLinked, model.ErrCodeCourseNotFound, model.ErrCodeInvalidQuantity:
		status = http.StatusBadRequest
	case model.ErrCodeQuotaFull, model.ErrCodeAlreadyEnrolled:
		status = http.StatusConflict
	case model.ErrCodeQuotaRaceLost:
		logger.Warn().Str("error", domainErr.Code).Msg("quota race lost, reporting generic failure")
		status = http.StatusConflict
		code = model.ErrCodeGenericFailure
		message = model.ErrGenericFailure.Message
	case model.ErrCodeGenericFailure:
		status = http.StatusInternalServerError
	}

	writeError(w, status, code, message, logger)
}
