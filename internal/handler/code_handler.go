package handler

import (
	"encoding/json"
	"net/http"

	"coursepass/internal/model"
	"coursepass/internal/service"

	"github.com/rs/zerolog"
)

// CodeHandler handles admin access-code generation HTTP requests.
type CodeHandler struct {
	service service.CodeService
	logger  zerolog.Logger
}

// NewCodeHandler creates a new code generation handler.
func NewCodeHandler(service service.CodeService, logger zerolog.Logger) *CodeHandler {
	return &CodeHandler{
		service: service,
		logger:  logger.With().Str("handler", "code").Logger(),
	}
}

// Generate handles POST /api/access-codes requests.
func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeGenericFailure, "method not allowed", h.logger)
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if len(req.CourseIDs) == 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "courseIds is required", h.logger)
		return
	}

	if req.BatchMode {
		codes, err := h.service.GenerateBatch(r.Context(), &req)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}

		writeJSON(w, http.StatusCreated, model.GenerateResponse{
			Success: true,
			Codes:   codes,
		})
		return
	}

	code, err := h.service.GenerateShared(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.GenerateResponse{
		Success: true,
		Code:    code,
	})
}
