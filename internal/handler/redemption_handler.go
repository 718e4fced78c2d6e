package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"coursepass/internal/model"
	"coursepass/internal/service"

	"github.com/rs/zerolog"
)

// RedemptionHandler handles access-code redemption HTTP requests.
type RedemptionHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(service service.RedemptionService, logger zerolog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service: service,
		logger:  logger.With().Str("handler", "redemption").Logger(),
	}
}

// Redeem handles POST /api/redemptions requests.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeGenericFailure, "method not allowed", h.logger)
		return
	}

	var req model.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "code is required", h.logger)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message, h.logger)
		return
	}

	result, err := h.service.Redeem(r.Context(), req.Code, req.UserID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.RedeemResponse{
		Success:       true,
		EnrolledCount: result.EnrolledCount,
		Message:       redeemMessage(result),
	})
}

// redeemMessage builds the user-facing confirmation line.
func redeemMessage(result *model.RedemptionResult) string {
	if len(result.CourseTitles) > 0 {
		return fmt.Sprintf("Enrolled in %d course(s): %s", result.EnrolledCount, strings.Join(result.CourseTitles, ", "))
	}
	return fmt.Sprintf("Enrolled in %d course(s)", result.EnrolledCount)
}
