package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/middleware"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/voice"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// QualifyRequest is the post-call qualification payload from the voice agent.
type QualifyRequest struct {
	CallID   string          `json:"call_id"`
	LeadType string          `json:"lead_type"`
	Lead     model.VoiceLead `json:"lead_data"`
}

// VoiceHandler handles voice lead intake.
type VoiceHandler struct {
	scheduler *voice.Scheduler
	logger    *logger.Logger
}

// NewVoiceHandler creates a new voice handler.
func NewVoiceHandler(scheduler *voice.Scheduler, log *logger.Logger) *VoiceHandler {
	return &VoiceHandler{scheduler: scheduler, logger: log}
}

// Qualify handles POST /api/v1/voice/qualify
func (h *VoiceHandler) Qualify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	var req QualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CallID == "" {
		writeError(w, http.StatusBadRequest, "call_id is required")
		return
	}
	leadType := model.LeadStatus(req.LeadType)
	switch leadType {
	case model.LeadHot, model.LeadWarm, model.LeadCold:
	default:
		writeError(w, http.StatusBadRequest, "lead_type must be hot, warm or cold")
		return
	}
	if leadType != model.LeadHot {
		if err := middleware.ValidatePhone(req.Lead.Phone); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	scheduled, err := h.scheduler.Schedule(ctx, tenantID, req.CallID, leadType, req.Lead)
	if err != nil {
		h.logger.Error("voice followup scheduling failed",
			zap.String("tenant_id", tenantID),
			zap.String("call_id", req.CallID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to schedule followup")
		return
	}

	if scheduled == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"call_id":   req.CallID,
			"scheduled": false,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"call_id":   req.CallID,
		"scheduled": true,
		"kind":      scheduled.Kind,
		"due_at":    scheduled.DueAt,
	})
}
