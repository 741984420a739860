package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/middleware"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// LeadHandler handles lead management endpoints.
type LeadHandler struct {
	store  store.ConversationStore
	logger *logger.Logger
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(convStore store.ConversationStore, log *logger.Logger) *LeadHandler {
	return &LeadHandler{store: convStore, logger: log}
}

// Block handles POST /api/v1/leads/{customerID}/block
func (h *LeadHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// Unblock handles POST /api/v1/leads/{customerID}/unblock
func (h *LeadHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *LeadHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	customerID := chi.URLParam(r, "customerID")

	if err := middleware.ValidateCustomerID(customerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.MergeMetadata(ctx, tenantID, customerID, model.MetadataUpdate{
		AgentBlocked: model.Bool(blocked),
	}); err != nil {
		h.logger.Error("block update failed",
			zap.String("tenant_id", tenantID),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to update lead")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customer_id": customerID,
		"blocked":     blocked,
	})
}

// Get handles GET /api/v1/leads/{customerID}
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	customerID := chi.URLParam(r, "customerID")

	if err := middleware.ValidateCustomerID(customerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, err := h.store.GetMetadata(ctx, tenantID, customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lead")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// ListConversations handles GET /api/v1/conversations
func (h *LeadHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	convs, err := h.store.ListConversations(ctx, tenantID)
	if err != nil {
		h.logger.Error("conversation listing failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, model.ConversationSummary{
			CustomerID:      c.CustomerID,
			MessageCount:    c.MessageCount,
			LastInteraction: c.LastInteraction,
			Summary:         c.Summary,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": summaries,
		"total":         len(summaries),
	})
}
