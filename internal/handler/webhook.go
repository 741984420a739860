// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/middleware"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/pipeline"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// InboundRequest is the channel webhook payload for one customer message.
type InboundRequest struct {
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
	Text        string `json:"text"`
	Source      string `json:"source,omitempty"`
	Username    string `json:"username,omitempty"`
	Name        string `json:"name,omitempty"`
}

// BookingRequest is the booking provider webhook payload.
type BookingRequest struct {
	TenantID    string `json:"tenant_id"`
	Ref         string `json:"ref"`
	BookingTime string `json:"booking_time,omitempty"`
	Service     string `json:"service,omitempty"`
}

// WebhookHandler handles inbound channel and booking webhooks.
type WebhookHandler struct {
	pipeline  *pipeline.Pipeline
	store     store.ConversationStore
	tenants   tenant.Provider
	messenger pipeline.MessengerFunc
	logger    *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(
	p *pipeline.Pipeline,
	convStore store.ConversationStore,
	tenants tenant.Provider,
	messenger pipeline.MessengerFunc,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		pipeline:  p,
		store:     convStore,
		tenants:   tenants,
		messenger: messenger,
		logger:    log,
	}
}

// Message handles POST /api/v1/webhook/message
func (h *WebhookHandler) Message(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateCustomerID(req.SenderID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenantID, err := h.tenants.Resolve(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownTenant) {
			h.logger.Warn("inbound message for unmapped account",
				zap.String("recipient_id", req.RecipientID),
			)
			writeError(w, http.StatusNotFound, "no tenant mapped to recipient account")
			return
		}
		h.logger.Error("tenant resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "tenant resolution failed")
		return
	}

	h.acknowledge(ctx, tenantID, req.SenderID)

	result, err := h.pipeline.HandleInbound(ctx, model.InboundMessage{
		TenantID:     tenantID,
		CustomerID:   req.SenderID,
		Text:         req.Text,
		Source:       parseSource(req.Source),
		Username:     req.Username,
		CustomerName: req.Name,
	})
	if err != nil {
		h.logger.Error("inbound turn failed",
			zap.String("tenant_id", tenantID),
			zap.String("customer_id", req.SenderID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// acknowledge marks the message seen and shows typing. Best-effort; the turn
// proceeds regardless.
func (h *WebhookHandler) acknowledge(ctx context.Context, tenantID, customerID string) {
	cfg, err := h.tenants.Load(ctx, tenantID)
	if err != nil {
		return
	}
	m := h.messenger(cfg)
	if err := m.SendReadReceipt(ctx, customerID); err != nil {
		h.logger.Debug("read receipt failed", zap.Error(err))
	}
	if err := m.SendTyping(ctx, customerID, true); err != nil {
		h.logger.Debug("typing indicator failed", zap.Error(err))
	}
}

// Booking handles POST /api/v1/webhook/booking
func (h *WebhookHandler) Booking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTenantID(req.TenantID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Ref == "" {
		writeError(w, http.StatusBadRequest, "ref is required")
		return
	}

	customerID, err := h.resolveRef(ctx, req.TenantID, req.Ref)
	if err != nil {
		writeError(w, http.StatusNotFound, "no customer matches ref")
		return
	}

	upd := model.MetadataUpdate{
		BookingCompleted: model.Bool(true),
		LeadStatus:       model.Status(model.LeadHot),
		LeadScore:        model.Int(100),
	}
	if req.BookingTime != "" {
		upd.BookingTime = model.String(req.BookingTime)
	}
	if req.Service != "" {
		upd.Service = model.String(req.Service)
	}
	if err := h.store.MergeMetadata(ctx, req.TenantID, customerID, upd); err != nil {
		h.logger.Error("booking update failed",
			zap.String("tenant_id", req.TenantID),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to record booking")
		return
	}

	h.logger.Info("booking recorded",
		zap.String("tenant_id", req.TenantID),
		zap.String("customer_id", customerID),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "recorded",
		"customer_id": customerID,
	})
}

// resolveRef maps a booking ref back to a customer. Replies tag booking links
// with ref=<customer_id>, so the ref is the customer ID and must match a
// conversation we hold for the tenant.
func (h *WebhookHandler) resolveRef(ctx context.Context, tenantID, ref string) (string, error) {
	conv, err := h.store.GetConversation(ctx, tenantID, ref)
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", errors.New("unknown booking ref")
	}
	return ref, nil
}

func parseSource(s string) model.Source {
	switch model.Source(s) {
	case model.SourceStory:
		return model.SourceStory
	case model.SourceAd:
		return model.SourceAd
	default:
		return model.SourceDM
	}
}
