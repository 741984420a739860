package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/middleware"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/voice"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

func postQualify(t *testing.T, h *VoiceHandler, body QualifyRequest) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/qualify", bytes.NewReader(data))
	ctx := context.WithValue(req.Context(), middleware.TenantIDKey, "t1")
	rec := httptest.NewRecorder()
	h.Qualify(rec, req.WithContext(ctx))
	return rec
}

func TestVoiceQualify(t *testing.T) {
	q := voice.NewMemoryQueue()
	scheduler := voice.NewScheduler(q, voice.Tiers{WarmDelay: time.Hour, ColdDelay: 24 * time.Hour}, logger.NewNop())
	h := NewVoiceHandler(scheduler, logger.NewNop())

	t.Run("warm lead scheduled", func(t *testing.T) {
		rec := postQualify(t, h, QualifyRequest{
			CallID:   "call-1",
			LeadType: "warm",
			Lead:     model.VoiceLead{Name: "Jane", Phone: "+15550001111"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		f, ok := q.Get("t1", "call-1")
		require.True(t, ok)
		assert.Equal(t, model.FollowupCallAndSMS, f.Kind)
	})

	t.Run("hot lead needs nothing", func(t *testing.T) {
		rec := postQualify(t, h, QualifyRequest{
			CallID:   "call-2",
			LeadType: "hot",
			Lead:     model.VoiceLead{Name: "Sam"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		_, ok := q.Get("t1", "call-2")
		assert.False(t, ok)
	})

	t.Run("invalid lead type rejected", func(t *testing.T) {
		rec := postQualify(t, h, QualifyRequest{CallID: "call-3", LeadType: "lukewarm"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing phone rejected", func(t *testing.T) {
		rec := postQualify(t, h, QualifyRequest{CallID: "call-4", LeadType: "cold"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
