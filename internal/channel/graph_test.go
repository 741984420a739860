package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/pkg/logger"
)

func graphServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphSend(t *testing.T) {
	srv := graphServer(t, http.StatusOK, `{"message_id":"mid.1"}`)
	m := NewGraphMessenger(srv.URL, "token", logger.NewNop())

	res, err := m.Send(context.Background(), "c1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "mid.1", res.MessageID)
}

func TestGraphSendErrorStatusEmptyBody(t *testing.T) {
	srv := graphServer(t, http.StatusInternalServerError, "")
	m := NewGraphMessenger(srv.URL, "token", logger.NewNop())

	_, err := m.Send(context.Background(), "c1", "hello")
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "dm", sendErr.Channel)
}

func TestGraphSendAPIErrorBody(t *testing.T) {
	srv := graphServer(t, http.StatusOK, `{"error":{"message":"recipient unavailable","code":551}}`)
	m := NewGraphMessenger(srv.URL, "token", logger.NewNop())

	_, err := m.Send(context.Background(), "c1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient unavailable")
}

func TestGraphSendTypingErrorStatus(t *testing.T) {
	srv := graphServer(t, http.StatusBadRequest, `{}`)
	m := NewGraphMessenger(srv.URL, "token", logger.NewNop())

	assert.Error(t, m.SendTyping(context.Background(), "c1", true))
}
