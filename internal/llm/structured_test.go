package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	content string
	err     error
}

func (c *stubClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &CompletionResponse{Content: c.content}, nil
}

func (c *stubClient) Name() string { return "stub" }

func TestInvokeStructured(t *testing.T) {
	var out struct {
		Reply string `json:"reply"`
	}
	client := &stubClient{content: `{"reply": "hey there"}`}

	err := InvokeStructured(context.Background(), client, &CompletionRequest{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hey there", out.Reply)
}

func TestInvokeStructuredStripsFences(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"json fence", "```json\n{\"reply\": \"hi\"}\n```"},
		{"bare fence", "```\n{\"reply\": \"hi\"}\n```"},
		{"surrounding whitespace", "  {\"reply\": \"hi\"}  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Reply string `json:"reply"`
			}
			client := &stubClient{content: tt.content}
			require.NoError(t, InvokeStructured(context.Background(), client, &CompletionRequest{}, &out))
			assert.Equal(t, "hi", out.Reply)
		})
	}
}

func TestInvokeStructuredMalformed(t *testing.T) {
	var out struct{}
	client := &stubClient{content: "Sure! Here is your answer."}

	err := InvokeStructured(context.Background(), client, &CompletionRequest{}, &out)
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "stub", genErr.Provider)
	assert.Equal(t, "Sure! Here is your answer.", genErr.Raw)
}

func TestInvokeStructuredTransportError(t *testing.T) {
	var out struct{}
	client := &stubClient{err: errors.New("connection refused")}

	err := InvokeStructured(context.Background(), client, &CompletionRequest{}, &out)
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Empty(t, genErr.Raw)
}
