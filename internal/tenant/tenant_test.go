package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/model"
)

func TestContextRendersPerSource(t *testing.T) {
	cfg := &Config{
		TenantID:     "t1",
		BusinessName: "Acme Fitness",
		Industry:     "fitness",
		DMPrompt:     "Answer DMs casually.",
		StoryPrompt:  "React to the story first.",
		Services:     "group classes, personal training",
		BookingLink:  "https://calendly.com/acme/intro",
	}

	dm := cfg.Context(model.SourceDM)
	assert.Contains(t, dm, "Acme Fitness")
	assert.Contains(t, dm, "Answer DMs casually.")
	assert.Contains(t, dm, "https://calendly.com/acme/intro")

	story := cfg.Context(model.SourceStory)
	assert.Contains(t, story, "React to the story first.")
	assert.NotContains(t, story, "Answer DMs casually.")

	// No ad prompt configured; ads fall back to the DM prompt.
	ad := cfg.Context(model.SourceAd)
	assert.Contains(t, ad, "Answer DMs casually.")
}

func TestStaticProviderResolve(t *testing.T) {
	p := &StaticProvider{Routes: map[string]string{"acct-1": "t1"}}

	id, err := p.Resolve(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	_, err = p.Resolve(context.Background(), "acct-unknown")
	assert.ErrorIs(t, err, ErrUnknownTenant)
}
