// Package tenant provides tenant configuration and inbound routing.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumoscale/lead-engine/internal/model"
)

// ErrUnknownTenant is returned when a recipient account has no routing record.
// Inbound messages for unmapped accounts are rejected, never attributed to a
// best-guess tenant.
var ErrUnknownTenant = errors.New("tenant: no routing record for recipient")

// Config is one tenant's snapshot: identity, prompt templates per message
// source, business facts and channel credentials.
type Config struct {
	TenantID     string `json:"tenant_id"`
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry,omitempty"`

	// Prompt templates keyed by message source.
	DMPrompt    string `json:"dm_prompt,omitempty"`
	StoryPrompt string `json:"story_prompt,omitempty"`
	AdPrompt    string `json:"ad_prompt,omitempty"`

	// Optional custom followup prompt; used verbatim when present.
	FollowupPrompt string `json:"followup_prompt,omitempty"`

	Services    string `json:"services,omitempty"`
	BookingLink string `json:"booking_link,omitempty"`

	// Channel credentials for outbound sends.
	AccessToken string `json:"access_token,omitempty"`
}

// Context renders the business-context block for the given message source.
func (c *Config) Context(source model.Source) string {
	prompt := c.DMPrompt
	switch source {
	case model.SourceStory:
		if c.StoryPrompt != "" {
			prompt = c.StoryPrompt
		}
	case model.SourceAd:
		if c.AdPrompt != "" {
			prompt = c.AdPrompt
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Business Information\n- Name: %s\n", c.BusinessName)
	if c.Industry != "" {
		fmt.Fprintf(&b, "- Industry: %s\n", c.Industry)
	}
	if prompt != "" {
		fmt.Fprintf(&b, "\n## Agent Instructions\n%s\n", prompt)
	}
	if c.Services != "" {
		fmt.Fprintf(&b, "\n## Services\n%s\n", c.Services)
	}
	if c.BookingLink != "" {
		fmt.Fprintf(&b, "\n## Booking Link\n%s\n", c.BookingLink)
	}
	return b.String()
}

// DefaultContext is used when a tenant has no configuration loaded.
const DefaultContext = `## Business Information
- Name: Business Assistant
- Industry: General

## Agent Instructions
- Be friendly and professional
- Respond helpfully to customer inquiries
- Keep responses concise and conversational
`

// Provider supplies tenant configuration and routing to the core.
type Provider interface {
	// Load returns a tenant's configuration, or nil if none is stored.
	Load(ctx context.Context, tenantID string) (*Config, error)

	// Resolve maps a platform recipient account ID to a tenant ID.
	// Returns ErrUnknownTenant when no explicit mapping exists.
	Resolve(ctx context.Context, recipientID string) (string, error)

	// ListTenants returns all known tenant IDs, for the followup sweep.
	ListTenants(ctx context.Context) ([]string, error)
}
