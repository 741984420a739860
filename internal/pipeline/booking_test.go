package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectBookingRef(t *testing.T) {
	tests := []struct {
		name string
		text string
		ref  string
		want string
	}{
		{
			"bare url gets question mark",
			"Book here: https://calendly.com/acme/intro",
			"jane",
			"Book here: https://calendly.com/acme/intro?ref=jane",
		},
		{
			"existing query gets ampersand",
			"Book here: https://cal.com/acme/intro?month=2026-09",
			"jane",
			"Book here: https://cal.com/acme/intro?month=2026-09&ref=jane",
		},
		{
			"mojo page",
			"Grab a slot at https://acme.mojo.page/book",
			"c42",
			"Grab a slot at https://acme.mojo.page/book?ref=c42",
		},
		{
			"existing ref untouched",
			"https://calendly.com/acme/intro?ref=other",
			"jane",
			"https://calendly.com/acme/intro?ref=other",
		},
		{
			"non-booking url untouched",
			"See https://example.com/page?x=1 for details",
			"jane",
			"See https://example.com/page?x=1 for details",
		},
		{
			"trailing punctuation preserved",
			"Book at https://calendly.com/acme/intro!",
			"jane",
			"Book at https://calendly.com/acme/intro?ref=jane!",
		},
		{
			"empty ref is a no-op",
			"https://calendly.com/acme/intro",
			"",
			"https://calendly.com/acme/intro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InjectBookingRef(tt.text, tt.ref))
		})
	}
}

func TestHasBookingURL(t *testing.T) {
	assert.True(t, HasBookingURL("book at https://calendly.com/acme/intro"))
	assert.True(t, HasBookingURL("https://acme.mojo.page/book"))
	assert.False(t, HasBookingURL("no links here"))
	assert.False(t, HasBookingURL("https://example.com/calendar"))
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", ExtractEmail("reach me at jane@example.com please"))
	assert.Equal(t, "", ExtractEmail("no email here"))
	assert.Equal(t, "a.b+c@sub.example.co", ExtractEmail("a.b+c@sub.example.co"))
}
