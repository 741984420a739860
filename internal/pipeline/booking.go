package pipeline

import (
	"regexp"
	"strings"
)

// Booking providers whose URLs get a per-customer ref parameter so completed
// bookings can be attributed back to the conversation.
var bookingURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[\w.-]*mojo\.page/[^\s<>"')\]]+`),
	regexp.MustCompile(`https?://[\w.-]*cal\.com/[^\s<>"')\]]+`),
	regexp.MustCompile(`https?://[\w.-]*calendly\.com/[^\s<>"')\]]+`),
}

// HasBookingURL reports whether the text already contains a booking link.
func HasBookingURL(text string) bool {
	for _, p := range bookingURLPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// InjectBookingRef tags every booking URL in the text with a ref parameter.
// URLs that already carry a ref are left unchanged.
func InjectBookingRef(text, ref string) string {
	if ref == "" {
		return text
	}
	for _, p := range bookingURLPatterns {
		text = p.ReplaceAllStringFunc(text, func(url string) string {
			return withRef(url, ref)
		})
	}
	return text
}

func withRef(url, ref string) string {
	if strings.Contains(url, "ref=") {
		return url
	}
	// Trailing punctuation is conversation text, not part of the URL.
	trimmed := strings.TrimRight(url, ".,!?")
	trailer := url[len(trimmed):]
	sep := "?"
	if strings.Contains(trimmed, "?") {
		sep = "&"
	}
	return trimmed + sep + "ref=" + ref + trailer
}
