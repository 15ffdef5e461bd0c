package messaging

import (
	"fmt"
	"net/url"
	"strings"
)

const whatsappSendURL = "https://api.whatsapp.com/send"

// componentEscaper turns QueryEscape output into encodeURIComponent form:
// spaces as %20 and !'()* left literal.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentEscaper.Replace(url.QueryEscape(s))
}

// NormalizePhone keeps digits only and rewrites a leading 0 to the 62
// country code.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// WhatsAppLink builds the deep link that opens a chat with phone prefilled
// with text.
func WhatsAppLink(phone, text string) (string, error) {
	digits := NormalizePhone(phone)
	if digits == "" {
		return "", fmt.Errorf("phone number %q has no digits", phone)
	}
	return fmt.Sprintf("%s?phone=%s&text=%s", whatsappSendURL, digits, escapeComponent(text)), nil
}
