package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// Attribute keys containing one of these (case-insensitively) are masked.
var secretKeyParts = []string{
	"token", "secret", "password", "passwd", "credential", "auth",
	"api_key", "apikey", "private_key",
}

// Values starting with one of these are masked whatever their key.
var tokenPrefixes = []string{
	"ghp_", "gho_", "ghs_", // GitHub
	"sk-",           // OpenAI-style secret keys
	"AKIA",          // AWS access key id
	"xoxb-", "xoxp-", // Slack
}

const maskFill = "****"

// MaskValue hides all but the last four characters of value. Values of four
// characters or fewer are hidden entirely.
func MaskValue(value string) string {
	if len(value) <= len(maskFill) {
		return maskFill + maskFill
	}
	return maskFill + value[len(value)-4:]
}

// MaskURL replaces the whole password of a URL with embedded credentials.
// Anything that is not such a URL, local paths included, comes back
// unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if pw, ok := u.User.Password(); !ok || pw == "" {
		return raw
	}
	return u.Redacted()
}

// ShouldMask reports whether an attribute key names a secret.
func ShouldMask(key string) bool {
	k := strings.ToLower(key)
	for _, part := range secretKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}

func looksLikeToken(value string) bool {
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

// redactAttr has the slog ReplaceAttr signature so the JSON handler and the
// text Handler mask the same attributes.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch {
	case a.Value.Kind() == slog.KindGroup:
		return a
	case ShouldMask(a.Key):
	case a.Value.Kind() == slog.KindString && looksLikeToken(a.Value.String()):
	default:
		return a
	}
	return slog.String(a.Key, MaskValue(a.Value.String()))
}
