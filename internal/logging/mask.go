package logging

import (
	"regexp"
	"strings"
)

const (
	maskChar = "*"
	// urlPrefixLen is how much of a webhook URL stays readable in logs.
	urlPrefixLen = 30
)

// sensitiveWords are substrings of header or field names whose values are
// never written to logs or printed by `tickwatch config`.
var sensitiveWords = []string{
	"token", "secret", "password", "key", "auth", "bearer", "credential", "private",
}

var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// MaskURL keeps the scheme and host of a webhook URL and hides the path,
// where services like Discord and Slack embed their tokens.
func MaskURL(url string) string {
	if len(url) <= urlPrefixLen {
		return url
	}
	return url[:urlPrefixLen] + strings.Repeat(maskChar, 3)
}

// MaskValue hides a secret entirely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(maskChar, min(len(value), 8))
}

// IsSensitiveField reports whether a field name looks like it holds a secret.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range sensitiveWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// MaskString masks every URL in s that does not point at this machine.
func MaskString(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(url string) string {
		if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
			return url
		}
		return MaskURL(url)
	})
}

// MaskHeaders returns a copy of webhook headers with secret values hidden.
func MaskHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveField(k) {
			out[k] = MaskValue(v)
			continue
		}
		out[k] = v
	}
	return out
}
