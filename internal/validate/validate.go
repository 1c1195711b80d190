// Package validate provides input validation helpers for timers and webhooks.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

const (
	// MaxNameLength is the maximum length of a timer name in runes.
	MaxNameLength = 128
	// MaxDurationSeconds caps countdowns at a year.
	MaxDurationSeconds = int64(366 * 24 * 60 * 60)
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
)

// TimerName cleans a timer name and checks it is usable. The cleaned name is
// what must be stored and compared for uniqueness.
func TimerName(name string) (string, error) {
	cleaned := SanitizeName(name)
	if cleaned == "" {
		return "", errors.NewValidationError(errors.ErrEmptyName, "name", "", "timer name cannot be empty")
	}
	if utf8.RuneCountInString(cleaned) > MaxNameLength {
		return "", errors.NewValidationError(errors.ErrNameTooLong, "name", TruncateString(cleaned, 20),
			fmt.Sprintf("timer name longer than %d characters", MaxNameLength))
	}
	return cleaned, nil
}

// Duration checks a countdown length in seconds.
func Duration(seconds int64) error {
	if seconds <= 0 {
		return errors.NewValidationError(errors.ErrInvalidDuration, "duration", fmt.Sprint(seconds),
			"countdown duration must be positive")
	}
	if seconds > MaxDurationSeconds {
		return errors.NewValidationError(errors.ErrInvalidDuration, "duration", fmt.Sprint(seconds),
			"countdown duration must be at most 366 days")
	}
	return nil
}

// AlarmTime checks that at is after now minus tolerance.
func AlarmTime(at, now time.Time, tolerance time.Duration) error {
	if !at.After(now.Add(-tolerance)) {
		return errors.NewValidationError(errors.ErrAlarmInPast, "at", at.Format(time.DateTime),
			"alarm time is in the past")
	}
	return nil
}

// ActionPath cleans an expiry action path. Empty is allowed and means
// notify only; otherwise the path must name an existing file.
func ActionPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.ContainsRune(path, 0) {
		return "", errors.NewValidationError(errors.ErrInvalidAction, "action", "", "action path contains a null byte")
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrInvalidAction, "action", path, "cannot resolve action path")
	}

	info, err := os.Stat(expanded)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrInvalidAction, "action", path, "action path does not exist")
	}
	if info.IsDir() {
		return "", errors.NewValidationError(errors.ErrInvalidAction, "action", path, "action path is a directory")
	}
	return expanded, nil
}

func invalidURL(value, message, suggestion string) error {
	return errors.NewValidationError(nil, "url", value, message).WithSuggestion(suggestion)
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return invalidURL("", "URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return invalidURL("", "URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return invalidURL(rawURL, "invalid URL format", "Provide a valid URL starting with https://")
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return invalidURL(rawURL, "invalid URL scheme", "URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return invalidURL(rawURL, "invalid URL: missing hostname", "Provide a valid URL like https://example.com/webhook")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
	if parsed.Scheme == "http" && !isLocalhost {
		return invalidURL(rawURL, "HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	if !isLocalhost {
		if ip := net.ParseIP(hostname); ip != nil && isInternalIP(ip) {
			return invalidURL(hostname, "internal IP addresses not allowed", "Webhook URLs must point to external services")
		}
	}
	return nil
}

var privateRanges = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, network)
		}
	}
	return nets
}()

// isInternalIP checks if an IP is in a private/internal range.
func isInternalIP(ip net.IP) bool {
	for _, network := range privateRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
