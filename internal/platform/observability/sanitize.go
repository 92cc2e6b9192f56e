package observability

import (
	"strings"
	"unicode"
)

const maxFieldLength = 256

// sanitizeString strips control characters and caps the length so request
// supplied values cannot inject structure into log output.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldLength
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)
	if len(cleaned) > limit {
		runes := []rune(cleaned)
		if len(runes) > limit {
			runes = runes[:limit]
		}
		cleaned = string(runes)
	}
	return cleaned
}

// SanitizeRoute cleans a request path before logging.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod cleans an HTTP method before logging.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}

// SanitizeUserID caps identifiers appearing in logs to limit PII exposure.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return sanitizeString(uid, 64)
}
