package logging

import "regexp"

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// api_key=xxx, apikey=xxx, key=xxx in query strings or error text
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:pass@host credentials embedded in endpoint URLs
	credsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// Redact masks a secret for logging, distinguishing "configured" from
// "missing" without leaking the value.
func Redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return RedactedText
}

// SanitizeEndpoint strips embedded credentials and API keys from an endpoint
// URL before it is logged.
func SanitizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	sanitized := credsPattern.ReplaceAllString(endpoint, "://"+RedactedText+"@"+RedactedText)
	return apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// SanitizeError sanitizes an error message that might echo a request URL or
// header containing credentials.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := apiKeyPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	return credsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
