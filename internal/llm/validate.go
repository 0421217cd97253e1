package llm

import "strings"

// IsValidOutput reports whether generated text is usable: non-blank and free
// of every configured failure signature (matched case-insensitively). The
// prompts instruct models to emit the signatures on failure, so their presence
// means the call produced garbage even though the transport succeeded.
func IsValidOutput(text string, failurePatterns []string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, pattern := range failurePatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return false
		}
	}
	return true
}
