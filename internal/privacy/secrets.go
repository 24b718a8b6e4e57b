// Package privacy provides utilities for protecting sensitive data
// that may appear in a submitted candidate's diff/patch/file content
// or its accompanying rationale, before either is written to the log.
package privacy

import (
	"regexp"
	"strings"

	"github.com/thebtf/refineloop/pkg/models"
)

// secretPatterns contains compiled regular expressions for detecting secrets.
// These patterns are designed to catch common secret formats with minimal false positives.
var secretPatterns = []*regexp.Regexp{
	// API keys with common prefixes
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[a-zA-Z0-9_-]{20,}['"]?`),

	// Passwords in configuration
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"][^'"]{8,}['"]`),

	// Secret tokens
	regexp.MustCompile(`(?i)(secret[_-]?key|secret[_-]?token|auth[_-]?token)\s*[:=]\s*['"]?[a-zA-Z0-9_-]{20,}['"]?`),

	// OpenAI API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),

	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),

	// GitHub tokens
	regexp.MustCompile(`gh[pous]_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),

	// AWS keys
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*['"]?[a-zA-Z0-9/+=]{40}['"]?`),

	// Private keys (PEM format indicators)
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),

	// JWT tokens (base64.base64.base64 format)
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),

	// Generic secret assignment patterns
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_-]{20,}`),
}

// ContainsSecrets checks if the given text contains any patterns that look like secrets.
// Returns true if potential secrets are detected.
func ContainsSecrets(text string) bool {
	if text == "" {
		return false
	}

	for _, pattern := range secretPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// RedactSecrets replaces detected secrets with a redaction marker.
// This allows the text to be stored while protecting sensitive data.
func RedactSecrets(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			// Preserve the key name, redact only the value
			if idx := strings.Index(match, "="); idx != -1 {
				return match[:idx+1] + "[REDACTED]"
			}
			if idx := strings.Index(match, ":"); idx != -1 {
				return match[:idx+1] + "[REDACTED]"
			}
			// For standalone secrets, show just the prefix
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return result
}

// ScanCandidate checks a submission's rationale and every diff/patch/
// file/edit payload it carries for secrets. Returns true if any field
// looks like it contains one, so the caller can redact before logging
// rather than skip logging altogether (spec.md still wants the
// rationale and a candidate summary in the log for debugging).
func ScanCandidate(c models.Candidate, rationale string) bool {
	if ContainsSecrets(rationale) {
		return true
	}
	if ContainsSecrets(c.Patch) {
		return true
	}
	for _, d := range c.Diffs {
		if ContainsSecrets(d.Diff) {
			return true
		}
	}
	for _, f := range c.Files {
		if ContainsSecrets(f.Content) {
			return true
		}
	}
	for _, fe := range c.Edits {
		for _, op := range fe.Edits {
			if ContainsSecrets(op.OldText) || ContainsSecrets(op.NewText) || ContainsSecrets(op.Content) {
				return true
			}
		}
	}
	return false
}

// RedactCandidateRationale returns rationale with any detected secrets
// replaced by the redaction marker, safe to include in a log line.
func RedactCandidateRationale(rationale string) string {
	return RedactSecrets(rationale)
}
