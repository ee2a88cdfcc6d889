// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

// Defaults returns the built-in PII redactions, compiled, in application order.
//
// The order is a behavioral contract, not a style choice. Each redaction scans the
// output of the ones before it, so an earlier pattern can consume text that a later,
// more specific pattern would otherwise match. The bare name pattern must therefore
// stay last: placed any earlier it would eat the name portion of "Jane Smith (CTO)"
// before the name-with-title pattern sees it. Reordering silently changes results.
//
// The two-capitalized-words name pattern is a known-weak heuristic. It fires on any
// capitalized word pair ("Dear Sirs", "New York") and misses single names; it is kept
// as-is rather than tuned, because downstream consumers depend on its exact behavior.
func Defaults() ([]*Redact, error) {
	cfgs := []Config{
		{
			ID:      "email",
			Matcher: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
			Replace: "[EMAIL_REDACTED]",
		},
		{
			ID:      "phone",
			Matcher: `\b(?:\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})\b`,
			Replace: "[PHONE_REDACTED]",
		},
		{
			ID:      "ssn",
			Matcher: `\b\d{3}-\d{2}-\d{4}\b`,
			Replace: "[SSN_REDACTED]",
		},
		{
			ID:      "credit-card",
			Matcher: `\b(?:\d{4}[-\s]?){3}\d{4}\b`,
			Replace: "[CREDIT_CARD_REDACTED]",
		},
		{
			ID:      "date",
			Matcher: `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`,
			Replace: "[DATE_REDACTED]",
		},
		{
			ID:              "password",
			Matcher:         `\b(?:password|pwd|pass)\s*[:=]\s*\S+`,
			Replace:         "[PASSWORD_REDACTED]",
			CaseInsensitive: true,
		},
		{
			ID:              "api-key",
			Matcher:         `\b(?:api[_-]?key|apikey)\s*[:=]\s*\S+`,
			Replace:         "[API_KEY_REDACTED]",
			CaseInsensitive: true,
		},
		{
			ID:              "auth-token",
			Matcher:         `\b(?:token|auth[_-]?token)\s*[:=]\s*\S+`,
			Replace:         "[TOKEN_REDACTED]",
			CaseInsensitive: true,
		},
		{
			ID:      "ipv4",
			Matcher: `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
			Replace: "[IP_ADDRESS_REDACTED]",
		},
		{
			ID:      "name-title",
			Matcher: `\b[A-Z][a-z]+ [A-Z][a-z]+\s*\([^)]*\)`,
			Replace: "[NAME_REDACTED] (TITLE_REDACTED)",
		},
		{
			ID:      "name",
			Matcher: `\b[A-Z][a-z]+ [A-Z][a-z]+\b`,
			Replace: "[NAME_REDACTED]",
		},
	}

	defaults := make([]*Redact, 0, len(cfgs))
	for _, cfg := range cfgs {
		x, err := New(cfg)
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, x)
	}
	return defaults, nil
}
