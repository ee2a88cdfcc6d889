// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)

	// Application order is a contract: each rule scans the output of the previous ones.
	expectOrder := []string{
		"email",
		"phone",
		"ssn",
		"credit-card",
		"date",
		"password",
		"api-key",
		"auth-token",
		"ipv4",
		"name-title",
		"name",
	}
	ids := make([]string, 0, len(defaults))
	for _, x := range defaults {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, expectOrder, ids)
}

func TestDefaultsScenarios(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)

	tcs := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "email address",
			input:  "Email: j.miller@company.com",
			expect: "Email: [EMAIL_REDACTED]",
		},
		{
			name:   "phone number",
			input:  "Call 555-123-4567",
			expect: "Call [PHONE_REDACTED]",
		},
		{
			name:   "phone number with country code",
			input:  "Call 1-555-123-4567 now",
			expect: "Call [PHONE_REDACTED] now",
		},
		{
			name:   "social security number",
			input:  "SSN 123-45-6789 on file",
			expect: "SSN [SSN_REDACTED] on file",
		},
		{
			name:   "credit card number",
			input:  "card 4111 1111 1111 1111",
			expect: "card [CREDIT_CARD_REDACTED]",
		},
		{
			name:   "date",
			input:  "joined 12/31/2023",
			expect: "joined [DATE_REDACTED]",
		},
		{
			name:   "password lowercase",
			input:  "password: Secr3t!",
			expect: "[PASSWORD_REDACTED]",
		},
		{
			name:   "password uppercase keyword",
			input:  "PASSWORD: Secr3t!",
			expect: "[PASSWORD_REDACTED]",
		},
		{
			name:   "password mixed case keyword with equals",
			input:  "Pwd=hunter2",
			expect: "[PASSWORD_REDACTED]",
		},
		{
			name:   "api key",
			input:  "api_key: sk-1234abcd",
			expect: "[API_KEY_REDACTED]",
		},
		{
			name:   "auth token",
			input:  "auth-token = deadbeef",
			expect: "[TOKEN_REDACTED]",
		},
		{
			name:   "ipv4 address",
			input:  "host 192.168.1.100 responded",
			expect: "host [IP_ADDRESS_REDACTED] responded",
		},
		{
			name:   "name with title keeps the parenthetical shape",
			input:  "Jane Smith (Chief Technology Officer)",
			expect: "[NAME_REDACTED] (TITLE_REDACTED)",
		},
		{
			name:   "bare name",
			input:  "ask John Doe about it",
			expect: "ask [NAME_REDACTED] about it",
		},
		{
			name:   "name heuristic false positive on capitalized word pairs",
			input:  "visiting New York",
			expect: "visiting [NAME_REDACTED]",
		},
		{
			name:   "no matches returns input byte for byte",
			input:  "the quick brown fox jumps over 7 lazy dogs",
			expect: "the quick brown fox jumps over 7 lazy dogs",
		},
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			result, err := String(tc.input, defaults)
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, result)
		})
	}
}

// Running the rules over their own output must change nothing: the placeholder tokens
// contain no digits, addresses, or lowercase name shapes for any rule to re-match.
func TestDefaultsIdempotent(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)

	input := "Jane Smith (CTO), j.miller@company.com, 555-123-4567, password: hunter2, 10.0.0.1"
	once, err := String(input, defaults)
	require.NoError(t, err)
	twice, err := String(once, defaults)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestDefaultsDeterministic(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)

	input := "Bob Jones emailed bob@corp.io from 10.1.2.3 on 01/02/2024"
	first, err := String(input, defaults)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := String(input, defaults)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDefaultsTally(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)

	input := "Jane Smith <jane@corp.io> and John Doe <john@corp.io> share 10.0.0.1"
	result, tally := Tally(input, defaults)

	assert.Equal(t, 2, tally["email"])
	assert.Equal(t, 2, tally["name"])
	assert.Equal(t, 1, tally["ipv4"])
	assert.NotContains(t, result, "jane@corp.io")
	assert.NotContains(t, result, "Jane Smith")
}
