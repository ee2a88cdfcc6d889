// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package hcl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShahanurSharif/radact/redact"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		expect HCL
	}{
		{
			name:   "Empty config is valid",
			path:   "../tests/resources/config/empty.hcl",
			expect: HCL{},
		},
		{
			name: "Agent block with attributes is valid",
			path: "../tests/resources/config/agent_only.hcl",
			expect: HCL{
				Agent: &Agent{
					Destination: "./redacted",
					Serial:      true,
					Archive:     true,
				},
			},
		},
		{
			name: "Agent block with redactions is valid",
			path: "../tests/resources/config/agent_redactions.hcl",
			expect: HCL{
				Agent: &Agent{
					Destination: "~/redacted",
					Timeout:     "90s",
					Excludes:    []string{"*.tmp.docx"},
					Redactions: []Redact{
						{
							Label:   "regex",
							Match:   "ticket-[0-9]{6}",
							Replace: "[TICKET_REDACTED]",
						},
						{
							Label: "literal",
							ID:    "hostname",
							Match: "internal.example.com",
						},
					},
				},
			},
		},
		{
			name: "Config with a detector block is valid",
			path: "../tests/resources/config/detector.hcl",
			expect: HCL{
				Agent: &Agent{
					Destination: "./out",
				},
				Detectors: []*Detector{
					{
						Name:    "remote",
						BaseURL: "https://pii.internal.example",
						Token:   "s3cret",
						CACert:  "~/certs/ca.pem",
						Timeout: "30s",
					},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Parse(tc.path)
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, res, tc.name)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse("../tests/resources/config/does-not-exist.hcl")
	assert.Error(t, err)
}

func TestDocumentTimeout(t *testing.T) {
	testCases := []struct {
		name      string
		agent     *Agent
		expect    time.Duration
		expectErr bool
	}{
		{
			name:   "nil agent means no timeout",
			agent:  nil,
			expect: 0,
		},
		{
			name:   "empty timeout means no timeout",
			agent:  &Agent{},
			expect: 0,
		},
		{
			name:   "durations parse",
			agent:  &Agent{Timeout: "90s"},
			expect: 90 * time.Second,
		},
		{
			name:      "junk does not parse",
			agent:     &Agent{Timeout: "ninety seconds"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := tc.agent.DocumentTimeout()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, d)
		})
	}
}

func TestClientConfig(t *testing.T) {
	d := &Detector{
		Name:          "remote",
		BaseURL:       "https://pii.internal.example",
		Token:         "s3cret",
		CACert:        "~/certs/ca.pem",
		TLSServerName: "pii.internal.example",
		Timeout:       "30s",
	}

	cfg, err := d.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://pii.internal.example", cfg.Addr)
	assert.Equal(t, "s3cret", cfg.Token)
	assert.Equal(t, "~/certs/ca.pem", cfg.CACert)
	assert.Equal(t, "pii.internal.example", cfg.TLSServerName)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestClientConfigRejectsUnknownLabel(t *testing.T) {
	d := &Detector{Name: "local", BaseURL: "http://localhost"}
	_, err := d.ClientConfig()
	assert.Error(t, err)
}

func TestClientConfigRejectsBadTimeout(t *testing.T) {
	d := &Detector{Name: "remote", BaseURL: "http://localhost", Timeout: "soon"}
	_, err := d.ClientConfig()
	assert.Error(t, err)
}

func TestMapRedacts(t *testing.T) {
	hclRedactions := []Redact{
		{
			Label:   "regex",
			ID:      "ticket",
			Match:   "ticket-[0-9]{6}",
			Replace: "[TICKET_REDACTED]",
		},
		{
			Label:   "literal",
			ID:      "host",
			Match:   "node-1.internal (primary)",
			Replace: "[HOST_REDACTED]",
		},
	}

	redactions, err := MapRedacts(hclRedactions)
	require.NoError(t, err)
	require.Len(t, redactions, 2)

	// The literal's parens must match as text, not as a regex group.
	got, err := redact.String("see ticket-123456 on node-1.internal (primary)", redactions)
	require.NoError(t, err)
	assert.Equal(t, "see [TICKET_REDACTED] on [HOST_REDACTED]", got)
}

func TestValidateRedactions(t *testing.T) {
	type testCase struct {
		name       string
		redactions []Redact
	}
	shouldPass := []testCase{
		{
			name:       "empty redactions",
			redactions: []Redact{},
		},
		{
			name: "one literal",
			redactions: []Redact{
				{
					Label: "literal",
					Match: "something",
				},
			},
		},
		{
			name: "one regex",
			redactions: []Redact{
				{
					Label: "regex",
					ID:    "reg1",
					Match: "just a regex",
				},
			},
		},
		{
			name: "many regexes",
			redactions: []Redact{
				{
					Label: "regex",
					ID:    "reg1",
					Match: "just a regex",
				},
				{
					Label: "regex",
					ID:    "reg2",
					Match: "/just a fancy regex/",
				},
				{
					Label: "regex",
					ID:    "reg3",
					Match: "^a very fancy (.) regex?",
				},
			},
		},
		{
			name: "both regexes and literals",
			redactions: []Redact{
				{
					Label: "regex",
					ID:    "reg",
					Match: "just a regex",
				},
				{
					Label: "literal",
					ID:    "lit",
					Match: "something",
				},
			},
		},
	}
	shouldErr := []testCase{
		{
			name: "bad label",
			redactions: []Redact{
				{
					Label: "shouldNotMatchAnyRegexLabel",
				},
			},
		},
		{
			name: "one bad regex",
			redactions: []Redact{
				{
					Label: "regex",
					ID:    "bad-reg-perl-stuff",
					Match: "\"^/(?!/)(.*?)\"",
				},
			},
		},
		{
			name: "good and bad regexes",
			redactions: []Redact{
				{
					Label: "regex",
					ID:    "the good stuff",
					Match: "/hello/",
				},
				{
					Label: "regex",
					ID:    "bad-reg-perl-stuff",
					Match: "\"^/(?!/)(.*?)\"",
				},
			},
		},
	}
	for _, tc := range shouldPass {
		assert.NoError(t, ValidateRedactions(tc.redactions), tc)
	}
	for _, tc := range shouldErr {
		assert.Error(t, ValidateRedactions(tc.redactions), tc)
	}
}
