// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package agent

import (
	"github.com/ShahanurSharif/radact/document"
	"github.com/ShahanurSharif/radact/hcl"
	"github.com/ShahanurSharif/radact/redact"
)

// Config describes a redaction run. The command layer merges flag values and the
// HCL file into one Config before the agent is created.
type Config struct {
	// HCL is the parsed configuration file.
	HCL hcl.HCL `json:"-"`

	// Inputs are the documents to redact. Directories are walked for supported files.
	// Reported through the agent's redacted view alongside Environment.
	Inputs []string `json:"-"`

	// Destination is the directory the run's output is written into.
	Destination string `json:"destination"`

	Serial  bool `json:"serial"`
	Dryrun  bool `json:"dry_run"`
	Archive bool `json:"archive"`

	// Redactions are rules the local engine applies ahead of the default set. Rules
	// from the config file's redact blocks are appended during agent creation.
	Redactions []*redact.Redact `json:"-"`

	// Detector overrides the redaction engine for every document when set.
	Detector document.Detector `json:"-"`

	// Environment is marshaled through the agent's redacted view, never raw.
	Environment Environment `json:"-"`
}

// Environment records where and how the run was invoked, for the manifest.
type Environment struct {
	Command  string `json:"command"`
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// RedactedEnvironment is the manifest's view of the invocation. Each field passes
// through the run's redaction rules when the report is marshaled, so hostnames,
// usernames, and input paths get the same treatment as the documents.
type RedactedEnvironment struct {
	Command  redact.RedactedString   `json:"command"`
	Hostname redact.RedactedString   `json:"hostname"`
	Username redact.RedactedString   `json:"username"`
	Inputs   []redact.RedactedString `json:"inputs"`
}
