// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package hcl describes the configuration file format.
package hcl

import (
	"fmt"
	"regexp"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/ShahanurSharif/radact/client"
	"github.com/ShahanurSharif/radact/redact"
)

type HCL struct {
	Agent     *Agent      `hcl:"agent,block" json:"agent"`
	Detectors []*Detector `hcl:"detector,block" json:"detectors"`
}

// Agent holds run-wide settings. Every attribute is optional so a config file can
// set only what it needs; flags fill or override the rest.
type Agent struct {
	Destination string   `hcl:"destination,optional" json:"destination"`
	Serial      bool     `hcl:"serial,optional" json:"serial"`
	Archive     bool     `hcl:"archive,optional" json:"archive"`
	Timeout     string   `hcl:"timeout,optional" json:"timeout"`
	Excludes    []string `hcl:"excludes,optional" json:"excludes"`
	Selects     []string `hcl:"selects,optional" json:"selects"`
	Redactions  []Redact `hcl:"redact,block" json:"redactions"`
}

// Detector points the run at an external detection service. The only label
// recognized is "remote".
type Detector struct {
	Name    string `hcl:"name,label" json:"name"`
	BaseURL string `hcl:"base_url" json:"base_url"`
	// Token is a secret, so it stays out of serialized output.
	Token         string `hcl:"token,optional" json:"-"`
	CACert        string `hcl:"ca_cert,optional" json:"ca_cert"`
	CAPath        string `hcl:"ca_path,optional" json:"ca_path"`
	ClientCert    string `hcl:"client_cert,optional" json:"client_cert"`
	ClientKey     string `hcl:"client_key,optional" json:"client_key"`
	TLSServerName string `hcl:"tls_server_name,optional" json:"tls_server_name"`
	Insecure      bool   `hcl:"insecure,optional" json:"insecure"`
	Timeout       string `hcl:"timeout,optional" json:"timeout"`
}

type Redact struct {
	Label   string `hcl:"name,label"`
	ID      string `hcl:"id,optional"`
	Match   string `hcl:"match"`
	Replace string `hcl:"replace,optional"`
}

// Parse takes a file path and decodes the file from disk into HCL types.
func Parse(path string) (HCL, error) {
	var h HCL
	err := hclsimple.DecodeFile(path, nil, &h)
	if err != nil {
		return HCL{}, err
	}
	return h, nil
}

// DocumentTimeout parses the agent block's timeout attribute, returning zero
// when it is unset.
func (a *Agent) DocumentTimeout() (time.Duration, error) {
	if a == nil || a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

// ClientConfig maps a detector block onto the client package's config.
func (d *Detector) ClientConfig() (client.DetectorConfig, error) {
	if d.Name != "remote" {
		return client.DetectorConfig{}, fmt.Errorf("invalid detector name, name=%s", d.Name)
	}

	cfg := client.DetectorConfig{
		Addr:          d.BaseURL,
		Token:         d.Token,
		CACert:        d.CACert,
		CAPath:        d.CAPath,
		ClientCert:    d.ClientCert,
		ClientKey:     d.ClientKey,
		TLSServerName: d.TLSServerName,
		Insecure:      d.Insecure,
	}

	if d.Timeout != "" {
		timeout, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return client.DetectorConfig{}, err
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// MapRedacts maps HCL redactions to "real" `redact.Redact`s
func MapRedacts(redactions []Redact) ([]*redact.Redact, error) {
	err := ValidateRedactions(redactions)
	if err != nil {
		return nil, err
	}

	s := make([]*redact.Redact, len(redactions))
	for i, r := range redactions {
		matcher := r.Match
		// Literals match exactly, so any regex metacharacters are escaped up front.
		if r.Label == "literal" {
			matcher = regexp.QuoteMeta(matcher)
		}
		cfg := redact.Config{
			Matcher: matcher,
			ID:      r.ID,
			Replace: r.Replace,
		}
		red, err := redact.New(cfg)
		if err != nil {
			return nil, err
		}
		s[i] = red
	}
	return s, nil
}

// ValidateRedactions takes a slice of redactions and ensures they match valid names.
func ValidateRedactions(redactions []Redact) error {
	hclog.L().Trace("hcl.ValidateRedactions()", "redactions", redactions)
	for _, r := range redactions {
		switch r.Label {
		case "regex":
			_, err := regexp.Compile(r.Match)
			if err != nil {
				return fmt.Errorf("could not compile regex, matcher=%s, err=%s", r.Match, err)
			}
		case "literal":
			continue
		default:
			return fmt.Errorf("invalid redact name, name=%s", r.Label)
		}
	}
	return nil
}
