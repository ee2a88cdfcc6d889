// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	home "github.com/mitchellh/go-homedir"

	"github.com/ShahanurSharif/radact/document"
)

const (
	DefaultDetectorAddr = "http://127.0.0.1:8750"

	EnvDetectorAddr          = "RADACT_DETECTOR_ADDR"
	EnvDetectorToken         = "RADACT_DETECTOR_TOKEN"
	EnvDetectorCaCert        = "RADACT_DETECTOR_CACERT"
	EnvDetectorCaPath        = "RADACT_DETECTOR_CAPATH"
	EnvDetectorClientCert    = "RADACT_DETECTOR_CLIENT_CERT"
	EnvDetectorClientKey     = "RADACT_DETECTOR_CLIENT_KEY"
	EnvDetectorSkipVerify    = "RADACT_DETECTOR_SKIP_VERIFY"
	EnvDetectorTlsServerName = "RADACT_DETECTOR_TLS_SERVER_NAME"
)

// DetectorConfig holds the connection details for a remote detection service.
// Empty fields fall back to the matching RADACT_DETECTOR_* environment variables.
type DetectorConfig struct {
	Addr  string
	Token string

	CACert        string
	CAPath        string
	ClientCert    string
	ClientKey     string
	TLSServerName string
	Insecure      bool

	// Timeout bounds each detector request. Zero means no limit.
	Timeout time.Duration
}

// NewDetectorAPI returns an APIClient for the detection service. The bearer token is
// read from the config, then the environment, then ~/.radact-token. A missing token is
// not an error, since local deployments commonly run without auth.
func NewDetectorAPI(cfg DetectorConfig) (*APIClient, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = os.Getenv(EnvDetectorAddr)
	}
	if addr == "" {
		addr = DefaultDetectorAddr
	}

	token := cfg.Token
	if token == "" {
		token = os.Getenv(EnvDetectorToken)
	}
	if token == "" {
		path, err := home.Expand("~/.radact-token")
		if err == nil {
			if bts, err := os.ReadFile(path); err == nil {
				token = strings.TrimSpace(string(bts))
			}
		}
	}

	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	tlsConfig, err := NewDetectorTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	return NewAPIClient(APIConfig{
		Service:   "detector",
		BaseURL:   addr,
		headers:   headers,
		TLSConfig: *tlsConfig,
		Timeout:   cfg.Timeout,
	})
}

// NewDetectorTLSConfig returns a *TLSConfig object, filling unset fields from
// the environment.
func NewDetectorTLSConfig(cfg DetectorConfig) (*TLSConfig, error) {
	tlsConfig := TLSConfig{
		CACert:        cfg.CACert,
		CAPath:        cfg.CAPath,
		ClientCert:    cfg.ClientCert,
		ClientKey:     cfg.ClientKey,
		TLSServerName: cfg.TLSServerName,
		Insecure:      cfg.Insecure,
	}

	if tlsConfig.CACert == "" {
		tlsConfig.CACert = os.Getenv(EnvDetectorCaCert)
	}
	if tlsConfig.CAPath == "" {
		tlsConfig.CAPath = os.Getenv(EnvDetectorCaPath)
	}
	if tlsConfig.ClientCert == "" {
		tlsConfig.ClientCert = os.Getenv(EnvDetectorClientCert)
	}
	if tlsConfig.ClientKey == "" {
		tlsConfig.ClientKey = os.Getenv(EnvDetectorClientKey)
	}
	if tlsConfig.TLSServerName == "" {
		tlsConfig.TLSServerName = os.Getenv(EnvDetectorTlsServerName)
	}

	if v := os.Getenv(EnvDetectorSkipVerify); v != "" && !tlsConfig.Insecure {
		skipVerify, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		tlsConfig.Insecure = skipVerify
	}

	// Cert paths accept "~" so config files can be shared across machines.
	for _, p := range []*string{&tlsConfig.CACert, &tlsConfig.CAPath, &tlsConfig.ClientCert, &tlsConfig.ClientKey} {
		if *p == "" {
			continue
		}
		expanded, err := home.Expand(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &tlsConfig, nil
}

// RedactRequest is the body sent to the detection service.
type RedactRequest struct {
	Text string `json:"text"`
}

// RedactResponse is the body returned by the detection service.
type RedactResponse struct {
	RedactedText string         `json:"redacted_text"`
	Findings     map[string]int `json:"findings"`
}

// RemoteDetector sends extracted text to a detection service and returns the
// redacted form. It satisfies document.Detector, so runners use the built-in
// rules and a remote service interchangeably.
type RemoteDetector struct {
	api *APIClient
}

var _ document.Detector = (*RemoteDetector)(nil)

// NewRemoteDetector builds a detector backed by the detection service API.
func NewRemoteDetector(cfg DetectorConfig) (*RemoteDetector, error) {
	api, err := NewDetectorAPI(cfg)
	if err != nil {
		return nil, err
	}
	return &RemoteDetector{api: api}, nil
}

func (d *RemoteDetector) Redact(ctx context.Context, text string) (string, document.Findings, error) {
	var resp RedactResponse
	err := d.api.PostJSON(ctx, "/v1/redact", RedactRequest{Text: text}, &resp)
	if err != nil {
		return "", nil, DetectorError{addr: d.api.BaseURL, err: err}
	}
	return resp.RedactedText, document.Findings(resp.Findings), nil
}

// Check probes the detection service's health endpoint.
func (d *RemoteDetector) Check() error {
	status, err := d.api.GetStringValue("/v1/health", "status")
	if err != nil {
		return DetectorError{addr: d.api.BaseURL, err: err}
	}
	if status != "ok" {
		return DetectorError{addr: d.api.BaseURL, err: fmt.Errorf("unexpected health status '%s'", status)}
	}
	return nil
}

type DetectorError struct {
	addr string
	err  error
}

func (e DetectorError) Error() string {
	return fmt.Sprintf("detector request failed, addr=%s, error=%s", e.addr, e.err.Error())
}

func (e DetectorError) Unwrap() error {
	return e.err
}
