// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package client provides an HTTP client for the remote detection service.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-rootcerts"

	"github.com/ShahanurSharif/radact/util"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// TLSConfig contains the parameters needed to configure TLS on the HTTP client
// used to communicate with an API.
type TLSConfig struct {
	// CACert is the path to a PEM-encoded CA cert file to use to verify the
	// server SSL certificate. It takes precedence over CACertBytes
	// and CAPath.
	CACert string

	// CACertBytes is a PEM-encoded certificate or bundle. It takes precedence
	// over CAPath.
	CACertBytes []byte

	// CAPath is the path to a directory of PEM-encoded CA cert files to verify
	// the server SSL certificate.
	CAPath string

	// ClientCert is the path to the certificate for communication
	ClientCert string

	// ClientKey is the path to the private key for communication
	ClientKey string

	// TLSServerName, if set, is used to set the SNI host when connecting via
	// TLS.
	TLSServerName string

	// Insecure enables or disables SSL verification. Setting to `false` is highly
	// discouraged.
	Insecure bool
}

// isConfigured reports whether any TLS parameter is set.
func (c TLSConfig) isConfigured() bool {
	return c.CACert != "" || len(c.CACertBytes) != 0 || c.CAPath != "" ||
		c.ClientCert != "" || c.ClientKey != "" || c.TLSServerName != "" || c.Insecure
}

// APIConfig contains the configuration details for an APIClient.
type APIConfig struct {
	Service string
	BaseURL string
	// headers may contain secrets, so *do not export*
	headers   map[string]string
	TLSConfig TLSConfig

	// Timeout bounds each request. Zero means no limit.
	Timeout time.Duration
}

// APIClient can make API calls.
type APIClient struct {
	Service string `json:"service"`
	BaseURL string `json:"baseurl"`
	// headers may contain secrets, so *do not export*
	headers map[string]string
	http    HTTPClient
}

// NewAPIClient gets an API client for a service.
func NewAPIClient(cfg APIConfig) (*APIClient, error) {
	transport, err := newHTTPTransport(httpTransportConfig{tlsConfig: cfg.TLSConfig})
	if err != nil {
		return nil, err
	}

	return &APIClient{
		Service: cfg.Service,
		BaseURL: cfg.BaseURL,
		headers: cfg.headers,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}, nil
}

// httpTransportConfig contains the inputs to build an *http.Transport. The TLS configuration
// function is swappable for tests and defaults to createTLSClientConfig.
type httpTransportConfig struct {
	tlsConfig         TLSConfig
	tlsConfigFunction func(TLSConfig) (*tls.Config, error)
}

func newHTTPTransport(cfg httpTransportConfig) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.tlsConfig.isConfigured() {
		tlsFn := cfg.tlsConfigFunction
		if tlsFn == nil {
			tlsFn = createTLSClientConfig
		}
		tlsClientConfig, err := tlsFn(cfg.tlsConfig)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsClientConfig
	}

	return transport, nil
}

func createTLSClientConfig(tlsConfig TLSConfig) (*tls.Config, error) {
	clientTLSConfig := &tls.Config{
		InsecureSkipVerify: tlsConfig.Insecure,
		ServerName:         tlsConfig.TLSServerName,
	}

	if tlsConfig.ClientCert != "" && tlsConfig.ClientKey == "" {
		return nil, fmt.Errorf("client cert provided without a key, cert=%s", tlsConfig.ClientCert)
	}
	if tlsConfig.ClientKey != "" && tlsConfig.ClientCert == "" {
		return nil, fmt.Errorf("client key provided without a cert, key=%s", tlsConfig.ClientKey)
	}
	if tlsConfig.ClientCert != "" && tlsConfig.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(tlsConfig.ClientCert, tlsConfig.ClientKey)
		if err != nil {
			return nil, err
		}
		clientTLSConfig.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			return &cert, nil
		}
	}

	if tlsConfig.CACert != "" || len(tlsConfig.CACertBytes) != 0 || tlsConfig.CAPath != "" {
		rootConfig := &rootcerts.Config{
			CAFile:        tlsConfig.CACert,
			CACertificate: tlsConfig.CACertBytes,
			CAPath:        tlsConfig.CAPath,
		}
		if err := rootcerts.ConfigureTLS(clientTLSConfig, rootConfig); err != nil {
			return nil, err
		}
	}

	return clientTLSConfig, nil
}

// Get makes a GET request to a given path.
func (c *APIClient) Get(path string) (any, error) {
	return c.request(context.Background(), http.MethodGet, path, []byte{})
}

// GetValue runs Get() then looks through the response for nested mapKeys.
func (c *APIClient) GetValue(path string, mapKeys ...string) (any, error) {
	i, err := c.Get(path)
	if err != nil {
		return nil, err
	}
	return util.FindInInterface(i, mapKeys...)
}

// GetStringValue runs GetValue() then casts the result to a string.
func (c *APIClient) GetStringValue(path string, mapKeys ...string) (string, error) {
	i, err := c.GetValue(path, mapKeys...)
	if err != nil {
		return "", err
	}
	v, ok := i.(string)
	if !ok {
		return "", fmt.Errorf("unable to cast '%#v' to string", i)
	}
	return v, nil
}

// PostJSON marshals body, POSTs it to the given path, and decodes the response into out.
// The response is decoded straight into out rather than through request()'s generic map,
// since detector payloads carry whole documents.
func (c *APIClient) PostJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s%s", c.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bts, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New(resp.Status)
	}

	return json.Unmarshal(bts, out)
}

func (c *APIClient) request(ctx context.Context, method string, path string, data []byte) (any, error) {
	// Build request
	url := fmt.Sprintf("%s%s", c.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	// Make request
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Grab response contents
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Convert to any
	var iface any
	err = json.Unmarshal(body, &iface)

	// Error-return the status code if it's not 200 OK
	if resp.StatusCode != http.StatusOK {
		return iface, errors.New(resp.Status)
	}

	return iface, err
}
