// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	home "github.com/mitchellh/go-homedir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShahanurSharif/radact/document"
)

func TestRemoteDetector_Redact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/redact", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req RedactRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Call me on 0412 345 678", req.Text)

		resp := RedactResponse{
			RedactedText: "Call me on [PHONE_REDACTED]",
			Findings:     map[string]int{"phone": 1},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	d, err := NewRemoteDetector(DetectorConfig{Addr: srv.URL, Token: "secret"})
	require.NoError(t, err)

	redacted, findings, err := d.Redact(context.Background(), "Call me on 0412 345 678")
	require.NoError(t, err)
	assert.Equal(t, "Call me on [PHONE_REDACTED]", redacted)
	assert.Equal(t, document.Findings{"phone": 1}, findings)
}

func TestRemoteDetector_RedactServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["text too large"]}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, err := NewRemoteDetector(DetectorConfig{Addr: srv.URL, Token: "secret"})
	require.NoError(t, err)

	_, _, err = d.Redact(context.Background(), "hello")
	require.Error(t, err)

	var detectorErr DetectorError
	require.True(t, errors.As(err, &detectorErr))
	assert.Contains(t, err.Error(), srv.URL)
	assert.Contains(t, err.Error(), "500")
}

func TestRemoteDetector_Check(t *testing.T) {
	testTable := []struct {
		desc      string
		status    string
		expectErr bool
	}{
		{
			desc:   "a healthy service passes",
			status: "ok",
		},
		{
			desc:      "a degraded service fails",
			status:    "degraded",
			expectErr: true,
		},
	}

	for _, tc := range testTable {
		t.Run(tc.desc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/health", r.URL.Path)
				require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"status": tc.status}))
			}))
			defer srv.Close()

			d, err := NewRemoteDetector(DetectorConfig{Addr: srv.URL})
			require.NoError(t, err)

			err = d.Check()
			if tc.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.status)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRemoteDetector_CheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d, err := NewRemoteDetector(DetectorConfig{Addr: srv.URL})
	require.NoError(t, err)

	assert.Error(t, d.Check())
}

func TestNewDetectorAPI(t *testing.T) {
	home.DisableCache = true
	t.Cleanup(func() { home.DisableCache = false })

	t.Run("config values take precedence", func(t *testing.T) {
		t.Setenv(EnvDetectorAddr, "http://env.detector:9999")
		t.Setenv(EnvDetectorToken, "envtoken")

		api, err := NewDetectorAPI(DetectorConfig{Addr: "http://cfg.detector:8750", Token: "cfgtoken"})
		require.NoError(t, err)
		assert.Equal(t, "http://cfg.detector:8750", api.BaseURL)
		assert.Equal(t, "Bearer cfgtoken", api.headers["Authorization"])
	})

	t.Run("environment fills empty config", func(t *testing.T) {
		t.Setenv(EnvDetectorAddr, "http://env.detector:9999")
		t.Setenv(EnvDetectorToken, "envtoken")

		api, err := NewDetectorAPI(DetectorConfig{})
		require.NoError(t, err)
		assert.Equal(t, "http://env.detector:9999", api.BaseURL)
		assert.Equal(t, "Bearer envtoken", api.headers["Authorization"])
	})

	t.Run("token file is the last fallback", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("HOME", dir)
		t.Setenv(EnvDetectorAddr, "")
		t.Setenv(EnvDetectorToken, "")
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".radact-token"), []byte("filetoken\n"), 0o644))

		api, err := NewDetectorAPI(DetectorConfig{})
		require.NoError(t, err)
		assert.Equal(t, DefaultDetectorAddr, api.BaseURL)
		assert.Equal(t, "Bearer filetoken", api.headers["Authorization"])
	})

	t.Run("a missing token leaves requests unauthenticated", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv(EnvDetectorAddr, "")
		t.Setenv(EnvDetectorToken, "")

		api, err := NewDetectorAPI(DetectorConfig{})
		require.NoError(t, err)
		assert.Equal(t, DefaultDetectorAddr, api.BaseURL)
		assert.Empty(t, api.headers)
	})
}

func TestNewDetectorTLSConfig(t *testing.T) {
	t.Setenv(EnvDetectorCaCert, "/env/ca.crt")
	t.Setenv(EnvDetectorTlsServerName, "env.server")
	t.Setenv(EnvDetectorSkipVerify, "true")

	got, err := NewDetectorTLSConfig(DetectorConfig{CACert: "/cfg/ca.crt"})
	require.NoError(t, err)

	// Explicit config wins, the environment fills the rest.
	assert.Equal(t, "/cfg/ca.crt", got.CACert)
	assert.Equal(t, "env.server", got.TLSServerName)
	assert.True(t, got.Insecure)
}

func TestNewDetectorTLSConfigBadSkipVerify(t *testing.T) {
	t.Setenv(EnvDetectorSkipVerify, "not-a-bool")

	_, err := NewDetectorTLSConfig(DetectorConfig{})
	require.Error(t, err)
}
