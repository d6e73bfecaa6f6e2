// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2docx/internal/httputil"
	"github.com/pdiddy/pdf2docx/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func TestNewRemoteEngine(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.RemoteConfig
		wantErr string
	}{
		{name: "valid", cfg: types.RemoteConfig{URL: "https://convert.example.com/v1/pdf2docx"}},
		{name: "missing url", cfg: types.RemoteConfig{URL: "  "}, wantErr: "needs remote.url"},
		{name: "bad scheme", cfg: types.RemoteConfig{URL: "ftp://example.com"}, wantErr: "must be http or https"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := NewRemoteEngine(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "remote", eng.Name())
			assert.Equal(t, defaultRemoteTimeout, eng.client.Timeout)
		})
	}
}

func TestRemoteEngine_Convert(t *testing.T) {
	var got struct {
		method, contentType, auth, query string
		body                             []byte
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.contentType = r.Header.Get("Content-Type")
		got.auth = r.Header.Get("Authorization")
		got.query = r.URL.RawQuery
		got.body, _ = io.ReadAll(r.Body)
		w.Write([]byte("PK remote docx"))
	}))
	defer ts.Close()

	pdfPath, dir := setupPDF(t, "scan.pdf")
	out := filepath.Join(dir, "scan.docx")

	eng, err := NewRemoteEngine(types.RemoteConfig{URL: ts.URL + "/convert", APIKey: "k-123"})
	require.NoError(t, err)
	doc, err := eng.Open(pdfPath)
	require.NoError(t, err)
	require.NoError(t, doc.Convert(out, PageRange{Start: 1, End: 3}))
	require.NoError(t, doc.Close())

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "application/pdf", got.contentType)
	assert.Equal(t, "Bearer k-123", got.auth)
	assert.Equal(t, "end=3&start=1", got.query)
	assert.Equal(t, "%PDF-1.4 fake", string(got.body))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "PK remote docx", string(data))
}

func TestRemoteEngine_RetriesBusyService(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("PK"))
	}))
	defer ts.Close()

	pdfPath, dir := setupPDF(t, "scan.pdf")
	eng, err := NewRemoteEngine(types.RemoteConfig{URL: ts.URL, MaxRetries: 2})
	require.NoError(t, err)
	doc, err := eng.Open(pdfPath)
	require.NoError(t, err)
	defer doc.Close()

	require.NoError(t, doc.Convert(filepath.Join(dir, "scan.docx"), AllPages))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRemoteEngine_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "error status with body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte("encrypted PDF is not supported\n"))
			},
			wantErr: "422 Unprocessable Entity: encrypted PDF is not supported",
		},
		{
			name: "error status without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantErr: "answered 403 Forbidden",
		},
		{
			name:    "empty success body",
			handler: func(w http.ResponseWriter, _ *http.Request) {},
			wantErr: "empty output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			pdfPath, dir := setupPDF(t, "scan.pdf")
			eng, err := NewRemoteEngine(types.RemoteConfig{URL: ts.URL})
			require.NoError(t, err)
			doc, err := eng.Open(pdfPath)
			require.NoError(t, err)
			defer doc.Close()

			err = doc.Convert(filepath.Join(dir, "scan.docx"), AllPages)
			assert.ErrorContains(t, err, tt.wantErr)
			assertOnlyFile(t, dir, "scan.pdf")
		})
	}
}
