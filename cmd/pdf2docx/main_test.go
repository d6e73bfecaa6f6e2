// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteFixture starts a fake conversion service and writes a config file
// selecting the remote backend with history enabled.
type remoteFixture struct {
	dir     string
	config  string
	history string
	server  *httptest.Server
	status  int
	handler http.HandlerFunc // replaces the default behaviour when set
}

// isolateEnv points HOME at an empty directory and blanks PDF2DOCX_*
// variables so no user config or history leaks into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "PDF2DOCX_") {
			t.Setenv(k, "")
		}
	}
}

func newRemoteFixture(t *testing.T) *remoteFixture {
	t.Helper()
	isolateEnv(t)
	f := &remoteFixture{dir: t.TempDir(), status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.handler != nil {
			f.handler(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			w.Write([]byte("PDF is encrypted"))
			return
		}
		fmt.Fprintf(w, "PK docx of %d bytes", len(body))
	}))
	t.Cleanup(f.server.Close)

	f.history = filepath.Join(f.dir, "state", "history.db")
	f.config = filepath.Join(f.dir, "pdf2docx.yaml")
	cfg := fmt.Sprintf(`backend: remote
remote:
  url: %s/convert
  timeout: 5s
secrets_dir: %s
history:
  enabled: true
  path: %s
`, f.server.URL, filepath.Join(f.dir, "secrets"), f.history)
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))
	return f
}

func (f *remoteFixture) pdf(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))
	return path
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExecute_UsageErrors(t *testing.T) {
	isolateEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: "got 0 argument(s)"},
		{name: "too many arguments", args: []string{"a.pdf", "b.docx", "c"}, want: "got 3 argument(s)"},
		{name: "unknown flag", args: []string{"--colour", "a.pdf"}, want: "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stdout, "error:")
			assert.Contains(t, stdout, tt.want)
			assert.Contains(t, stderr, "Usage:")
		})
	}
}

func TestExecute_MissingInput(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	missing := filepath.Join(dir, "ghost.pdf")

	code, stdout, _ := run(missing)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "input file not found")
	assert.Contains(t, stdout, missing)
	_, err := os.Stat(filepath.Join(dir, "ghost.docx"))
	assert.True(t, os.IsNotExist(err), "no output for a missing input")
}

func TestExecute_MissingInputBeatsBackendSetup(t *testing.T) {
	// The container backend would fail without docker; the missing input
	// must be reported first.
	isolateEnv(t)
	code, stdout, _ := run("--backend", "container", filepath.Join(t.TempDir(), "ghost.pdf"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "input file not found")
}

func TestExecute_InvalidPages(t *testing.T) {
	f := newRemoteFixture(t)
	code, stdout, _ := run("--config", f.config, "--pages", "5-2", f.pdf(t, "a.pdf"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "invalid page range")
}

func TestExecute_UnknownBackend(t *testing.T) {
	f := newRemoteFixture(t)
	code, stdout, _ := run("--config", f.config, "--backend", "pandoc", f.pdf(t, "a.pdf"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `unknown backend "pandoc"`)
}

func TestExecute_DerivedOutput(t *testing.T) {
	f := newRemoteFixture(t)
	in := f.pdf(t, "archive.v2.pdf")

	code, stdout, _ := run("--config", f.config, in)

	require.Equal(t, 0, code, stdout)
	want := filepath.Join(f.dir, "archive.v2.docx")
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "PK docx of 13 bytes", string(data))
	assert.Contains(t, stdout, "input:")
	assert.Contains(t, stdout, "converting archive.v2.pdf with remote backend")
	assert.Contains(t, stdout, "success:")
	assert.Contains(t, stdout, want)
}

func TestExecute_ExplicitAndWhitespaceOutput(t *testing.T) {
	f := newRemoteFixture(t)
	in := f.pdf(t, "report.pdf")

	explicit := filepath.Join(f.dir, "elsewhere.bin")
	code, _, _ := run("--config", f.config, in, explicit)
	require.Equal(t, 0, code)
	_, err := os.Stat(explicit)
	assert.NoError(t, err, "output must be written exactly at the explicit path")
	_, err = os.Stat(filepath.Join(f.dir, "report.docx"))
	assert.True(t, os.IsNotExist(err), "explicit output must not also write the derived path")

	code, _, _ = run("--config", f.config, in, "   ")
	require.Equal(t, 0, code)
	_, err = os.Stat(filepath.Join(f.dir, "report.docx"))
	assert.NoError(t, err, "whitespace output falls back to the derived path")
}

func TestExecute_ConversionFailure(t *testing.T) {
	f := newRemoteFixture(t)
	f.status = http.StatusUnprocessableEntity
	in := f.pdf(t, "locked.pdf")

	code, stdout, _ := run("--config", f.config, in)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "error:")
	assert.Contains(t, stdout, "PDF is encrypted")
	_, err := os.Stat(filepath.Join(f.dir, "locked.docx"))
	assert.True(t, os.IsNotExist(err), "failed conversions leave no output")
}

func TestExecute_SequentialRunsAndHistory(t *testing.T) {
	f := newRemoteFixture(t)
	first := f.pdf(t, "first.pdf")
	second := f.pdf(t, "second.pdf")

	code, _, _ := run("--config", f.config, first)
	require.Equal(t, 0, code)
	f.status = http.StatusBadGateway
	code, _, _ = run("--config", f.config, second)
	require.Equal(t, 1, code)

	_, err := os.Stat(filepath.Join(f.dir, "first.docx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.dir, "second.docx"))
	assert.True(t, os.IsNotExist(err))

	code, stdout, _ := run("--config", f.config, "history", "--format", "json")
	require.Equal(t, 0, code, stdout)

	var records []struct {
		Input   string `json:"input"`
		Output  string `json:"output"`
		Backend string `json:"backend"`
		Status  string `json:"status"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].Input)
	assert.Equal(t, "failed", records[0].Status)
	assert.Contains(t, records[0].Error, "502")
	assert.Equal(t, first, records[1].Input)
	assert.Equal(t, filepath.Join(f.dir, "first.docx"), records[1].Output)
	assert.Equal(t, "converted", records[1].Status)
	assert.Equal(t, "remote", records[1].Backend)
}

func TestExecute_HistoryBadFormat(t *testing.T) {
	f := newRemoteFixture(t)
	code, stdout, _ := run("--config", f.config, "history", "--format", "csv")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `unsupported format "csv"`)
}

func TestExecute_RemoteAPIKeyFromSecrets(t *testing.T) {
	f := newRemoteFixture(t)
	var gotAuth string
	f.handler = func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("PK"))
	}
	secretsDir := filepath.Join(f.dir, "secrets")
	require.NoError(t, os.MkdirAll(secretsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "pdf2docx-api-key"), []byte("tok_42\n"), 0o600))

	code, stdout, _ := run("--config", f.config, f.pdf(t, "a.pdf"))
	require.Equal(t, 0, code, stdout)
	assert.Equal(t, "Bearer tok_42", gotAuth)
}

func TestExecute_MissingConfigFile(t *testing.T) {
	code, stdout, _ := run("--config", filepath.Join(t.TempDir(), "nope.yaml"), "version")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "reading config")
}

func TestExecute_Version(t *testing.T) {
	isolateEnv(t)
	code, stdout, _ := run("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "pdf2docx dev")
}

func TestExecute_HistoryWithoutLedger(t *testing.T) {
	f := newRemoteFixture(t)

	code, stdout, _ := run("--config", f.config, "history")

	require.Equal(t, 0, code, stdout)
	assert.Contains(t, stdout, "No conversions recorded.")
	_, err := os.Stat(f.history)
	assert.True(t, os.IsNotExist(err), "listing must not create the ledger")
	_, err = os.Stat(filepath.Dir(f.history))
	assert.True(t, os.IsNotExist(err), "listing must not create the state directory")
}

func TestExecute_SubcommandNamedInputAsPath(t *testing.T) {
	f := newRemoteFixture(t)
	in := filepath.Join(f.dir, "version")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4 test"), 0o644))

	code, stdout, _ := run("--config", f.config, in)

	require.Equal(t, 0, code, stdout)
	assert.NotContains(t, stdout, "pdf2docx dev")
	_, err := os.Stat(filepath.Join(f.dir, "version.docx"))
	assert.NoError(t, err, "a path-qualified input is converted, not dispatched")
}
