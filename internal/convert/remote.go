// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pdf2docx/internal/httputil"
	"github.com/pdiddy/pdf2docx/pkg/types"
)

const (
	defaultRemoteTimeout = 2 * time.Minute
	maxErrorBody         = 512
	userAgent            = "pdf2docx/0.1"
)

// RemoteEngine sends PDFs to an HTTP conversion service. The service
// receives the PDF as an application/pdf request body, optional start and
// end query parameters (zero-based, end exclusive), and answers with the
// DOCX bytes.
type RemoteEngine struct {
	endpoint   *url.URL
	apiKey     string
	client     *http.Client
	maxRetries int
}

// NewRemoteEngine validates cfg and returns an engine for cfg.URL.
func NewRemoteEngine(cfg types.RemoteConfig) (*RemoteEngine, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("remote backend needs remote.url")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing remote.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote.url %q must be http or https", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteEngine{
		endpoint:   u,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (r *RemoteEngine) Name() string { return string(types.BackendRemote) }

// Open reads the whole PDF so retried uploads can resend it.
func (r *RemoteEngine) Open(pdfPath string) (Document, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	return &remoteDocument{engine: r, pdf: data}, nil
}

type remoteDocument struct {
	engine *RemoteEngine
	pdf    []byte
}

func (d *remoteDocument) requestURL(pages PageRange) string {
	u := *d.engine.endpoint
	q := u.Query()
	if !pages.IsAll() {
		q.Set("start", strconv.Itoa(pages.Start))
		if pages.End != 0 {
			q.Set("end", strconv.Itoa(pages.End))
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (d *remoteDocument) Convert(outputPath string, pages PageRange) error {
	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.requestURL(pages), bytes.NewReader(d.pdf))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	req.Header.Set("User-Agent", userAgent)
	if d.engine.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.engine.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, d.engine.client, req, d.engine.maxRetries)
	if err != nil {
		return fmt.Errorf("calling %s: %w", d.engine.endpoint.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return fmt.Errorf("conversion service answered %s", resp.Status)
		}
		return fmt.Errorf("conversion service answered %s: %s", resp.Status, msg)
	}

	return writeOutput(outputPath, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			return fmt.Errorf("reading conversion service response: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("conversion service: %w", errEmptyOutput)
		}
		return nil
	})
}

// Close drops the buffered PDF.
func (d *remoteDocument) Close() error {
	d.pdf = nil
	return nil
}
