package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultGoogleBase    = "https://www.googleapis.com"
	defaultGoogleTimeout = 30 * time.Second
)

// serviceHosts routes API path prefixes to their dedicated hosts. Calendar,
// Gmail, Drive, and Tasks answer on the shared googleapis.com gateway; Docs,
// Sheets, Slides, and People are only served from per-service hosts.
var serviceHosts = []struct {
	prefix string
	host   string
}{
	{"/v1/documents", "https://docs.googleapis.com"},
	{"/v4/spreadsheets", "https://sheets.googleapis.com"},
	{"/v1/presentations", "https://slides.googleapis.com"},
	{"/v1/people", "https://people.googleapis.com"},
}

// ErrUnauthorized is returned when Google rejects the access token. Callers
// should tell the user to sign in again rather than retrying.
var ErrUnauthorized = errors.New("services: invalid or expired credentials")

// Credential is a user-scoped OAuth access token passed with each request.
// The gateway never stores it; it lives only for the duration of one message.
type Credential struct {
	AccessToken string
}

// Valid reports whether the credential carries a token at all. Actual
// validity is decided by Google; an expired token surfaces as ErrUnauthorized
// on first use.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// ClientConfig configures the Google REST client.
type ClientConfig struct {
	// BaseURL sends every call to one host instead of the per-service Google
	// hosts. Tests point this at a local server.
	BaseURL string

	// Timeout bounds each API call. Defaults to 30 s.
	Timeout time.Duration
}

// Client is a thin REST helper over the Google APIs. Handlers build
// service-prefixed paths ("/calendar/v3/...", "/v1/documents") and parse the
// JSON responses themselves; the client picks the matching host.
type Client struct {
	base   string
	custom bool
	http   *http.Client
}

// NewClient returns a Client with defaults applied.
func NewClient(cfg ClientConfig) *Client {
	custom := cfg.BaseURL != ""
	if !custom {
		cfg.BaseURL = defaultGoogleBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGoogleTimeout
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		custom: custom,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// hostFor picks the host serving a path. An explicit BaseURL override
// receives every call regardless of service.
func (c *Client) hostFor(path string) string {
	if c.custom {
		return c.base
	}
	for _, s := range serviceHosts {
		if strings.HasPrefix(path, s.prefix) {
			return s.host
		}
	}
	return c.base
}

// Get performs an authenticated GET and returns the parsed JSON body.
func (c *Client) Get(ctx context.Context, cred Credential, path string, query url.Values) (gjson.Result, error) {
	return c.do(ctx, cred, http.MethodGet, path, query, nil)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, cred Credential, path string, body any) (gjson.Result, error) {
	return c.do(ctx, cred, http.MethodPost, path, nil, body)
}

// Delete performs an authenticated DELETE. Google returns an empty body on
// success, so only the error matters.
func (c *Client) Delete(ctx context.Context, cred Credential, path string) error {
	_, err := c.do(ctx, cred, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, cred Credential, method, path string, query url.Values, body any) (gjson.Result, error) {
	u := c.hostFor(path) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("services: marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, method, path)
}

// Upload creates a file through a multipart/related upload: JSON metadata in
// the first part, raw content in the second. Drive's /upload endpoints need
// this shape to create a file with its content in one call.
func (c *Client) Upload(ctx context.Context, cred Credential, path string, metadata any, contentType string, content []byte) (gjson.Result, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: marshal upload metadata: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: build upload body: %w", err)
	}
	part.Write(meta)
	part, err = mw.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: build upload body: %w", err)
	}
	part.Write(content)
	mw.Close()

	u := c.hostFor(path) + path + "?uploadType=multipart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	return c.send(req, http.MethodPost, path)
}

func (c *Client) send(req *http.Request, method, path string) (gjson.Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("services: read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return gjson.Result{}, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return gjson.Result{}, fmt.Errorf("services: %s %s returned HTTP %d: %.200s", method, path, resp.StatusCode, msg)
	}

	return gjson.ParseBytes(data), nil
}
