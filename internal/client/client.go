// Package client talks to the directory HTTP API and keeps a local,
// optimistically updated copy of the directory for interactive front ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/staffdir/internal/core"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// RequestError describes a failed API call. Err is the transport error, or
// the core sentinel matching the response status, so errors.Is works with
// core.ErrNotFound, core.ErrInvalidFormat and core.ErrInvalidInput.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (Code: %s)", e.Code)
	}
	if e.StatusCode == 0 && e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Client is a thin wrapper over the directory HTTP API. No call is retried.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the API rooted at baseURL. A nil hc uses a
// client with DefaultTimeout.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: u, http: hc}, nil
}

// List fetches the whole directory in store order.
func (c *Client) List(ctx context.Context) ([]core.Employee, error) {
	var out []core.Employee
	err := c.do(ctx, "list employees", http.MethodGet, "/employees", nil, "", &out)
	return out, err
}

// Create adds an employee and returns the stored record.
func (c *Client) Create(ctx context.Context, in core.NewEmployeeInput) (core.Employee, error) {
	var out core.Employee
	body, err := json.Marshal(in)
	if err != nil {
		return out, fmt.Errorf("encode employee: %w", err)
	}
	err = c.do(ctx, "create employee", http.MethodPost, "/employees", bytes.NewReader(body), "application/json", &out)
	return out, err
}

// Update applies a partial update and returns the stored record.
func (c *Client) Update(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	var out core.Employee
	body, err := json.Marshal(patch)
	if err != nil {
		return out, fmt.Errorf("encode patch: %w", err)
	}
	err = c.do(ctx, "update employee", http.MethodPatch, "/employees/"+url.PathEscape(id), bytes.NewReader(body), "application/json", &out)
	return out, err
}

// Delete removes an employee.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete employee", http.MethodDelete, "/employees/"+url.PathEscape(id), nil, "", nil)
}

// Import uploads a payload of the given kind.
func (c *Client) Import(ctx context.Context, r io.Reader, kind core.ContentKind) (core.ImportResult, error) {
	contentType := "text/csv"
	if kind == core.KindJSON {
		contentType = "application/json"
	}
	var out core.ImportResult
	err := c.do(ctx, "import employees", http.MethodPost, "/employees/import", r, contentType, &out)
	return out, err
}

// Export streams the server export in format to w.
func (c *Client) Export(ctx context.Context, w io.Writer, format core.ExportFormat) error {
	const op = "export employees"

	resp, err := c.send(ctx, op, http.MethodGet, "/employees/export?format="+url.QueryEscape(string(format)), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &RequestError{Op: op, Err: err}
	}
	return nil
}

// Stats fetches the headcount summary.
func (c *Client) Stats(ctx context.Context) (core.DirectoryStats, error) {
	var out core.DirectoryStats
	err := c.do(ctx, "employee stats", http.MethodGet, "/employees/stats", nil, "", &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, op, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// send performs the request and turns non-2xx responses into a
// *RequestError. The caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	reqErr := &RequestError{Op: op, StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		reqErr.Message = payload.Message
		reqErr.Code = payload.Code
	}
	if reqErr.Message == "" {
		reqErr.Message = http.StatusText(resp.StatusCode)
	}
	reqErr.Err = sentinelFor(resp.StatusCode, reqErr.Code)
	return nil, reqErr
}

// sentinelFor maps a failed response to the matching core error.
func sentinelFor(status int, code string) error {
	switch {
	case status == http.StatusNotFound:
		return core.ErrNotFound
	case strings.HasPrefix(code, "IMP"):
		return core.ErrInvalidFormat
	case code == "VAL001":
		return core.ErrInvalidInput
	case code == "VAL003":
		return core.ErrInvalidQuery
	}
	return errors.New(strings.ToLower(http.StatusText(status)))
}
