package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// httpTimeout bounds every platform exchange; exceeding it surfaces as a
// NetworkError like any other transport failure.
const httpTimeout = 15 * time.Second

// ProxyFunc supplies the current egress proxy, nil for a direct connection.
type ProxyFunc func(*http.Request) (*url.URL, error)

// newHTTPClient builds the shared client for one adapter. proxy may be nil.
func newHTTPClient(proxy ProxyFunc) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = proxy
	}
	return &http.Client{Timeout: httpTimeout, Transport: transport}
}

// doJSON performs one request and decodes the response body into out.
// Transport failures become NetworkError, HTTP 401/403 becomes
// ErrSessionExpired, unexpected status codes become NetworkError (the
// platform may be throttling), and undecodable bodies become ParseError.
func doJSON(client *http.Client, req *http.Request, op string, out any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: http %d: %w", op, resp.StatusCode, ErrSessionExpired)
	case resp.StatusCode != http.StatusOK:
		return &NetworkError{Op: op, Err: fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Op: op, Err: err}
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL, cookie, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Cookie", cookie)
	return doJSON(client, req, op, out)
}

func postJSON(ctx context.Context, client *http.Client, rawURL, cookie, op string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	return doJSON(client, req, op, out)
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
