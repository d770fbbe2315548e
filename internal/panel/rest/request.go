package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"arbpanel/internal/models"
	"arbpanel/internal/panel"
	"arbpanel/internal/session"

	"github.com/google/uuid"
)

const maxErrorBody = 512

// Options tune a single Request.
type Options struct {
	Params url.Values
	Body   any
	Header http.Header
	// Credential overrides the session credential, e.g. for a login attempt.
	Credential *models.Credential
}

// Request sends one call with the auth value and a JSON content type merged in.
// A 401 clears the session and yields panel.ErrUnauthorized; every other status is returned
// untouched for the caller to interpret. The caller owns the response body.
func (c *Client) Request(ctx context.Context, method, path string, opts Options) (*http.Response, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	urlStr := c.baseURL + path
	if len(opts.Params) > 0 {
		urlStr += "?" + opts.Params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("X-Request-ID", requestID)
	if opts.Credential != nil {
		req.Header.Set("Authorization", session.AuthValue(*opts.Credential))
	} else if auth, ok := c.session.CurrentAuthValue(); ok {
		req.Header.Set("Authorization", auth)
	}

	entry := c.logEntry(requestID).WithField("method", method).WithField("path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Warn("Request failed.")
		return nil, &panel.TransportError{Method: method, Path: path, Err: err}
	}

	entry.WithField("status", resp.StatusCode).Debug("Response received.")

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		entry.Warn("Credential rejected, clearing session.")
		if err := c.session.Clear(ctx); err != nil {
			entry.WithError(err).Error("Failed to clear session.")
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, panel.ErrUnauthorized)
	}

	return resp, nil
}

// doJSON decodes a 2xx body into out (when non-nil) and turns other statuses into StatusError.
func (c *Client) doJSON(ctx context.Context, method, path string, opts Options, out any) error {
	resp, err := c.Request(ctx, method, path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &panel.TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &panel.TransportError{Method: method, Path: path, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// doText returns the body for any non-401 status, with a StatusError alongside for non-2xx.
func (c *Client) doText(ctx context.Context, method, path string, opts Options) (string, error) {
	resp, err := c.Request(ctx, method, path, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &panel.TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return string(data), statusError(method, path, resp.StatusCode, data)
	}
	return string(data), nil
}

func statusError(method, path string, code int, body []byte) *panel.StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &panel.StatusError{Method: method, Path: path, Code: code, Body: string(bytes.TrimSpace(body))}
}
