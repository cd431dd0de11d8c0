package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// APIClient performs authorized REST calls against the photo API
type APIClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewAPIClient creates a new API client; a nil httpClient gets a client with the given timeout
func NewAPIClient(baseURL string, httpClient *http.Client, timeout time.Duration) (*APIClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &APIClient{baseURL: parsed, httpClient: httpClient}, nil
}

// HTTPClient returns the underlying HTTP client
func (c *APIClient) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *APIClient) newRequest(ctx context.Context, op, method string, query url.Values, token string, path ...string) (*http.Request, error) {
	u := c.baseURL.JoinPath(path...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, newNetworkError(op, KindInvalidRequest, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// data sends the request and returns the body of a 2xx response
func (c *APIClient) data(req *http.Request, op string) ([]byte, error) {
	log.Debug().Str("op", op).Str("method", req.Method).Str("url", req.URL.String()).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(op, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("API request failed")
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{
			Op:     op,
			Kind:   KindHTTPStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(op, KindTransport, err)
	}
	return body, nil
}

// object sends the request and decodes a 2xx JSON body into out
func (c *APIClient) object(req *http.Request, op string, out any) error {
	body, err := c.data(req, op)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Debug().Str("op", op).Err(err).Msg("failed to decode response")
		return newNetworkError(op, KindDecode, err)
	}
	return nil
}

// isCanceled reports whether err stems from a cancelled request context
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
