// Package market is a client for the marketplace REST backend: auth,
// product catalog and user profile endpoints.
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/marc-hebbo/marketgo/storage"
)

const (
	ApiBaseUrl = "https://backend-practice.eurisko.me"

	// Requested access token lifetime, sent with login and refresh calls.
	tokenExpiresIn = "1y"
)

// APIError is a failing response from the backend. The message text is part
// of the contract: the session layer classifies login failures by matching
// substrings in it.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status: %d): %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err into an *APIError, if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorEnvelope is the error body shape: {"success":false,"error":{...}}.
type errorEnvelope struct {
	Error APIError `json:"error"`
}

type ClientOpts struct {
	BaseURL string
	// Tokens supplies the bearer token attached to outbound requests. When
	// nil, requests go out unauthenticated.
	Tokens storage.TokenStore
	// InstallationID identifies this client install. Generated when empty.
	InstallationID string
}

type Client struct {
	httpClient     *resty.Client
	baseURL        string
	tokens         storage.TokenStore
	installationID string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{baseURL: ApiBaseUrl}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	c.tokens = opts.Tokens
	c.installationID = opts.InstallationID
	if c.installationID == "" {
		c.installationID = uuid.NewString()
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetHeaders(
			map[string]string{
				"Accept":            "application/json",
				"User-Agent":        "marketgo/1.0",
				"X-Installation-Id": c.installationID,
			},
		)

	// Attach Authorization from the current persisted token. The token is
	// read per request so a refresh that lands mid-session takes effect on
	// the next call without rebuilding the client.
	c.httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if c.tokens == nil {
			return nil
		}
		tok, err := c.tokens.Get(storage.KeyAccessToken)
		if err != nil {
			return fmt.Errorf("failed to read access token: %w", err)
		}
		if tok != "" && req.Header.Get("Authorization") == "" {
			req.SetHeader("Authorization", "Bearer "+tok)
		}
		return nil
	})

	return &c
}

// InstallationID returns the installation id sent with every request.
func (c *Client) InstallationID() string {
	return c.installationID
}

func (c *Client) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetError(&errorEnvelope{})

	if result != nil {
		request.SetResult(result)
	}

	return request
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error. The backend's
// error body is surfaced as *APIError so callers can branch on status code
// and message.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		apiErr := &APIError{StatusCode: res.StatusCode()}
		if envelope, ok := res.Error().(*errorEnvelope); ok && envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
			if envelope.Error.StatusCode != 0 {
				apiErr.StatusCode = envelope.Error.StatusCode
			}
		}
		return res, fmt.Errorf("request failed: %s %s: %w", res.Request.Method, res.Request.URL, apiErr)
	}

	return res, nil
}
