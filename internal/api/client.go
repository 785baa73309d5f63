package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/artvinci/artvinci-go/pkg/errors"
	"github.com/artvinci/artvinci-go/pkg/logger"
)

const maxErrorBody = 64 << 10

// Client is the typed surface over the marketplace backend's REST API.
// The supplied http.Client is expected to carry the auth transport, so
// bearer attachment and token refresh happen below this layer.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logg      *logger.Logger
}

// ClientParams bundles the dependencies required to build an API client.
type ClientParams struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// NewClient validates the params and returns a ready client.
func NewClient(params ClientParams) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(params.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if params.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Client{
		baseURL:   base,
		userAgent: strings.TrimSpace(params.UserAgent),
		http:      params.HTTPClient,
		logg:      params.Logger,
	}, nil
}

// BaseURL reports the normalized backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logg.Error(c.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "backend request failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reaching the marketplace")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding backend response")
	}
	return nil
}

// errorBody covers the shapes the backend uses for failures:
// {"message": ...}, {"error": ...}, and DRF's {"detail": ...}.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func (e errorBody) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return e.Detail
	}
}

func (c *Client) errorFromResponse(resp *http.Response) *pkgerrors.Error {
	code := pkgerrors.FromStatus(resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed errorBody
	message := ""
	if err := json.Unmarshal(raw, &parsed); err == nil {
		message = parsed.text()
	}
	if message == "" {
		message = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}
	return pkgerrors.New(code, message)
}
