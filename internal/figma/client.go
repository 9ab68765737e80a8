package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"percy-figma/internal/logger"
)

// DefaultBaseURL is the Figma REST API host.
const DefaultBaseURL = "https://api.figma.com"

// TokenHeader carries the personal access token on every request.
const TokenHeader = "X-FIGMA-TOKEN"

// ImagesResponse is the body of GET /v1/images/:key.
// A nil entry in Images means Figma could not render that node.
type ImagesResponse struct {
	Err    *string            `json:"err"`
	Images map[string]*string `json:"images"`
}

// Client talks to the Figma images endpoint.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client authenticating with the given user token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveImages asks Figma to render ids from the given project or file and
// returns node id -> temporary PNG URL. It makes exactly one request.
// Nodes Figma failed to render are left out of the result.
func (c *Client) ResolveImages(ctx context.Context, containerToken string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, errors.New("figma: at least one node id is required")
	}

	// Ids are escaped one by one so the separator stays a literal comma.
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}
	endpoint := fmt.Sprintf("%s/v1/images/%s?ids=%s",
		c.baseURL, url.PathEscape(containerToken), strings.Join(escaped, ","))
	logger.Debug("[DEBUG] Fetching Figma images from URL: %s\n", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set(TokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET images", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	// Handle non-200 responses
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &RemoteAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed ImagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}
	if parsed.Err != nil && *parsed.Err != "" {
		logger.Warn("[WARN] Figma reported: %s\n", *parsed.Err)
	}

	urls := make(map[string]string, len(parsed.Images))
	for id, u := range parsed.Images {
		if u == nil || *u == "" {
			logger.Warn("[WARN] No image URL returned for %s, please check if the id is correct\n", id)
			continue
		}
		urls[id] = *u
	}
	for _, id := range ids {
		if _, ok := parsed.Images[id]; !ok {
			logger.Warn("[WARN] Figma response does not mention %s\n", id)
		}
	}
	logger.Debug("[DEBUG] Resolved %d of %d image URLs\n", len(urls), len(ids))
	return urls, nil
}
