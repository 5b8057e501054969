package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/query"
)

// Client is the HTTP implementation of Source. It speaks a small JSON API:
//
//	GET  {base}/entities/{id}[?spaceId=...]   -> EntityDTO, 404 when unknown
//	POST {base}/entities/batch  {"ids":[...]} -> {"entities":[EntityDTO...]}
//	GET  {base}/search?filter={canonical}     -> {"results":[SearchResultDTO...]}
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// FetchEntity implements Source. A 404 maps to a nil DTO.
func (c *Client) FetchEntity(ctx context.Context, id, spaceID string) (*graph.EntityDTO, error) {
	u := c.baseURL + "/entities/" + url.PathEscape(id)
	if spaceID != "" {
		u += "?spaceId=" + url.QueryEscape(spaceID)
	}

	var dto graph.EntityDTO
	found, err := c.getJSON(ctx, u, &dto)
	if err != nil {
		return nil, fmt.Errorf("fetch entity %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &dto, nil
}

// FetchEntitiesBatch implements Source.
func (c *Client) FetchEntitiesBatch(ctx context.Context, ids []string) ([]graph.EntityDTO, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(struct {
		IDs []string `json:"ids"`
	}{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("fetch batch: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entities/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Entities []graph.EntityDTO `json:"entities"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	return out.Entities, nil
}

// FetchResults implements Source.
func (c *Client) FetchResults(ctx context.Context, cond *query.Condition) ([]graph.SearchResultDTO, error) {
	filter, err := EncodeFilter(cond)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	var out struct {
		Results []graph.SearchResultDTO `json:"results"`
	}
	u := c.baseURL + "/search?filter=" + url.QueryEscape(filter)
	found, err := c.getJSON(ctx, u, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	if !found {
		return nil, nil
	}
	return out.Results, nil
}

// getJSON performs a GET and decodes the response. Returns found=false on
// 404 without error.
func (c *Client) getJSON(ctx context.Context, u string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// do performs a prepared request and decodes a 200 response.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
