// Package api is a typed client for the ItemKeeper HTTP API used by the
// command-line tool.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
)

// DefaultBaseURL is used when no server URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// Client provides typed access to the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

// APIError is a decoded error response.
type APIError struct {
	Status int               `json:"-"`
	Code   string            `json:"error_code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s (%d)", e.Detail, e.Status)
	if e.Detail == "" {
		msg = fmt.Sprintf("api request failed with status %d", e.Status)
	}
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// IsCode reports whether err is an APIError with the given error code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsUnauthorized reports whether the server rejected the bearer token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return apiErr
	}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Detail = strings.TrimSpace(string(data))
	}
	return apiErr
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Item is a record as listed by the API.
type Item struct {
	models.Record
	IsOwner *bool `json:"is_owner,omitempty"`
}

// ItemPage is one page of items.
type ItemPage struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
	Pages int    `json:"pages"`
}

// Stats is the body of GET /stats.
type Stats struct {
	TotalUsers   int            `json:"total_users"`
	TotalItems   int            `json:"total_items"`
	YourItems    int            `json:"your_items"`
	Categories   map[string]int `json:"categories"`
	AveragePrice float64        `json:"average_price"`
}

// ListParams are the optional filters for listing and searching.
type ListParams struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
	Skip      int
	Limit     int
}

func (p ListParams) values(searchKey string) url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set(searchKey, p.Query)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if p.SortBy != "" {
		v.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sort_order", p.SortOrder)
	}
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login obtains a token and starts using it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	var out Token
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListItems fetches one page of items.
func (c *Client) ListItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	var out ItemPage
	if err := c.do(ctx, http.MethodGet, withQuery("/items", p.values("search")), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyItems fetches one page of the caller's items.
func (c *Client) MyItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	var out ItemPage
	if err := c.do(ctx, http.MethodGet, withQuery("/items/mine", p.values("search")), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a free-text search.
func (c *Client) Search(ctx context.Context, p ListParams) ([]Item, error) {
	var out []Item
	if err := c.do(ctx, http.MethodGet, withQuery("/items/search", p.values("q")), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetItem fetches one item.
func (c *Client) GetItem(ctx context.Context, id int64) (*models.Record, error) {
	var out models.Record
	if err := c.do(ctx, http.MethodGet, "/items/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateItem adds an item owned by the caller.
func (c *Client) CreateItem(ctx context.Context, in models.RecordInput) (*models.Record, error) {
	var out models.Record
	if err := c.do(ctx, http.MethodPost, "/items", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem changes the supplied fields of an item the caller owns.
func (c *Client) UpdateItem(ctx context.Context, id int64, patch models.RecordPatch) (*models.Record, error) {
	var out models.Record
	if err := c.do(ctx, http.MethodPatch, "/items/"+strconv.FormatInt(id, 10), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteItem removes an item the caller owns.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/items/"+strconv.FormatInt(id, 10), nil, nil)
}

// Categories returns per-category aggregates.
func (c *Client) Categories(ctx context.Context) ([]query.CategoryStats, error) {
	var out []query.CategoryStats
	if err := c.do(ctx, http.MethodGet, "/items/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns service-wide statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
