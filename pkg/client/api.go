// Package client is the operator-side SDK: an API client whose query cache is partitioned by
// tenant context, and the impersonation controller that owns that context.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/pkg/querycache"
)

const tenantDirectoryPath = "/api/superadmin/tenants"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Status int
	Code   string
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Path, e.Status, e.Code)
}

type Me struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Type           string    `json:"type"`
	IsPlatform     bool      `json:"isPlatform"`
	HomeTenantID   string    `json:"homeTenantId,omitempty"`
	HomeTenantName string    `json:"homeTenantName,omitempty"`
	Context        MeContext `json:"context"`
}

type MeContext struct {
	Scope         string `json:"scope"`
	TenantID      string `json:"tenantId,omitempty"`
	Impersonating bool   `json:"impersonating"`
}

type TenantSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UserCount int       `json:"userCount"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cache   *querycache.Cache
	headers func() http.Header
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken authenticates every request with a bearer session token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithCache(cache *querycache.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: func() http.Header { return http.Header{} },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = querycache.New(querycache.NewMemoryBackend(), nil)
	}
	return c
}

func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

// SetHeaderSource installs the function consulted for context headers on every request.
func (c *Client) SetHeaderSource(fn func() http.Header) {
	if fn == nil {
		fn = func() http.Header { return http.Header{} }
	}
	c.headers = fn
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	return c.send(ctx, method, path, body, c.headers())
}

// send issues the request carrying only the given context headers.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, extra http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(raw, &env)
		return nil, &StatusError{Status: resp.StatusCode, Code: env.Code, Path: path}
	}
	return raw, nil
}

// Get fetches path, bypassing the cache, and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// CachedGet serves path from the partitioned cache, fetching on a miss.
func (c *Client) CachedGet(ctx context.Context, path string, out interface{}) error {
	raw, err := c.cache.Fetch(ctx, path, func(fctx context.Context) ([]byte, error) {
		return c.do(fctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.Get(ctx, "/api/auth/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// TenantExists asks the platform tenant-detail resource. Only a 200 counts as existing.
// The lookup is sent without the current context headers: a stale impersonation target
// must not decide whether a different tenant exists.
func (c *Client) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := c.send(ctx, http.MethodGet, tenantDirectoryPath+"/"+url.PathEscape(id.String()), nil, nil)
	if err == nil {
		return true, nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false, nil
	}
	return false, err
}

func (c *Client) ListTenants(ctx context.Context) ([]TenantSummary, error) {
	var out struct {
		Tenants []TenantSummary `json:"tenants"`
	}
	if err := c.CachedGet(ctx, tenantDirectoryPath, &out); err != nil {
		return nil, err
	}
	return out.Tenants, nil
}
