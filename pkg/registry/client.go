// Package registry talks to a Docker registry's v2 HTTP API to list the
// tags of a repository.
//
// Both the token handshake and the tag listing are memoized per Client, so
// a run touching the same qualified repository from several manifest lines
// costs one authentication round trip and one tag-list round trip total.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/updock-dev/updock/pkg/log"
)

const (
	// DefaultAuthURL is the Docker Hub token endpoint.
	DefaultAuthURL = "https://auth.docker.io/token"
	// DefaultRegistryURL is the Docker Hub registry API base.
	DefaultRegistryURL = "https://registry-1.docker.io"
	// DefaultAuthService is the service parameter for the token request.
	DefaultAuthService = "registry.docker.io"
	// DefaultTimeout bounds each registry request.
	DefaultTimeout = 30 * time.Second
)

// Client fetches and caches auth tokens and tag lists.
type Client struct {
	httpClient  *http.Client
	authURL     string
	registryURL string
	authService string
	cache       *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints points the client at alternative auth and registry base
// URLs, primarily for tests and private registries.
func WithEndpoints(authURL, registryURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
		c.registryURL = registryURL
	}
}

// WithAuthService overrides the service parameter of the token request.
func WithAuthService(service string) Option {
	return func(c *Client) { c.authService = service }
}

// NewClient returns a Client with an empty cache. The cache lives as long
// as the client; one client is constructed per run.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		authURL:     DefaultAuthURL,
		registryURL: DefaultRegistryURL,
		authService: DefaultAuthService,
		cache:       gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	Token string `json:"token"`
}

type tagListResponse struct {
	Tags []string `json:"tags"`
}

// Authenticate obtains a pull-scoped bearer token for the qualified
// repository. Results are memoized per repository.
func (c *Client) Authenticate(ctx context.Context, repo string) (string, error) {
	cacheKey := "auth|" + repo
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	endpoint := fmt.Sprintf("%s?service=%s&scope=%s",
		c.authURL,
		url.QueryEscape(c.authService),
		url.QueryEscape("repository:"+repo+":pull"))

	var resp tokenResponse
	if err := c.getJSON(ctx, repo, "authenticate", endpoint, "", &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &MalformedResponseError{Repo: repo, Field: "token"}
	}

	c.cache.Set(cacheKey, resp.Token, gocache.NoExpiration)
	return resp.Token, nil
}

// ListTags lists the repository's tags using the given bearer token.
// Results are memoized per (repository, token).
func (c *Client) ListTags(ctx context.Context, repo, token string) ([]string, error) {
	cacheKey := "tags|" + repo + "|" + token
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]string), nil
	}

	endpoint := fmt.Sprintf("%s/v2/%s/tags/list", c.registryURL, repo)

	var resp tagListResponse
	if err := c.getJSON(ctx, repo, "list tags", endpoint, token, &resp); err != nil {
		return nil, err
	}
	if resp.Tags == nil {
		return nil, &MalformedResponseError{Repo: repo, Field: "tags"}
	}

	c.cache.Set(cacheKey, resp.Tags, gocache.NoExpiration)
	return resp.Tags, nil
}

// Tags authenticates and lists tags in one call.
func (c *Client) Tags(ctx context.Context, repo string) ([]string, error) {
	token, err := c.Authenticate(ctx, repo)
	if err != nil {
		return nil, err
	}
	return c.ListTags(ctx, repo, token)
}

// getJSON performs one GET and decodes the JSON body. Failures to reach the
// endpoint become TransportError; undecodable bodies become
// MalformedResponseError.
func (c *Client) getJSON(ctx context.Context, repo, op, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &TransportError{Repo: repo, Op: op, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug("registry request", "op", op, "repo", repo, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Repo: repo, Op: op, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("closing registry response body", "error", closeErr)
		}
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Repo: repo, Field: "body"}
	}
	return nil
}
