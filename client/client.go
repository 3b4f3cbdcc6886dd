// Package client is the HTTP client site adapters fetch platform APIs
// with. It layers a short-lived response cache and the shared rate
// limiter under a plain JSON GET interface, so adapters stay polite
// without each implementing throttling themselves.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/ratelimit"
)

const (
	defaultTimeout = 10 * time.Second
	defaultAgent   = "catalogd/1.0"
)

type Client struct {
	client    *http.Client
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	userAgent string
}

func New(limiter *ratelimit.Limiter) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		limiter:   limiter,
		userAgent: defaultAgent,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// GetJSON fetches url and decodes the JSON body into response. Responses
// are cached briefly so paged crawls revisiting the same endpoint do not
// burn limiter permits.
func (c *Client) GetJSON(ctx context.Context, url string, response any) error {
	if cached, found := c.cache.Get(url); found {
		return json.Unmarshal(cached.([]byte), response)
	}

	if c.limiter != nil {
		c.limiter.AcquirePermit()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ExternalServiceError{Target: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ExternalServiceError{
			Target: url,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ExternalServiceError{Target: url, Err: err}
	}

	c.cache.Set(url, body, cache.DefaultExpiration)
	return json.Unmarshal(body, response)
}
