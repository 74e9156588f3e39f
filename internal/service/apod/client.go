package apod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"starlog/backend/internal/config"
	"starlog/backend/internal/network"
)

// Provider looks up the NASA Astronomy Picture of the Day for a
// calendar date. Lookups are best effort: callers treat any error as
// "no picture" and move on.
type Provider interface {
	Lookup(ctx context.Context, date string) (Picture, error)
}

// Picture is a successful APOD lookup result.
type Picture struct {
	URL       string
	Title     string
	MediaType string
}

var ErrNoImage = errors.New("apod response has no image url")

type apodResponse struct {
	URL       string `json:"url"`
	HDURL     string `json:"hdurl"`
	Title     string `json:"title"`
	MediaType string `json:"media_type"`
	Date      string `json:"date"`
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewClient creates an APOD client. The timeout bounds the whole
// lookup; a hung NASA endpoint must not stall a journal submission.
func NewClient(baseURL, apiKey string, timeout time.Duration, factory *network.ClientFactory) Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: factory.NewHTTPClient(timeout),
		limiter:    NewRateLimiter(DefaultRateLimit),
	}
}

func (c *client) Lookup(ctx context.Context, date string) (Picture, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Picture{}, err
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Picture{}, err
	}
	req.Header.Set("User-Agent", config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Picture{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Picture{}, fmt.Errorf("apod lookup: HTTP %d", resp.StatusCode)
	}

	var parsed apodResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Picture{}, fmt.Errorf("apod lookup: decode response: %w", err)
	}

	if parsed.URL == "" {
		return Picture{}, ErrNoImage
	}

	return Picture{
		URL:       parsed.URL,
		Title:     parsed.Title,
		MediaType: parsed.MediaType,
	}, nil
}
