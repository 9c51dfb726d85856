package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultImage is served whenever no relevant photo can be found.
const DefaultImage = "/mountains.jpg"

const unsplashBaseURL = "https://api.unsplash.com"

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	Tags []struct {
		Title string `json:"title"`
	} `json:"tags"`
}

// UnsplashClient looks up background photos for a city.
type UnsplashClient struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	observer   Observer
	log        *zap.Logger
}

func NewUnsplashClient(accessKey, baseURL string, timeout time.Duration, opts ClientOptions) *UnsplashClient {
	if baseURL == "" {
		baseURL = unsplashBaseURL
	}
	c := &UnsplashClient{
		accessKey:  accessKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: opts.HTTPClient,
		cache:      cache.New(6*time.Hour, 30*time.Minute),
		observer:   opts.Observer,
		log:        opts.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if accessKey == "" {
		c.log.Warn("UNSPLASH_ACCESS_KEY not set, city images will use the default background")
	}
	return c
}

// CityImage returns a photo URL for the city. It tries a landmark-biased
// query whose first hit must mention the city, then a bare city query, then
// DefaultImage. It never fails; errors are logged.
func (c *UnsplashClient) CityImage(ctx context.Context, city string) string {
	location := strings.TrimSpace(strings.Split(city, ",")[0])
	if location == "" || c.accessKey == "" {
		return DefaultImage
	}

	key := strings.ToLower(location)
	if v, ok := c.cache.Get(key); ok {
		return v.(string)
	}

	image := DefaultImage
	photo, err := c.search(ctx, location+" famous landmark building historical site")
	if err != nil {
		c.log.Warn("unsplash landmark search failed", zap.String("city", location), zap.Error(err))
	} else if photo != nil && relevant(*photo, location) {
		image = photo.URLs.Regular
	}

	if image == DefaultImage && ctx.Err() == nil {
		photo, err := c.search(ctx, location)
		if err != nil {
			c.log.Warn("unsplash fallback search failed", zap.String("city", location), zap.Error(err))
		} else if photo != nil && photo.URLs.Regular != "" {
			image = photo.URLs.Regular
		}
	}

	if image != DefaultImage {
		c.cache.Set(key, image, cache.DefaultExpiration)
	}
	return image
}

func (c *UnsplashClient) search(ctx context.Context, query string) (*unsplashPhoto, error) {
	start := time.Now()
	photo, err := c.doSearch(ctx, query)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.observer.ObserveGateway("unsplash", "search_photos", outcome, time.Since(start))
	return photo, err
}

func (c *UnsplashClient) doSearch(ctx context.Context, query string) (*unsplashPhoto, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")
	q.Set("client_id", c.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash error (%d): %s", resp.StatusCode, upstreamMessage(body))
	}

	var result unsplashSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse unsplash response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// relevant reports whether the photo's description or tags mention the
// location.
func relevant(p unsplashPhoto, location string) bool {
	loc := strings.ToLower(location)
	desc := p.Description
	if desc == "" {
		desc = p.AltDescription
	}
	if strings.Contains(strings.ToLower(desc), loc) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t.Title), loc) {
			return true
		}
	}
	return false
}
