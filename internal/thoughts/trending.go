package thoughts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher reads {ok, thoughts:[{text}]} from a trending endpoint.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type trendingResponse struct {
	OK       bool `json:"ok"`
	Thoughts []struct {
		Text string `json:"text"`
	} `json:"thoughts"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("trending error %d: %s", resp.StatusCode, string(body))
	}

	var out trendingResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode trending: %w", err)
	}
	if !out.OK {
		return nil, fmt.Errorf("trending source reported not ok")
	}
	items := make([]string, 0, len(out.Thoughts))
	for _, t := range out.Thoughts {
		if s := strings.TrimSpace(t.Text); s != "" {
			items = append(items, s)
		}
	}
	return items, nil
}
