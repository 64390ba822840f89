package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"time"

	"golang.org/x/net/html/charset"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.google.com.tr/",
		"https://www.bing.com/",
	}

	// HTTP client with timeout
	client = &http.Client{
		Timeout: 10 * time.Second,
	}
)

// RateLimitedError is returned when a site answers 429/430
type RateLimitedError struct {
	URL        string
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by %s; retry after %s", e.URL, e.RetryAfter)
}

// FetchWithRandomHeaders sends an HTTP GET request with browser-like headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func FetchWithRandomHeaders(ctx context.Context, url string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, &RateLimitedError{URL: url, RetryAfter: resp.Header.Get("Retry-After")}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}
