package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// Download timeout per attempt — stock videos can be tens of MB
	downloadTimeout = 120 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 15 * time.Second
)

// MediaCache is the on-disk, content-addressed store for downloaded stock
// media. Keys are derived from the sorted, normalized keyword set so that
// equivalent searches hit the same entry regardless of keyword order.
// Writes go download-then-rename so a partially written file is never
// visible under the final key.
type MediaCache struct {
	root   string
	client *http.Client
}

// contentTypeDirs maps content-type tags to cache subdirectories so
// related assets stay grouped on disk.
var contentTypeDirs = map[string]string{
	"book_review":  "book_reviews",
	"daily_update": "daily_news",
	"big_tech":     "tech_news",
	"leader_quote": "quotes",
	"arxiv_paper":  "research",
}

func NewMediaCache(root string) (*MediaCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media cache dir: %w", err)
	}

	return &MediaCache{
		root: root,
		client: &http.Client{
			Timeout: downloadTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Key builds the cache key for a keyword set: keywords are lowercased,
// trimmed, sorted, joined, and hashed. ["a","b"] and ["b","a"] produce the
// same key.
func Key(keywords []string) string {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	sort.Strings(normalized)

	sum := sha256.Sum256([]byte(strings.Join(normalized, "_")))
	return hex.EncodeToString(sum[:])[:16]
}

// Path returns the on-disk location for a cache key, namespaced by content
// type when a mapping exists.
func (c *MediaCache) Path(key, contentType, ext string) string {
	dir := c.root
	if sub, ok := contentTypeDirs[contentType]; ok {
		dir = filepath.Join(c.root, sub)
	}
	return filepath.Join(dir, key+ext)
}

// Lookup reports whether an entry already exists for the key.
func (c *MediaCache) Lookup(key, contentType, ext string) (string, bool) {
	path := c.Path(key, contentType, ext)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, true
	}
	return "", false
}

// LookupAny checks the key under every extension the providers store.
// Video entries win over images so a cached stock clip is preferred.
func (c *MediaCache) LookupAny(key, contentType string) (string, bool) {
	for _, ext := range []string{".mp4", ".jpg", ".png", ".webp"} {
		if path, ok := c.Lookup(key, contentType, ext); ok {
			return path, true
		}
	}
	return "", false
}

// Download fetches url and places it atomically under the cache key.
// The body is streamed to a temp file in the same directory and renamed
// into place only after a fully successful read, so concurrent readers
// never observe a torn entry.
func (c *MediaCache) Download(ctx context.Context, url, key, contentType, ext string, headers map[string]string) (string, error) {
	finalPath := c.Path(key, contentType, ext)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache subdir: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			log.Printf("[MediaCache] Download retry %d/%d for %s (waiting %v)...", attempt, maxRetries, key, delay)

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("download cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		path, err := c.downloadOnce(ctx, url, finalPath, headers)
		if err == nil {
			if attempt > 0 {
				log.Printf("[MediaCache] Download succeeded on attempt %d for %s", attempt+1, key)
			}
			return path, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", lastErr
		}
		log.Printf("[MediaCache] Download attempt %d failed (retryable): %v", attempt+1, err)
	}

	return "", fmt.Errorf("download failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *MediaCache) downloadOnce(ctx context.Context, url, finalPath string, headers map[string]string) (string, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("download failed with status %d: %s", resp.StatusCode, string(body))
		if isRetryableStatus(resp.StatusCode) {
			return "", retryableErr{err}
		}
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(finalPath), ".dl-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmpPath)
		if err == nil {
			err = closeErr
		}
		return "", retryableErr{fmt.Errorf("failed to write download body: %w", err)}
	}

	// Tiny bodies are almost always provider error pages, not media
	if n < 1024 {
		os.Remove(tmpPath)
		return "", fmt.Errorf("response too small (%d bytes), likely an error page", n)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to place cache entry: %w", err)
	}

	return finalPath, nil
}

// retryableErr marks an error as worth retrying regardless of its text.
type retryableErr struct{ error }

func (e retryableErr) Unwrap() error { return e.error }

// retryDelay calculates exponential backoff with jitter: base * 2^attempt + random jitter
func retryDelay(attempt int) time.Duration {
	delay := float64(baseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	// Add 0–25% jitter to avoid thundering herd
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}

// isRetryable checks if an error is worth retrying
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(retryableErr); ok {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "broken pipe")
}

// isRetryableStatus checks if an HTTP status code is worth retrying
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || // 429
		status == http.StatusRequestTimeout || // 408
		status == http.StatusBadGateway || // 502
		status == http.StatusServiceUnavailable || // 503
		status == http.StatusGatewayTimeout // 504
}
