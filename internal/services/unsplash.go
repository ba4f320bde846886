package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/storage"
)

const unsplashSearchURL = "https://api.unsplash.com/search/photos"

// UnsplashProvider searches Unsplash for high-quality stock photos.
// First image fallback tier after Serper.
type UnsplashProvider struct {
	accessKey string
	cache     *storage.MediaCache
	client    *http.Client
}

func NewUnsplashProvider(accessKey string, cache *storage.MediaCache, timeout time.Duration) *UnsplashProvider {
	return &UnsplashProvider{
		accessKey: accessKey,
		cache:     cache,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *UnsplashProvider) Name() string { return "unsplash" }

func (p *UnsplashProvider) Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error) {
	query := strings.Join(firstN(q.Keywords, 3), " ")
	if query == "" {
		return nil, nil
	}

	orientation := "portrait"
	if q.Orientation == "landscape" {
		orientation = "landscape"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", orientation)
	params.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", unsplashSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create unsplash request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("unsplash returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
				Full    string `json:"full"`
			} `json:"urls"`
			Links struct {
				DownloadLocation string `json:"download_location"`
			} `json:"links"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash response: %w", err)
	}

	if len(result.Results) == 0 {
		log.Printf("[Unsplash] No results for: %s", query)
		return nil, nil
	}

	photo := result.Results[0]
	key := storage.Key(append(q.Keywords, q.TopicContext))

	path, err := p.cache.Download(ctx, photo.URLs.Regular, key, string(q.ContentType), ".jpg", nil)
	if err != nil {
		return nil, fmt.Errorf("unsplash download failed: %w", err)
	}

	// Unsplash API guidelines require registering each download
	p.trackDownload(ctx, photo.Links.DownloadLocation)

	return &models.MediaAsset{
		Kind:     models.MediaKindImage,
		Path:     path,
		Provider: p.Name(),
		CacheKey: key,
	}, nil
}

func (p *UnsplashProvider) trackDownload(ctx context.Context, downloadLocation string) {
	if downloadLocation == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, "GET", downloadLocation, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)
	if resp, err := p.client.Do(req); err == nil {
		resp.Body.Close()
	}
}
