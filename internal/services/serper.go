package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/storage"
)

const serperSearchURL = "https://google.serper.dev/images"

// Minimum dimensions worth using as a portrait video background
const (
	serperMinWidth  = 800
	serperMinHeight = 600
)

// SerperProvider searches Google Images via serper.dev. It is the primary
// image tier: real-world, topic-specific images beat generic stock photos
// for news content.
type SerperProvider struct {
	apiKey string
	cache  *storage.MediaCache
	client *http.Client
}

func NewSerperProvider(apiKey string, cache *storage.MediaCache, timeout time.Duration) *SerperProvider {
	return &SerperProvider{
		apiKey: apiKey,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *SerperProvider) Name() string { return "serper" }

type serperImage struct {
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
	Width    int    `json:"imageWidth"`
	Height   int    `json:"imageHeight"`
}

func (p *SerperProvider) Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error) {
	query := q.TopicContext
	if query == "" {
		query = strings.Join(firstN(q.Keywords, 4), " ")
	}
	if query == "" {
		return nil, nil
	}

	// Book-adjacent queries drown in storefront thumbnails; negative
	// keywords filter the worst offenders.
	lower := strings.ToLower(query)
	if strings.Contains(lower, "book") || strings.Contains(lower, "author") || strings.Contains(lower, "reading") {
		query += " -amazon -kindle -ebay -audible"
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"q":   query,
		"num": 5,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", serperSearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("serper returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Images []serperImage `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}

	if len(result.Images) == 0 {
		log.Printf("[Serper] No results for: %s", truncateString(query, 60))
		return nil, nil
	}

	key := storage.Key(append(q.Keywords, q.TopicContext))

	// Try candidates in order; the first one that downloads wins
	for _, img := range result.Images {
		if img.Width > 0 && (img.Width < serperMinWidth || img.Height < serperMinHeight) {
			continue
		}
		path, err := p.cache.Download(ctx, img.ImageURL, key, string(q.ContentType), ".jpg", nil)
		if err != nil {
			log.Printf("[Serper] Candidate download failed: %v", err)
			continue
		}
		return &models.MediaAsset{
			Kind:     models.MediaKindImage,
			Path:     path,
			Provider: p.Name(),
			CacheKey: key,
		}, nil
	}

	return nil, nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
