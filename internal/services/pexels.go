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

const (
	pexelsPhotoSearchURL = "https://api.pexels.com/v1/search"
	pexelsVideoSearchURL = "https://api.pexels.com/videos/search"
)

// Stock video duration window — clips shorter than a scene get looped, so
// prefer clips long enough to avoid obvious repeats but small enough to
// download quickly.
const (
	pexelsMinVideoSec = 5
	pexelsMaxVideoSec = 30
)

// PexelsImageProvider is the final stock photo fallback tier.
type PexelsImageProvider struct {
	apiKey string
	cache  *storage.MediaCache
	client *http.Client
}

func NewPexelsImageProvider(apiKey string, cache *storage.MediaCache, timeout time.Duration) *PexelsImageProvider {
	return &PexelsImageProvider{
		apiKey: apiKey,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *PexelsImageProvider) Name() string { return "pexels" }

func (p *PexelsImageProvider) Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error) {
	query := strings.Join(firstN(q.Keywords, 3), " ")
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", orientationOrPortrait(q.Orientation))
	params.Set("per_page", "1")
	params.Set("size", "large")

	var result struct {
		Photos []struct {
			Src struct {
				Large2x string `json:"large2x"`
				Large   string `json:"large"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := p.getJSON(ctx, pexelsPhotoSearchURL+"?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	if len(result.Photos) == 0 {
		log.Printf("[Pexels] No photos for: %s", query)
		return nil, nil
	}

	imageURL := result.Photos[0].Src.Large2x
	if imageURL == "" {
		imageURL = result.Photos[0].Src.Large
	}

	key := storage.Key(append(q.Keywords, q.TopicContext))
	path, err := p.cache.Download(ctx, imageURL, key, string(q.ContentType), ".jpg", nil)
	if err != nil {
		return nil, fmt.Errorf("pexels photo download failed: %w", err)
	}

	return &models.MediaAsset{
		Kind:     models.MediaKindImage,
		Path:     path,
		Provider: p.Name(),
		CacheKey: key,
	}, nil
}

func (p *PexelsImageProvider) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create pexels request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pexels search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("pexels returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode pexels response: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Pexels stock video tier
// ---------------------------------------------------------------------------

// PexelsVideoProvider searches the Pexels Videos API for short stock clips
// used as dynamic scene backgrounds. Tried before any image tier for
// content types that prefer motion.
type PexelsVideoProvider struct {
	apiKey string
	cache  *storage.MediaCache
	client *http.Client
}

func NewPexelsVideoProvider(apiKey string, cache *storage.MediaCache, timeout time.Duration) *PexelsVideoProvider {
	return &PexelsVideoProvider{
		apiKey: apiKey,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *PexelsVideoProvider) Name() string { return "pexels_video" }

type pexelsVideo struct {
	Duration   int `json:"duration"`
	VideoFiles []struct {
		Link    string `json:"link"`
		Quality string `json:"quality"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
	} `json:"video_files"`
}

func (p *PexelsVideoProvider) Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error) {
	// Motion backgrounds only for content types that want them.
	if !q.PreferVideo {
		return nil, nil
	}
	query := strings.Join(firstN(q.Keywords, 3), " ")
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", orientationOrPortrait(q.Orientation))
	params.Set("per_page", "5")
	params.Set("size", "medium")

	req, err := http.NewRequestWithContext(ctx, "GET", pexelsVideoSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pexels video request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels video search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("pexels video returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Videos []pexelsVideo `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pexels video response: %w", err)
	}

	best := selectBestVideo(result.Videos)
	if best == nil {
		log.Printf("[Pexels] No suitable video for: %s (duration window %d-%ds)", query, pexelsMinVideoSec, pexelsMaxVideoSec)
		return nil, nil
	}

	link := selectVideoFile(best, q.Orientation)
	if link == "" {
		return nil, nil
	}

	key := storage.Key(append(q.Keywords, q.TopicContext))
	path, err := p.cache.Download(ctx, link, key, string(q.ContentType), ".mp4", map[string]string{"Authorization": p.apiKey})
	if err != nil {
		return nil, fmt.Errorf("pexels video download failed: %w", err)
	}

	return &models.MediaAsset{
		Kind:     models.MediaKindVideo,
		Path:     path,
		Provider: p.Name(),
		CacheKey: key,
	}, nil
}

// selectBestVideo picks the first candidate inside the duration window,
// falling back to the shortest one outside it.
func selectBestVideo(videos []pexelsVideo) *pexelsVideo {
	var shortest *pexelsVideo
	for i := range videos {
		v := &videos[i]
		if v.Duration >= pexelsMinVideoSec && v.Duration <= pexelsMaxVideoSec {
			return v
		}
		if shortest == nil || v.Duration < shortest.Duration {
			shortest = v
		}
	}
	return shortest
}

// selectVideoFile prefers an HD rendition matching the requested
// orientation; any rendition beats none.
func selectVideoFile(v *pexelsVideo, orientation string) string {
	wantPortrait := orientation != "landscape"
	var fallback string
	for _, f := range v.VideoFiles {
		if f.Link == "" {
			continue
		}
		if fallback == "" {
			fallback = f.Link
		}
		isPortrait := f.Height > f.Width
		if isPortrait == wantPortrait && f.Quality == "hd" {
			return f.Link
		}
	}
	return fallback
}

func orientationOrPortrait(o string) string {
	if o == "landscape" {
		return "landscape"
	}
	return "portrait"
}
