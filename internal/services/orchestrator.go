package services

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/storage"
)

// MediaOrchestrator walks an ordered provider chain to find one background
// asset per scene. Network tiers share the on-disk cache, so a repeated
// keyword set never re-downloads; concurrent requests for the same keywords
// are collapsed with singleflight so only one goroutine hits a provider.
//
// The chain never fails: when every provider misses or errors, the
// orchestrator returns a gradient descriptor the renderer synthesizes
// locally.
type MediaOrchestrator struct {
	providers []MediaProvider
	cache     *storage.MediaCache
	timeout   time.Duration
	group     singleflight.Group
}

func NewMediaOrchestrator(providers []MediaProvider, cache *storage.MediaCache, timeout time.Duration) *MediaOrchestrator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MediaOrchestrator{
		providers: providers,
		cache:     cache,
		timeout:   timeout,
	}
}

// FetchSceneMedia resolves one background for the given query. Entity
// grounding, when enabled by the profile, prepends the canonical entity
// name so searches for "quarterly results" become "Tesla quarterly results".
func (o *MediaOrchestrator) FetchSceneMedia(ctx context.Context, q MediaQuery, entityName string, groundEntity bool) (*models.MediaAsset, error) {
	if groundEntity && entityName != "" {
		q.Keywords = groundKeywords(q.Keywords, entityName)
	}

	key := storage.Key(append(q.Keywords, q.TopicContext))

	// Cache hit short-circuits the whole chain.
	if path, ok := o.cache.LookupAny(key, string(q.ContentType)); ok {
		log.Printf("[Orchestrator] Cache hit for %s", key)
		return &models.MediaAsset{
			Kind:     kindFromPath(path),
			Path:     path,
			Provider: "cache",
			CacheKey: key,
		}, nil
	}

	v, err, _ := o.group.Do(key, func() (interface{}, error) {
		return o.resolve(ctx, q), nil
	})
	if err != nil {
		// resolve never returns an error; keep the compiler honest.
		return o.gradientAsset(q), nil
	}
	return v.(*models.MediaAsset), nil
}

func (o *MediaOrchestrator) resolve(ctx context.Context, q MediaQuery) *models.MediaAsset {
	for _, p := range o.providers {
		tierCtx, cancel := context.WithTimeout(ctx, o.timeout)
		asset, err := p.Resolve(tierCtx, q)
		cancel()

		if err != nil {
			log.Printf("[Orchestrator] %s failed for %v: %v", p.Name(), q.Keywords, err)
			continue
		}
		if asset == nil {
			continue
		}
		log.Printf("[Orchestrator] %s resolved %v -> %s", p.Name(), q.Keywords, asset.Path)
		return asset
	}

	log.Printf("[Orchestrator] All providers missed for %v, using gradient", q.Keywords)
	return o.gradientAsset(q)
}

// gradientAsset is the terminal tier. It carries no file path; the scene
// renderer generates the gradient with a lavfi source.
func (o *MediaOrchestrator) gradientAsset(q MediaQuery) *models.MediaAsset {
	return &models.MediaAsset{
		Kind:     models.MediaKindGradient,
		Provider: "gradient",
	}
}

func groundKeywords(keywords []string, entityName string) []string {
	lower := strings.ToLower(entityName)
	for _, kw := range keywords {
		if strings.Contains(strings.ToLower(kw), lower) {
			return keywords
		}
	}
	grounded := make([]string, 0, len(keywords)+1)
	grounded = append(grounded, entityName)
	return append(grounded, keywords...)
}

func kindFromPath(path string) models.MediaKind {
	if strings.HasSuffix(path, ".mp4") || strings.HasSuffix(path, ".mov") {
		return models.MediaKindVideo
	}
	return models.MediaKindImage
}
