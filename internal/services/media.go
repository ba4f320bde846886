package services

import (
	"context"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// MediaQuery describes one background search for a scene.
type MediaQuery struct {
	Keywords      []string
	TopicContext  string             // article/script title used to sharpen image searches
	Orientation   string             // "portrait" or "landscape"
	ContentType   models.ContentType // namespaces the cache and tunes query construction
	ProjectFolder string             // per-script folder checked for pre-assigned assets
	PreferVideo   bool               // lets the stock video tier participate
}

// MediaProvider is one tier of the background resolution chain. A provider
// returns (nil, nil) when it simply has no match; errors are treated the
// same way by the resolver — fall through to the next tier.
//
// New providers plug into the chain without touching call sites.
type MediaProvider interface {
	Name() string
	Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error)
}
