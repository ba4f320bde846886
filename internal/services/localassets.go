package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// LocalAssetProvider serves media dropped into a script's project folder
// ahead of time. It is the first tier in the chain so editors can pin an
// exact background for a scene without touching any network provider.
//
// Matching is by keyword: a file named after any of the scene's keywords
// (case-insensitive, spaces collapsed to underscores) wins.
type LocalAssetProvider struct {
	assetsDir string
}

func NewLocalAssetProvider(assetsDir string) *LocalAssetProvider {
	return &LocalAssetProvider{assetsDir: assetsDir}
}

func (p *LocalAssetProvider) Name() string { return "local" }

var localImageExts = []string{".jpg", ".jpeg", ".png", ".webp"}
var localVideoExts = []string{".mp4", ".mov"}

func (p *LocalAssetProvider) Resolve(ctx context.Context, q MediaQuery) (*models.MediaAsset, error) {
	if q.ProjectFolder == "" {
		return nil, nil
	}
	dir := filepath.Join(p.assetsDir, q.ProjectFolder)
	if _, err := os.Stat(dir); err != nil {
		return nil, nil
	}

	for _, kw := range q.Keywords {
		base := normalizeAssetName(kw)
		if base == "" {
			continue
		}
		for _, ext := range localVideoExts {
			path := filepath.Join(dir, base+ext)
			if fileExists(path) {
				log.Printf("[LocalAssets] Using pre-assigned video: %s", path)
				return &models.MediaAsset{Kind: models.MediaKindVideo, Path: path, Provider: p.Name()}, nil
			}
		}
		for _, ext := range localImageExts {
			path := filepath.Join(dir, base+ext)
			if fileExists(path) {
				log.Printf("[LocalAssets] Using pre-assigned image: %s", path)
				return &models.MediaAsset{Kind: models.MediaKindImage, Path: path, Provider: p.Name()}, nil
			}
		}
	}
	return nil, nil
}

func normalizeAssetName(kw string) string {
	kw = strings.ToLower(strings.TrimSpace(kw))
	return strings.ReplaceAll(kw, " ", "_")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
