package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

const (
	// DefaultImageCacheDir is used when IMAGE_CACHE_DIR is not set
	DefaultImageCacheDir = "cache/previews"

	SizeThumb  = "thumb"
	SizeMedium = "medium"

	qualityThumb  = 60
	qualityMedium = 75
	maxSizeThumb  = 300
	maxSizeMedium = 800

	maxPreviewBytes = 20 << 20
)

// ImageCache downloads preview images, optimizes them and keeps the result on disk
type ImageCache struct {
	dir        string
	httpClient *http.Client
}

// NewImageCache creates a new ImageCache rooted at dir
func NewImageCache(dir string, timeout time.Duration) *ImageCache {
	if dir == "" {
		dir = DefaultImageCacheDir
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &ImageCache{
		dir:        dir,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureDir creates the cache directory if it doesn't exist
func (c *ImageCache) EnsureDir() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// CachePath returns the cache file of an image URL at a given size
func (c *ImageCache) CachePath(imageURL, size string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return filepath.Join(c.dir, fmt.Sprintf("preview_%s_%s.jpg", hex.EncodeToString(sum[:12]), normalizeSize(size)))
}

// Thumbnail returns the optimized JPEG of imageURL, from the disk cache when present
func (c *ImageCache) Thumbnail(ctx context.Context, imageURL, size string) ([]byte, error) {
	size = normalizeSize(size)
	cachePath := c.CachePath(imageURL, size)
	if data, err := os.ReadFile(cachePath); err == nil {
		log.Printf("📦 ImageCache.Thumbnail: cache hit %s", cachePath)
		return data, nil
	}

	raw, err := c.Download(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	optimized, err := OptimizeImage(raw, size)
	if err != nil {
		return nil, err
	}
	if err := c.save(cachePath, optimized); err != nil {
		log.Printf("⚠️  ImageCache.Thumbnail: %v", err)
	}
	return optimized, nil
}

// Download fetches the raw bytes of an image
func (c *ImageCache) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (c *ImageCache) save(cachePath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Printf("✓ Image cached: %s", cachePath)
	return nil
}

func normalizeSize(size string) string {
	if size == SizeThumb {
		return SizeThumb
	}
	return SizeMedium
}

// OptimizeImage re-encodes an image as JPEG, shrunk to fit the box of the given size.
// size is "thumb" or "medium"; anything else is treated as medium.
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	switch size {
	case SizeThumb:
		maxDim, quality = maxSizeThumb, qualityThumb
	case SizeMedium:
	default:
		log.Printf("⚠️  Unknown size '%s', defaulting to medium", size)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		log.Printf("🔄 Resized preview: %dx%d -> %dx%d", bounds.Dx(), bounds.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
