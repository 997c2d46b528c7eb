package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"listing-studio/models"
)

// PreviewArchiveService downloads the displayed previews, optimizes them and uploads
// them to the configured archive store
type PreviewArchiveService struct {
	images *ImageCache
	store  PreviewStore
}

// NewPreviewArchiveService creates a new PreviewArchiveService
func NewPreviewArchiveService(images *ImageCache, store PreviewStore) *PreviewArchiveService {
	return &PreviewArchiveService{images: images, store: store}
}

// Archive uploads every preview once. Failures are collected per file and never stop the run.
func (s *PreviewArchiveService) Archive(ctx context.Context, prefix string, previews []string) models.ArchiveReport {
	report := models.ArchiveReport{
		Store:  s.store.Name(),
		Total:  len(previews),
		Files:  []models.ArchivedFile{},
		Errors: []string{},
	}
	log.Printf("📥 PreviewArchive: archiving %d previews to %s", len(previews), report.Store)

	usedNames := map[string]bool{}
	seenURLs := map[string]bool{}
	for i, previewURL := range previews {
		if seenURLs[previewURL] {
			log.Printf("⏭️  Skipping %s (duplicate preview)", previewURL)
			report.Skipped++
			continue
		}
		seenURLs[previewURL] = true

		name := ArchiveFileName(prefix, i, previewURL)
		if usedNames[name] {
			name = fmt.Sprintf("%s_%d.jpg", strings.TrimSuffix(name, ".jpg"), i+1)
		}
		usedNames[name] = true

		raw, err := s.images.Download(ctx, previewURL)
		if err != nil {
			report.Errors = append(report.Errors, s.fail("download", name, err))
			continue
		}
		optimized, err := OptimizeImage(raw, SizeMedium)
		if err != nil {
			report.Errors = append(report.Errors, s.fail("optimize", name, err))
			continue
		}
		location, err := s.store.Upload(ctx, name, optimized)
		if err != nil {
			report.Errors = append(report.Errors, s.fail("upload", name, err))
			continue
		}

		report.Files = append(report.Files, models.ArchivedFile{Source: previewURL, Name: name, Location: location})
		report.Uploaded++
	}

	log.Printf("🎉 PreviewArchive completed: %d uploaded, %d skipped, %d failed out of %d previews",
		report.Uploaded, report.Skipped, len(report.Errors), report.Total)
	return report
}

func (s *PreviewArchiveService) fail(stage, name string, err error) string {
	msg := fmt.Sprintf("Failed to %s preview %s: %v", stage, name, err)
	log.Printf("❌ %s", msg)
	return msg
}

// ArchiveFileName builds the archive name of the index-th preview: prefix, position and the
// URL's base name, always with a .jpg extension since archived previews are re-encoded as JPEG
func ArchiveFileName(prefix string, index int, previewURL string) string {
	base := "preview"
	if u, err := url.Parse(previewURL); err == nil {
		if b := path.Base(u.Path); b != "" && b != "." && b != "/" {
			base = strings.TrimSuffix(b, path.Ext(b))
		}
	}
	if prefix == "" {
		return fmt.Sprintf("%02d_%s.jpg", index+1, base)
	}
	return fmt.Sprintf("%s_%02d_%s.jpg", prefix, index+1, base)
}
