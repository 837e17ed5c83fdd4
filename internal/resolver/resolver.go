// Package resolver derives the source URL for an image at a requested
// quality tier, normalizing the provider-specific URL shapes found on raw
// asset records.
package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pixelbank/archive-service/internal/models"
)

// DefaultWebQualityMarker is the path segment the provider inserts into
// web-optimized variants of an original asset.
const DefaultWebQualityMarker = "/web/"

type Resolver struct {
	webQualityMarker string
}

func New(webQualityMarker string) *Resolver {
	if webQualityMarker == "" {
		webQualityMarker = DefaultWebQualityMarker
	}
	return &Resolver{webQualityMarker: webQualityMarker}
}

// Resolve returns the archive item for the given record and tier, or nil when
// no usable URL can be derived. Callers must treat nil as "drop this item",
// never as a batch-level failure.
func (r *Resolver) Resolve(img models.ImageRecord, tier models.QualityTier) *models.ArchiveItem {
	var candidate string
	switch tier {
	case models.TierHD:
		candidate = r.resolveHD(img)
	default:
		candidate = r.resolveStandard(img)
	}
	if !isValidURL(candidate) {
		return nil
	}
	return &models.ArchiveItem{
		SourceURL:   candidate,
		DisplayName: displayName(img),
		SourceID:    img.SourceID,
	}
}

// resolveHD prefers the explicit print-grade URL, then derives one by
// stripping the web-quality marker from the canonical URL, then falls back
// to whatever is available, lowest quality last.
func (r *Resolver) resolveHD(img models.ImageRecord) string {
	if img.HDURL != "" {
		return img.HDURL
	}
	if strings.Contains(img.SourceURL, r.webQualityMarker) {
		return strings.Replace(img.SourceURL, r.webQualityMarker, "/", 1)
	}
	for _, u := range []string{img.DownloadURL, img.SourceURL, img.ThumbnailURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// resolveStandard builds the provider's web-quality path from folder and
// title when possible, otherwise falls back to the canonical or thumbnail URL.
func (r *Resolver) resolveStandard(img models.ImageRecord) string {
	if img.DownloadURL != "" {
		return img.DownloadURL
	}
	if img.FolderName != "" && img.Title != "" {
		if base, err := url.Parse(img.SourceURL); err == nil && base.Scheme != "" && base.Host != "" {
			return fmt.Sprintf("%s://%s%s%s/%s.jpg",
				base.Scheme, base.Host,
				strings.TrimSuffix(r.webQualityMarker, "/")+"/",
				url.PathEscape(img.FolderName), url.PathEscape(img.Title))
		}
	}
	for _, u := range []string{img.SourceURL, img.ThumbnailURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

func displayName(img models.ImageRecord) string {
	if img.Title != "" {
		return img.Title
	}
	if img.SourceID != "" {
		return img.SourceID
	}
	return "image"
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
