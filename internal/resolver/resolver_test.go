package resolver

import (
	"testing"

	"github.com/pixelbank/archive-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHDPrefersExplicitURL(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL: "https://cdn.example.com/web/projects/shot.jpg",
		HDURL:     "https://cdn.example.com/originals/shot.jpg",
		Title:     "shot",
	}, models.TierHD)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/originals/shot.jpg", item.SourceURL)
}

func TestResolveHDStripsWebQualityMarker(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL: "https://cdn.example.com/web/projects/shot.jpg",
		Title:     "shot",
	}, models.TierHD)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/projects/shot.jpg", item.SourceURL)
}

func TestResolveHDFallsBackWithoutMarker(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL: "https://cdn.example.com/projects/shot.jpg",
		Title:     "shot",
	}, models.TierHD)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/projects/shot.jpg", item.SourceURL)
}

func TestResolveStandardBuildsConventionPath(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL:  "https://cdn.example.com/originals/shot.jpg",
		FolderName: "spring2026",
		Title:      "shot01",
	}, models.TierStandard)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/web/spring2026/shot01.jpg", item.SourceURL)
}

func TestResolveStandardPrefersDownloadURL(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL:   "https://cdn.example.com/originals/shot.jpg",
		DownloadURL: "https://cdn.example.com/dl/shot.jpg",
		FolderName:  "spring2026",
		Title:       "shot01",
	}, models.TierStandard)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/dl/shot.jpg", item.SourceURL)
}

func TestResolveStandardFallsBackToThumbnail(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		ThumbnailURL: "https://cdn.example.com/thumbs/shot.jpg",
		Title:        "shot01",
	}, models.TierStandard)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/thumbs/shot.jpg", item.SourceURL)
}

func TestResolveReturnsNilWithoutCandidates(t *testing.T) {
	r := New("")
	assert.Nil(t, r.Resolve(models.ImageRecord{Title: "shot"}, models.TierHD))
	assert.Nil(t, r.Resolve(models.ImageRecord{Title: "shot"}, models.TierStandard))
}

func TestResolveRejectsInvalidURLs(t *testing.T) {
	r := New("")
	assert.Nil(t, r.Resolve(models.ImageRecord{SourceURL: "not a url"}, models.TierHD))
	assert.Nil(t, r.Resolve(models.ImageRecord{SourceURL: "ftp://host/file.jpg"}, models.TierHD))
}

func TestResolveDisplayNameFallsBackToSourceID(t *testing.T) {
	r := New("")
	item := r.Resolve(models.ImageRecord{
		SourceURL: "https://cdn.example.com/a.jpg",
		SourceID:  "img-42",
	}, models.TierStandard)

	require.NotNil(t, item)
	assert.Equal(t, "img-42", item.DisplayName)
}

func TestResolveCustomMarker(t *testing.T) {
	r := New("/preview/")
	item := r.Resolve(models.ImageRecord{
		SourceURL: "https://cdn.example.com/preview/shot.jpg",
	}, models.TierHD)

	require.NotNil(t, item)
	assert.Equal(t, "https://cdn.example.com/shot.jpg", item.SourceURL)
}
