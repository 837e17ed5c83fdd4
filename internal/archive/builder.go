// Package archive packs fetched image bytes into a single ZIP suitable for
// one-click delivery.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pixelbank/archive-service/internal/models"
)

// ErrEmptyArchive is returned when zero items survived fetching. A zero-entry
// ZIP is never produced.
var ErrEmptyArchive = errors.New("no items to pack into archive")

const entryDir = "images/"

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

type Item struct {
	Name  string
	Bytes []byte
}

type Result struct {
	ArchiveBytes  []byte
	IncludedCount int
}

// Build packs the items under a flat images/ directory. Compression favors
// bounded CPU over smallest output, so archives stay buildable inside a
// constrained runtime.
func Build(items []Item) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrEmptyArchive
	}

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	seen := make(map[string]int, len(items))
	for _, item := range items {
		name := entryName(item.Name, seen)
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		if _, err := f.Write(item.Bytes); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &Result{
		ArchiveBytes:  buf.Bytes(),
		IncludedCount: len(items),
	}, nil
}

// entryName sanitizes a display name to a filesystem-safe token and dedupes
// collisions inside the archive.
func entryName(raw string, seen map[string]int) string {
	base := nameSanitizer.ReplaceAllString(strings.TrimSuffix(raw, ".jpg"), "")
	if base == "" {
		base = "image"
	}
	n := seen[base]
	seen[base] = n + 1
	if n > 0 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	return entryDir + base + ".jpg"
}

// FileName produces the delivery name of an archive, e.g.
// hd-image_20260901_1a2b3c4d.zip.
func FileName(tier models.QualityTier, ts time.Time, shortID string) string {
	prefix := ""
	if tier == models.TierHD {
		prefix = "hd-"
	}
	return fmt.Sprintf("%simage_%s_%s.zip", prefix, ts.Format("20060102"), shortID)
}
