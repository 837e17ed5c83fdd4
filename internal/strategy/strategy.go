// Package strategy decides whether a download batch is packaged in the
// requesting client or delegated to a server-side job.
package strategy

import (
	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/internal/models"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeServer Mode = "server"
)

type Selector struct {
	standardThreshold int
	hdThreshold       int
}

// NewSelector builds a selector from the per-tier thresholds. HD originals
// are far heavier than web-quality files, so the HD threshold sits lower.
func NewSelector(cfg config.DownloadConfig) *Selector {
	return &Selector{
		standardThreshold: cfg.StandardThreshold,
		hdThreshold:       cfg.HDThreshold,
	}
}

func (s *Selector) Decide(itemCount int, tier models.QualityTier) Mode {
	if itemCount >= s.threshold(tier) {
		return ModeServer
	}
	return ModeLocal
}

func (s *Selector) threshold(tier models.QualityTier) int {
	if tier == models.TierHD {
		return s.hdThreshold
	}
	return s.standardThreshold
}
