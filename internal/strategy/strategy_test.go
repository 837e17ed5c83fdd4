package strategy

import (
	"testing"

	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func newSelector() *Selector {
	return NewSelector(config.DownloadConfig{
		StandardThreshold: 10,
		HDThreshold:       3,
	})
}

func TestDecideStandardThresholdBoundary(t *testing.T) {
	s := newSelector()
	assert.Equal(t, ModeLocal, s.Decide(9, models.TierStandard))
	assert.Equal(t, ModeServer, s.Decide(10, models.TierStandard))
	assert.Equal(t, ModeServer, s.Decide(50, models.TierStandard))
}

func TestDecideHDThresholdBoundary(t *testing.T) {
	s := newSelector()
	assert.Equal(t, ModeLocal, s.Decide(2, models.TierHD))
	assert.Equal(t, ModeServer, s.Decide(3, models.TierHD))
}

func TestDecideSingleItemStaysLocal(t *testing.T) {
	s := newSelector()
	assert.Equal(t, ModeLocal, s.Decide(1, models.TierStandard))
	assert.Equal(t, ModeLocal, s.Decide(1, models.TierHD))
}
