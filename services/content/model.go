package content

import (
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/fallback"
)

const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

type HomePayload struct {
	Banners    []fallback.Banner `json:"banners"`
	Products   []catalog.Product `json:"products"`
	Total      int               `json:"total"`
	Categories []string          `json:"categories"`
	Source     string            `json:"source"`
}
