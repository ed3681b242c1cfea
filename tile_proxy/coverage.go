package tile_proxy

import (
	"errors"
	"fmt"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/paulmach/orb"
)

// ErrTooManyTiles 覆盖范围的瓦片数超过上限
var ErrTooManyTiles = errors.New("too many tiles")

// MaxCoverTiles 单次请求的瓦片数上限
const MaxCoverTiles = 4096

// CoveredTile 覆盖范围内的一张瓦片
type CoveredTile struct {
	Standard TileCoord `json:"standard"`
	Address  TileCoord `json:"address"`
	URL      string    `json:"url"`
}

// CoverBound 计算范围在 zoom 级覆盖的标准瓦片，b 为瓦片源基准下的经纬度
// limit <= 0 时使用 MaxCoverTiles
func (p *Provider) CoverBound(b orb.Bound, zoom, limit int) ([]TileCoord, error) {
	if zoom < p.MinZoom || (p.MaxZoom > 0 && zoom > p.MaxZoom) {
		return nil, fmt.Errorf("%w: %s supports %d-%d, got %d", ErrZoomOutOfRange, p.Name, p.MinZoom, p.MaxZoom, zoom)
	}
	if zoom < 0 || zoom > MaxTileZoom {
		return nil, &ZoomError{Zoom: zoom}
	}
	if limit <= 0 {
		limit = MaxCoverTiles
	}

	var minTile, maxTile TileCoord
	if p.IsBaidu() {
		crs := coordconv.BaiduCRS{}
		minTile = TileAtLatLng(crs, orb.Point{b.Min[0], b.Max[1]}, zoom) // 左上角
		maxTile = TileAtLatLng(crs, orb.Point{b.Max[0], b.Min[1]}, zoom) // 右下角
	} else {
		minTile = LonLatToTileCoord(b.Min[0], b.Max[1], zoom)
		maxTile = LonLatToTileCoord(b.Max[0], b.Min[1], zoom)
	}

	w := int64(maxTile.X) - int64(minTile.X) + 1
	h := int64(maxTile.Y) - int64(minTile.Y) + 1
	if w <= 0 || h <= 0 {
		return []TileCoord{}, nil
	}
	// zoom <= 30 时 w、h 不超过 2^31，乘积不会溢出
	if n := w * h; n > int64(limit) {
		return nil, fmt.Errorf("%w: %d tiles at zoom %d, limit %d", ErrTooManyTiles, n, zoom, limit)
	}

	tiles := make([]TileCoord, 0, w*h)
	for x := minTile.X; x <= maxTile.X; x++ {
		for y := minTile.Y; y <= maxTile.Y; y++ {
			tiles = append(tiles, TileCoord{Z: zoom, X: x, Y: y})
		}
	}
	return tiles, nil
}

// Cover 计算覆盖瓦片并生成瓦片源行列号与URL
func (p *Provider) Cover(b orb.Bound, zoom, limit int) ([]CoveredTile, error) {
	tiles, err := p.CoverBound(b, zoom, limit)
	if err != nil {
		return nil, err
	}

	out := make([]CoveredTile, 0, len(tiles))
	for _, std := range tiles {
		addr, err := p.TileAddress(std)
		if err != nil {
			return nil, err
		}
		url, err := p.expand(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, CoveredTile{Standard: std, Address: addr, URL: url})
	}
	return out, nil
}
