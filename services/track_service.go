// services/track_service.go
package services

import (
	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// TrackPoint 标记点在图层上的位置
type TrackPoint struct {
	WGS       orb.Point             `json:"wgs"`       // 输入 WGS84
	Layer     orb.Point             `json:"layer"`     // 图层基准下的经纬度
	Projected orb.Point             `json:"projected"` // 图层坐标系平面坐标
	Pixel     orb.Point             `json:"pixel"`     // 当前缩放级别全局像素
	Tile      *tile_proxy.TileCoord `json:"tile,omitempty"`
	Distance  float64               `json:"distance"` // 距上一个点（米）
}

// Tracker 将连续的 WGS84 标记点换算到会话图层，非并发安全
type Tracker struct {
	conv     coordconv.DatumConverter
	provider *tile_proxy.Provider
	zoom     int
	last     *orb.Point
}

func NewTracker(conv coordconv.DatumConverter, provider *tile_proxy.Provider, zoom int) *Tracker {
	return &Tracker{conv: conv, provider: provider, zoom: zoom}
}

// Locate 计算标记点位置
func (t *Tracker) Locate(wgs orb.Point) TrackPoint {
	lng, lat := t.conv.Convert(coordconv.WGS84, t.provider.Datum, wgs[0], wgs[1])
	ll := orb.Point{lng, lat}
	crs := t.provider.CoordinateSystem()

	tp := TrackPoint{
		WGS:       wgs,
		Layer:     ll,
		Projected: crs.Project(ll),
		Pixel:     coordconv.LatLngToPixel(crs, ll, float64(t.zoom)),
	}

	std := tile_proxy.TileAtLatLng(crs, ll, t.zoom)
	if addr, err := t.provider.TileAddress(std); err == nil {
		tp.Tile = &addr
	}

	if t.last != nil {
		tp.Distance = geo.Distance(*t.last, wgs)
	}
	t.last = &wgs
	return tp
}
