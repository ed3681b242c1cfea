// tile_calc.go
package tile_proxy

import (
	"errors"
	"fmt"
	"math"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/paulmach/orb"
)

// ErrInvalidZoom 缩放级别超出 [1, MaxTileZoom]
var ErrInvalidZoom = errors.New("invalid zoom")

// MaxTileZoom 行列号计算支持的最大缩放级别
const MaxTileZoom = 30

// ZoomError 缩放级别配置错误
type ZoomError struct {
	Zoom int
}

func (e *ZoomError) Error() string {
	return fmt.Sprintf("zoom %d is not supported for tile mapping, want 1-%d", e.Zoom, MaxTileZoom)
}

func (e *ZoomError) Unwrap() error { return ErrInvalidZoom }

// TileCoord 瓦片坐标
type TileCoord struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

func (t TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// TileBounds 瓦片边界（WGS84经纬度）
type TileBounds struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// Bound 转为 orb.Bound
func (b TileBounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// baiduOffset 2^(z-1)
func baiduOffset(z int) (int, error) {
	if z < 1 || z > MaxTileZoom {
		return 0, &ZoomError{Zoom: z}
	}
	return 1 << uint(z-1), nil
}

// ToBaiduTile 标准瓦片（左上角原点，y 向下）转百度瓦片（中心原点，y 向上）
func ToBaiduTile(t TileCoord) (TileCoord, error) {
	offset, err := baiduOffset(t.Z)
	if err != nil {
		return TileCoord{}, err
	}
	return TileCoord{
		Z: t.Z,
		X: t.X - offset,
		Y: offset - t.Y - 1,
	}, nil
}

// ToStandardTile ToBaiduTile 的逆变换
func ToStandardTile(t TileCoord) (TileCoord, error) {
	offset, err := baiduOffset(t.Z)
	if err != nil {
		return TileCoord{}, err
	}
	return TileCoord{
		Z: t.Z,
		X: t.X + offset,
		Y: offset - t.Y - 1,
	}, nil
}

// TileAtLatLng 计算经纬度在地图控件瓦片网格中的标准瓦片坐标
func TileAtLatLng(crs coordconv.CRS, ll orb.Point, z int) TileCoord {
	px := coordconv.LatLngToPixel(crs, ll, float64(z))
	return TileCoord{
		Z: z,
		X: int(math.Floor(px[0] / coordconv.TileSize)),
		Y: int(math.Floor(px[1] / coordconv.TileSize)),
	}
}

// GetTileBoundsWGS84 获取瓦片的WGS84边界
func GetTileBoundsWGS84(z, x, y int) TileBounds {
	n := math.Pow(2, float64(z))

	minLon := float64(x)/n*360.0 - 180.0
	maxLon := float64(x+1)/n*360.0 - 180.0

	minLatRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y+1)/n)))
	maxLatRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))

	return TileBounds{
		MinLon: minLon,
		MinLat: minLatRad * 180.0 / math.Pi,
		MaxLon: maxLon,
		MaxLat: maxLatRad * 180.0 / math.Pi,
	}
}

// GetTileBoundsBaidu 获取标准瓦片在百度坐标系下覆盖的经纬度范围（BD09）
func GetTileBoundsBaidu(z, x, y int) TileBounds {
	crs := coordconv.BaiduCRS{}
	nw := coordconv.PixelToLatLng(crs, orb.Point{float64(x * coordconv.TileSize), float64(y * coordconv.TileSize)}, float64(z))
	se := coordconv.PixelToLatLng(crs, orb.Point{float64((x + 1) * coordconv.TileSize), float64((y + 1) * coordconv.TileSize)}, float64(z))
	return TileBounds{
		MinLon: nw[0],
		MinLat: se[1],
		MaxLon: se[0],
		MaxLat: nw[1],
	}
}

// LonLatToTileCoord 经纬度转瓦片坐标（Web Mercator），纬度截断到 ±85.0511
func LonLatToTileCoord(lon, lat float64, z int) TileCoord {
	n := math.Pow(2, float64(z))
	lat = math.Max(-coordconv.MaxMercatorLat, math.Min(coordconv.MaxMercatorLat, lat))

	x := int(math.Floor((lon + 180.0) / 360.0 * n))

	latRad := lat * math.Pi / 180.0
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	// 边界处理
	maxTile := int(n) - 1
	if x < 0 {
		x = 0
	} else if x > maxTile {
		x = maxTile
	}
	if y < 0 {
		y = 0
	} else if y > maxTile {
		y = maxTile
	}

	return TileCoord{Z: z, X: x, Y: y}
}
