package coordconv

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

const (
	// TileSize 瓦片像素大小
	TileSize = 256

	// BaiduScaleExp 百度平面坐标到像素的参考指数，z = -(18 + 8)
	BaiduScaleExp = -18 - 8

	// BaiduMaxExtent 对外声明的坐标范围 2^25，比真实数据范围宽松
	BaiduMaxExtent = 33554432.0

	// EarthRadius Web Mercator 球半径
	EarthRadius = 6378137.0

	// MaxMercatorLat Web Mercator 纬度上限
	MaxMercatorLat = 85.0511287798
)

// CRS 坐标参考系统：投影 + 线性像素变换 + 范围
type CRS interface {
	Code() string
	Kind() string
	// Project 经纬度 [lng, lat] 转投影平面坐标
	Project(ll orb.Point) orb.Point
	// Unproject 投影平面坐标转经纬度 [lng, lat]
	Unproject(p orb.Point) orb.Point
	Transformation() Transformation
	Bounds() orb.Bound
}

// Transformation 投影平面到像素的线性变换
// pixel = scale * (A*x + B, C*y + D)
type Transformation struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
}

// Transform 投影坐标转像素坐标
func (t Transformation) Transform(p orb.Point, scale float64) orb.Point {
	return orb.Point{
		scale * (t.A*p[0] + t.B),
		scale * (t.C*p[1] + t.D),
	}
}

// Untransform 像素坐标转投影坐标
func (t Transformation) Untransform(p orb.Point, scale float64) orb.Point {
	return orb.Point{
		(p[0]/scale - t.B) / t.A,
		(p[1]/scale - t.D) / t.C,
	}
}

// Scale 缩放级别对应的像素比例
func Scale(zoom float64) float64 {
	return TileSize * math.Pow(2, zoom)
}

// LatLngToPixel 经纬度转全局像素坐标
func LatLngToPixel(crs CRS, ll orb.Point, zoom float64) orb.Point {
	return crs.Transformation().Transform(crs.Project(ll), Scale(zoom))
}

// PixelToLatLng 全局像素坐标转经纬度
func PixelToLatLng(crs CRS, px orb.Point, zoom float64) orb.Point {
	return crs.Unproject(crs.Transformation().Untransform(px, Scale(zoom)))
}

// BaiduCRS 百度地图使用的坐标系
type BaiduCRS struct{}

func (BaiduCRS) Code() string { return "EPSG:3857" }

func (BaiduCRS) Kind() string { return KindBaidu }

func (BaiduCRS) Project(ll orb.Point) orb.Point { return ForwardPoint(ll) }

func (BaiduCRS) Unproject(p orb.Point) orb.Point { return InversePoint(p) }

func (BaiduCRS) Transformation() Transformation {
	scale := math.Pow(2, BaiduScaleExp)
	return Transformation{A: scale, B: 0.5, C: -scale, D: 0.5}
}

// Bounds 对外声明的宽松范围 [-2^25, 2^25]
func (BaiduCRS) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-BaiduMaxExtent, -BaiduMaxExtent},
		Max: orb.Point{BaiduMaxExtent, BaiduMaxExtent},
	}
}

// DataExtent 经纬度有效输入对应的真实平面范围
// 来自 lngLatToPoint(±180, ±90)，纬度分别落在 -71.988531 与 74.000022
func (BaiduCRS) DataExtent() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-20037726.37, -11708041.66},
		Max: orb.Point{20037726.37, 12474104.17},
	}
}

var (
	lonLatToMercator = wgs84.LonLat().To(wgs84.WebMercator())
	mercatorToLonLat = wgs84.WebMercator().To(wgs84.LonLat())
)

// WebMercatorCRS 标准 EPSG:3857，WGS84 和 GCJ02 瓦片源共用
type WebMercatorCRS struct{}

func (WebMercatorCRS) Code() string { return "EPSG:3857" }

func (WebMercatorCRS) Kind() string { return KindEPSG3857 }

func (WebMercatorCRS) Project(ll orb.Point) orb.Point {
	lat := clamp(ll[1], -MaxMercatorLat, MaxMercatorLat)
	x, y, _ := lonLatToMercator(ll[0], lat, 0)
	return orb.Point{x, y}
}

func (WebMercatorCRS) Unproject(p orb.Point) orb.Point {
	lng, lat, _ := mercatorToLonLat(p[0], p[1], 0)
	return orb.Point{lng, lat}
}

func (WebMercatorCRS) Transformation() Transformation {
	scale := 0.5 / (math.Pi * EarthRadius)
	return Transformation{A: scale, B: 0.5, C: -scale, D: 0.5}
}

func (WebMercatorCRS) Bounds() orb.Bound {
	d := EarthRadius * math.Pi
	return orb.Bound{
		Min: orb.Point{-d, -d},
		Max: orb.Point{d, d},
	}
}

const (
	KindBaidu    = "baidu"
	KindEPSG3857 = "epsg3857"
)

// CRSByKind 按类型取坐标系
func CRSByKind(kind string) (CRS, bool) {
	switch kind {
	case KindBaidu:
		return BaiduCRS{}, true
	case KindEPSG3857:
		return WebMercatorCRS{}, true
	}
	return nil, false
}
