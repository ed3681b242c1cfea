package coordconv

import (
	"fmt"
	"math"
)

// Datum 大地基准（非投影）
type Datum string

const (
	WGS84 Datum = "wgs84" // GPS / 天地图 / Mapbox
	GCJ02 Datum = "gcj02" // 火星坐标系，高德 / GeoQ / 谷歌中国
	BD09  Datum = "bd09"  // 百度经纬度

	// BD09MC 百度墨卡托平面坐标，输入输出为 (x, y)
	BD09MC Datum = "bd09mc"
)

// ParseDatum 解析基准名称，兼容 0/1/2 的旧写法
func ParseDatum(s string) (Datum, error) {
	switch s {
	case "wgs84", "wgs", "WGS84", "0":
		return WGS84, nil
	case "gcj02", "gcj", "GCJ02", "1":
		return GCJ02, nil
	case "bd09", "bd", "BD09", "2":
		return BD09, nil
	case "bd09mc", "BD09MC", "mc":
		return BD09MC, nil
	}
	return "", fmt.Errorf("unknown datum %q", s)
}

// DatumConverter 基准偏移转换，输入输出均为 (lng, lat)，BD09MC 为 (x, y)
type DatumConverter interface {
	Convert(from, to Datum, lng, lat float64) (float64, float64)
}

// OffsetConverter 国内偏移算法的默认实现，经纬度之间以 GCJ02 中转
type OffsetConverter struct {
	xPi float64
	a   float64 // 克拉索夫斯基椭球长半轴
	ee  float64 // 第一偏心率平方
}

// NewOffsetConverter 初始化偏移转换对象
func NewOffsetConverter() *OffsetConverter {
	return &OffsetConverter{
		xPi: math.Pi * 3000.0 / 180.0,
		a:   6378245.0,
		ee:  0.00669342162296594323,
	}
}

// Convert 任意两个基准之间转换，相同基准原样返回
func (c *OffsetConverter) Convert(from, to Datum, lng, lat float64) (float64, float64) {
	if from == to {
		return lng, lat
	}
	if from == BD09MC {
		lng, lat = Inverse(lng, lat)
		from = BD09
	}
	toMC := to == BD09MC
	if toMC {
		to = BD09
	}

	if from != to {
		lng, lat = c.toGCJ02(from, lng, lat)
		lng, lat = c.fromGCJ02(to, lng, lat)
	}
	if toMC {
		return Forward(lng, lat)
	}
	return lng, lat
}

func (c *OffsetConverter) toGCJ02(from Datum, lng, lat float64) (float64, float64) {
	switch from {
	case GCJ02:
		return lng, lat
	case BD09:
		return c.BD09ToGCJ02(lng, lat)
	}
	return c.WGS84ToGCJ02(lng, lat)
}

func (c *OffsetConverter) fromGCJ02(to Datum, lng, lat float64) (float64, float64) {
	switch to {
	case GCJ02:
		return lng, lat
	case BD09:
		return c.GCJ02ToBD09(lng, lat)
	}
	return c.GCJ02ToWGS84(lng, lat)
}

// GCJ02ToBD09 火星坐标系(GCJ-02)转百度坐标系(BD-09)
func (c *OffsetConverter) GCJ02ToBD09(lng, lat float64) (float64, float64) {
	r := math.Hypot(lng, lat) + 0.00002*math.Sin(lat*c.xPi)
	theta := math.Atan2(lat, lng) + 0.000003*math.Cos(lng*c.xPi)
	return r*math.Cos(theta) + 0.0065, r*math.Sin(theta) + 0.006
}

// BD09ToGCJ02 百度坐标系(BD-09)转火星坐标系(GCJ-02)
func (c *OffsetConverter) BD09ToGCJ02(lng, lat float64) (float64, float64) {
	x, y := lng-0.0065, lat-0.006
	r := math.Hypot(x, y) - 0.00002*math.Sin(y*c.xPi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*c.xPi)
	return r * math.Cos(theta), r * math.Sin(theta)
}

// WGS84ToGCJ02 WGS84转GCJ02，国外坐标不偏移
func (c *OffsetConverter) WGS84ToGCJ02(lng, lat float64) (float64, float64) {
	if OutOfChina(lng, lat) {
		return lng, lat
	}
	dlng, dlat := c.offset(lng, lat)
	return lng + dlng, lat + dlat
}

// GCJ02ToWGS84 二分逼近，最多 30 次
func (c *OffsetConverter) GCJ02ToWGS84(lng, lat float64) (float64, float64) {
	if OutOfChina(lng, lat) {
		return lng, lat
	}

	const (
		window    = 0.01
		threshold = 1e-9
	)
	lo := [2]float64{lng - window, lat - window}
	hi := [2]float64{lng + window, lat + window}

	for i := 0; i < 30; i++ {
		mid := [2]float64{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2}
		gLng, gLat := c.WGS84ToGCJ02(mid[0], mid[1])
		diff := [2]float64{gLng - lng, gLat - lat}

		if math.Abs(diff[0]) < threshold && math.Abs(diff[1]) < threshold {
			return mid[0], mid[1]
		}
		for k := range diff {
			if diff[k] > 0 {
				hi[k] = mid[k]
			} else {
				lo[k] = mid[k]
			}
		}
	}
	return (lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2
}

// offset GCJ02 相对 WGS84 的偏移量（度）
func (c *OffsetConverter) offset(lng, lat float64) (float64, float64) {
	x, y := lng-105.0, lat-35.0
	shared := 20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)

	dx := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x)) +
		(shared+harmonic(x, 150.0, 300.0))*2.0/3.0
	dy := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x)) +
		(shared+harmonic(y, 160.0, 320.0))*2.0/3.0

	rad := lat / 180.0 * math.Pi
	sin := math.Sin(rad)
	magic := 1 - c.ee*sin*sin
	sqrtMagic := math.Sqrt(magic)

	dlng := dx * 180.0 / (c.a / sqrtMagic * math.Cos(rad) * math.Pi)
	dlat := dy * 180.0 / (c.a * (1 - c.ee) / (magic * sqrtMagic) * math.Pi)
	return dlng, dlat
}

// harmonic 周期 2、6、24、60 的正弦项
func harmonic(v, a12, a30 float64) float64 {
	return 20.0*math.Sin(v*math.Pi) + 40.0*math.Sin(v/3.0*math.Pi) +
		a12*math.Sin(v/12.0*math.Pi) + a30*math.Sin(v/30.0*math.Pi)
}

// OutOfChina 判断是否在国内
func OutOfChina(lng, lat float64) bool {
	return !(lng > 73.66 && lng < 135.05 && lat > 3.86 && lat < 53.55)
}
