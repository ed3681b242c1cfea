// provider.go
package tile_proxy

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/GrainArc/MapOverlay/coordconv"
)

var (
	ErrZoomOutOfRange = errors.New("zoom out of range")
	ErrMissingOption  = errors.New("missing template option")
)

// Provider 瓦片源描述
type Provider struct {
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Datum       coordconv.Datum   `json:"datum"`
	CRS         string            `json:"crs"` // baidu / epsg3857
	URLTemplate string            `json:"urlTemplate"`
	Subdomains  string            `json:"subdomains"`
	MinZoom     int               `json:"minZoom"`
	MaxZoom     int               `json:"maxZoom"`
	Options     map[string]string `json:"options,omitempty"`
	Attribution string            `json:"attribution,omitempty"`
}

// IsBaidu 是否使用百度瓦片行列号
func (p *Provider) IsBaidu() bool {
	return p.CRS == coordconv.KindBaidu
}

// CoordinateSystem 瓦片源对应的坐标系
func (p *Provider) CoordinateSystem() coordconv.CRS {
	if crs, ok := coordconv.CRSByKind(p.CRS); ok {
		return crs
	}
	return coordconv.WebMercatorCRS{}
}

// TileAddress 地图控件的标准瓦片坐标转瓦片源自身的行列号
func (p *Provider) TileAddress(std TileCoord) (TileCoord, error) {
	if std.Z < p.MinZoom || (p.MaxZoom > 0 && std.Z > p.MaxZoom) {
		return TileCoord{}, fmt.Errorf("%w: %s supports %d-%d, got %d", ErrZoomOutOfRange, p.Name, p.MinZoom, p.MaxZoom, std.Z)
	}
	if p.IsBaidu() {
		return ToBaiduTile(std)
	}
	return std, nil
}

// TileURL 构建瓦片URL
func (p *Provider) TileURL(std TileCoord) (string, error) {
	addr, err := p.TileAddress(std)
	if err != nil {
		return "", err
	}
	return p.expand(addr)
}

var placeholder = regexp.MustCompile(`\{ *([\w_ -]+) *\}`)

func (p *Provider) expand(t TileCoord) (string, error) {
	values := map[string]string{
		"s":  p.subdomain(t),
		"x":  strconv.Itoa(t.X),
		"y":  strconv.Itoa(t.Y),
		"z":  strconv.Itoa(t.Z),
		"-y": strconv.Itoa((1 << uint(t.Z)) - 1 - t.Y), // TMS格式
	}

	var missing []string
	url := placeholder.ReplaceAllStringFunc(p.URLTemplate, func(m string) string {
		key := strings.TrimSpace(m[1 : len(m)-1])
		if v, ok := values[key]; ok {
			return v
		}
		if v, ok := p.Options[key]; ok && v != "" {
			return v
		}
		missing = append(missing, key)
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s needs %s", ErrMissingOption, p.Name, strings.Join(missing, ","))
	}
	return url, nil
}

// subdomain 按 |x+y| 取模轮换子域名
func (p *Provider) subdomain(t TileCoord) string {
	if p.Subdomains == "" {
		return ""
	}
	i := t.X + t.Y
	if i < 0 {
		i = -i
	}
	return string(p.Subdomains[i%len(p.Subdomains)])
}

// ClassifyLayer 按图层名前缀判断基准
func ClassifyLayer(name string) (coordconv.Datum, bool) {
	switch {
	case strings.HasPrefix(name, "mapbox"), strings.HasPrefix(name, "tianditu"):
		return coordconv.WGS84, true
	case strings.HasPrefix(name, "baidu"):
		return coordconv.BD09, true
	case strings.HasPrefix(name, "gaode"), strings.HasPrefix(name, "geoq"), strings.HasPrefix(name, "googlecn"):
		return coordconv.GCJ02, true
	}
	return "", false
}

const baiduAttribution = "© 2016 Baidu - GS(2016)1069号 - Data © 长地万方 & NavInfo & OpenStreetMap & HERE"

// Catalog 内置瓦片源，mapbox 与天地图的密钥通过 options 传入
// options: mapboxId、mapboxSatId、mapboxToken、tiandituKey
func Catalog(opts map[string]string) []Provider {
	get := func(k string) string { return opts[k] }
	getOr := func(k, def string) string {
		if v := opts[k]; v != "" {
			return v
		}
		return def
	}

	return []Provider{
		{
			Name: "mapbox", Title: "Mapbox", Datum: coordconv.WGS84, CRS: coordconv.KindEPSG3857,
			URLTemplate: "https://api.tiles.mapbox.com/v4/{id}/{z}/{x}/{y}.png?access_token={accessToken}",
			MaxZoom:     23,
			Options:     map[string]string{"id": getOr("mapboxId", "indooratlas.k4e5o551"), "accessToken": get("mapboxToken")},
		},
		{
			Name: "mapboxsat", Title: "Mapbox 影像", Datum: coordconv.WGS84, CRS: coordconv.KindEPSG3857,
			URLTemplate: "https://api.tiles.mapbox.com/v4/{id}/{z}/{x}/{y}.png?access_token={accessToken}",
			MaxZoom:     23,
			Options:     map[string]string{"id": getOr("mapboxSatId", "indooratlas.map-uhlzu7ye"), "accessToken": get("mapboxToken")},
		},
		{
			Name: "baidu", Title: "百度地图", Datum: coordconv.BD09, CRS: coordconv.KindBaidu,
			URLTemplate: "http://online{s}.map.bdimg.com/tile/?qt=tile&x={x}&y={y}&z={z}&styles=pl",
			Subdomains:  "0123456789", MinZoom: 3, MaxZoom: 19, Attribution: baiduAttribution,
		},
		{
			Name: "baidusat", Title: "百度影像", Datum: coordconv.BD09, CRS: coordconv.KindBaidu,
			URLTemplate: "http://shangetu{s}.map.bdimg.com/it/u=x={x};y={y};z={z};v=009;type=sate&fm=46",
			Subdomains:  "0123456789", MinZoom: 3, MaxZoom: 19, Attribution: baiduAttribution,
		},
		{
			Name: "baidusatroad", Title: "百度影像注记", Datum: coordconv.BD09, CRS: coordconv.KindBaidu,
			URLTemplate: "http://online{s}.map.bdimg.com/tile/?qt=tile&x={x}&y={y}&z={z}&styles=sl",
			Subdomains:  "0123456789", MinZoom: 3, MaxZoom: 19, Attribution: baiduAttribution,
		},
		{
			Name: "tianditu", Title: "天地图", Datum: coordconv.WGS84, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://t{s}.tianditu.gov.cn/DataServer?T=vec_w&X={x}&Y={y}&L={z}&tk={key}",
			Subdomains:  "01234567", MinZoom: 1, MaxZoom: 18,
			Options: map[string]string{"key": get("tiandituKey")},
		},
		{
			Name: "tianditusat", Title: "天地图影像", Datum: coordconv.WGS84, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://t{s}.tianditu.gov.cn/DataServer?T=img_w&X={x}&Y={y}&L={z}&tk={key}",
			Subdomains:  "01234567", MinZoom: 1, MaxZoom: 18,
			Options: map[string]string{"key": get("tiandituKey")},
		},
		{
			Name: "gaode", Title: "高德地图", Datum: coordconv.GCJ02, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://webrd0{s}.is.autonavi.com/appmaptile?lang=zh_cn&size=1&scale=1&style=8&x={x}&y={y}&z={z}",
			Subdomains:  "1234", MinZoom: 1, MaxZoom: 18,
		},
		{
			Name: "gaodesat", Title: "高德影像", Datum: coordconv.GCJ02, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://webst0{s}.is.autonavi.com/appmaptile?style=6&x={x}&y={y}&z={z}",
			Subdomains:  "1234", MinZoom: 1, MaxZoom: 18,
		},
		{
			Name: "geoq", Title: "GeoQ 彩色", Datum: coordconv.GCJ02, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://map.geoq.cn/ArcGIS/rest/services/ChinaOnlineCommunity/MapServer/tile/{z}/{y}/{x}",
			MinZoom:     1, MaxZoom: 16,
		},
		{
			Name: "googlecn", Title: "谷歌中国", Datum: coordconv.GCJ02, CRS: coordconv.KindEPSG3857,
			URLTemplate: "http://www.google.cn/maps/vt?lyrs=m@189&gl=cn&x={x}&y={y}&z={z}",
			MinZoom:     1, MaxZoom: 18,
		},
	}
}
