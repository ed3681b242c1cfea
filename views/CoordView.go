package views

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Forward 经纬度转百度墨卡托
func (uc *UserController) Forward(c *gin.Context) {
	lng, err := finiteQuery(c, "lng")
	if err != nil {
		badRequest(c, err)
		return
	}
	lat, err := finiteQuery(c, "lat")
	if err != nil {
		badRequest(c, err)
		return
	}
	x, y := coordconv.Forward(lng, lat)
	ok(c, gin.H{"x": x, "y": y})
}

// Inverse 百度墨卡托转经纬度
func (uc *UserController) Inverse(c *gin.Context) {
	x, err := finiteQuery(c, "x")
	if err != nil {
		badRequest(c, err)
		return
	}
	y, err := finiteQuery(c, "y")
	if err != nil {
		badRequest(c, err)
		return
	}
	lng, lat := coordconv.Inverse(x, y)
	ok(c, gin.H{"lng": lng, "lat": lat})
}

type batchRequest struct {
	Direction string      `json:"direction"` // forward / inverse
	Points    []orb.Point `json:"points"`
}

// Batch 批量投影
func (uc *UserController) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var fn func(orb.Point) orb.Point
	switch req.Direction {
	case "forward", "":
		fn = coordconv.ForwardPoint
	case "inverse":
		fn = coordconv.InversePoint
	default:
		badRequest(c, fmt.Errorf("unknown direction %q", req.Direction))
		return
	}

	out := make([]orb.Point, len(req.Points))
	for i, p := range req.Points {
		if !isFinite(p[0]) || !isFinite(p[1]) {
			badRequest(c, fmt.Errorf("point %d is not finite", i))
			return
		}
		out[i] = fn(p)
	}
	ok(c, gin.H{"direction": req.Direction, "points": out})
}

// Datum 基准偏移转换
func (uc *UserController) Datum(c *gin.Context) {
	from, err := coordconv.ParseDatum(c.DefaultQuery("from", "wgs84"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := coordconv.ParseDatum(c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}
	lng, err := finiteQuery(c, "lng")
	if err != nil {
		badRequest(c, err)
		return
	}
	lat, err := finiteQuery(c, "lat")
	if err != nil {
		badRequest(c, err)
		return
	}

	outLng, outLat := uc.conv.Convert(from, to, lng, lat)
	ok(c, gin.H{"from": from, "to": to, "lng": outLng, "lat": outLat, "outOfChina": coordconv.OutOfChina(lng, lat)})
}

// GeoJSON 投影要素集合
// to=bd09mc 经纬度转百度墨卡托，to=lnglat 反向，to 为基准名称时按 from 做偏移转换
func (uc *UserController) GeoJSON(c *gin.Context) {
	fc := geojson.NewFeatureCollection()
	if err := c.ShouldBindJSON(fc); err != nil {
		badRequest(c, err)
		return
	}
	for i, f := range fc.Features {
		if f.Geometry != nil && !finiteGeometry(f.Geometry) {
			badRequest(c, fmt.Errorf("feature %d has non-finite coordinates", i))
			return
		}
	}

	var proj orb.Projection
	switch to := c.Query("to"); to {
	case "bd09mc":
		proj = coordconv.ForwardPoint
	case "lnglat":
		proj = coordconv.InversePoint
	default:
		target, err := coordconv.ParseDatum(to)
		if err != nil {
			badRequest(c, err)
			return
		}
		from, err := coordconv.ParseDatum(c.DefaultQuery("from", "wgs84"))
		if err != nil {
			badRequest(c, err)
			return
		}
		proj = coordconv.DatumProjection(uc.conv, from, target)
	}

	ok(c, coordconv.ProjectFeatureCollection(fc, proj))
}

func finiteGeometry(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Point:
		return isFinite(g[0]) && isFinite(g[1])
	case orb.MultiPoint:
		for _, p := range g {
			if !finiteGeometry(p) {
				return false
			}
		}
	case orb.LineString:
		return finiteGeometry(orb.MultiPoint(g))
	case orb.Ring:
		return finiteGeometry(orb.MultiPoint(g))
	case orb.MultiLineString:
		for _, ls := range g {
			if !finiteGeometry(ls) {
				return false
			}
		}
	case orb.Polygon:
		for _, r := range g {
			if !finiteGeometry(r) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if !finiteGeometry(p) {
				return false
			}
		}
	case orb.Collection:
		for _, sub := range g {
			if !finiteGeometry(sub) {
				return false
			}
		}
	}
	return true
}

// CRSConfig 地图控件所需的坐标系参数
func (uc *UserController) CRSConfig(c *gin.Context) {
	crs, found := coordconv.CRSByKind(c.Param("kind"))
	if !found {
		c.JSON(404, gin.H{"code": 404, "error": "unknown crs"})
		return
	}

	data := gin.H{
		"epsg":           crs.Code(),
		"kind":           crs.Kind(),
		"tileSize":       coordconv.TileSize,
		"transformation": crs.Transformation(),
		"bounds":         geojson.NewBBox(crs.Bounds()),
	}
	if b, isBaidu := crs.(coordconv.BaiduCRS); isBaidu {
		data["dataExtent"] = geojson.NewBBox(b.DataExtent())
		data["scaleExp"] = coordconv.BaiduScaleExp
	}
	ok(c, data)
}

// Pixel 经纬度转全局像素与所在瓦片
func (uc *UserController) Pixel(c *gin.Context) {
	crs, found := coordconv.CRSByKind(c.DefaultQuery("kind", coordconv.KindBaidu))
	if !found {
		badRequest(c, fmt.Errorf("unknown crs %q", c.Query("kind")))
		return
	}
	lat, err := finiteQuery(c, "lat")
	if err != nil {
		badRequest(c, err)
		return
	}
	lng, err := finiteQuery(c, "lng")
	if err != nil {
		badRequest(c, err)
		return
	}
	zoom, err := strconv.Atoi(c.DefaultQuery("zoom", "18"))
	if err != nil || zoom < 0 || zoom > 30 {
		badRequest(c, errors.New("invalid zoom"))
		return
	}

	ll := orb.Point{lng, lat}
	std := tile_proxy.TileAtLatLng(crs, ll, zoom)
	data := gin.H{
		"kind":      crs.Kind(),
		"zoom":      zoom,
		"projected": crs.Project(ll),
		"pixel":     coordconv.LatLngToPixel(crs, ll, float64(zoom)),
		"tile":      std,
	}
	if crs.Kind() == coordconv.KindBaidu && zoom >= 1 {
		if bd, err := tile_proxy.ToBaiduTile(std); err == nil {
			data["baiduTile"] = bd
		}
	}
	ok(c, data)
}
