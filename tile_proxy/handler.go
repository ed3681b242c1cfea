// handler.go
package tile_proxy

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

// ErrProviderNotFound 图层不存在或已禁用
var ErrProviderNotFound = errors.New("provider not found")

// ProviderSource 按名称查找瓦片源
type ProviderSource interface {
	Provider(ctx context.Context, name string) (*Provider, error)
}

// TileHandler 瓦片地址处理器，只换算行列号与URL，不下载瓦片
type TileHandler struct {
	source ProviderSource
	conv   coordconv.DatumConverter
}

// NewTileHandler 创建处理器
func NewTileHandler(source ProviderSource, conv coordconv.DatumConverter) *TileHandler {
	return &TileHandler{source: source, conv: conv}
}

// RegisterRoutes 注册瓦片路由
func (h *TileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:layer/:z/:x/:y", h.RedirectTile)
	r.GET("/:layer/:z/:x/:y/address", h.TileAddress)
}

// RegisterIndexRoutes 注册行列号换算路由
func (h *TileHandler) RegisterIndexRoutes(r *gin.RouterGroup) {
	r.GET("/baidu/:z/:x/:y", h.ConvertToBaidu)
	r.GET("/standard/:z/:x/:y", h.ConvertToStandard)
}

// RegisterCoverRoutes 注册范围覆盖瓦片路由
func (h *TileHandler) RegisterCoverRoutes(r *gin.RouterGroup) {
	r.GET("/:layer", h.CoverTiles)
}

// parseTileParams 解析 z/x/y，y 可能带扩展名
func parseTileParams(c *gin.Context) (TileCoord, error) {
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil {
		return TileCoord{}, errors.New("invalid z")
	}
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return TileCoord{}, errors.New("invalid x")
	}

	yStr := c.Param("y")
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp"} {
		yStr = strings.TrimSuffix(yStr, ext)
	}
	y, err := strconv.Atoi(yStr)
	if err != nil {
		return TileCoord{}, errors.New("invalid y")
	}
	return TileCoord{Z: z, X: x, Y: y}, nil
}

// ConvertToBaidu 标准行列号转百度行列号
func (h *TileHandler) ConvertToBaidu(c *gin.Context) {
	h.convert(c, ToBaiduTile)
}

// ConvertToStandard 百度行列号转标准行列号
func (h *TileHandler) ConvertToStandard(c *gin.Context) {
	h.convert(c, ToStandardTile)
}

func (h *TileHandler) convert(c *gin.Context, fn func(TileCoord) (TileCoord, error)) {
	in, err := parseTileParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}
	out, err := fn(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": out})
}

// TileAddress 返回瓦片源行列号、URL 与标准瓦片的经纬度范围
func (h *TileHandler) TileAddress(c *gin.Context) {
	p, std, ok := h.resolve(c)
	if !ok {
		return
	}

	addr, err := p.TileAddress(std)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}
	url, err := p.TileURL(std)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}

	bounds := GetTileBoundsWGS84(std.Z, std.X, std.Y)
	if p.IsBaidu() {
		bounds = GetTileBoundsBaidu(std.Z, std.X, std.Y)
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"layer":    p.Name,
			"datum":    p.Datum,
			"crs":      p.CRS,
			"standard": std,
			"address":  addr,
			"url":      url,
			"bounds":   bounds,
		},
	})
}

// RedirectTile 重定向到瓦片源
func (h *TileHandler) RedirectTile(c *gin.Context) {
	p, std, ok := h.resolve(c)
	if !ok {
		return
	}

	url, err := p.TileURL(std)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Redirect(http.StatusFound, url)
}

func (h *TileHandler) resolve(c *gin.Context) (*Provider, TileCoord, bool) {
	std, err := parseTileParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return nil, TileCoord{}, false
	}

	p, err := h.source.Provider(c.Request.Context(), c.Param("layer"))
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "error": "map not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "error": err.Error()})
		}
		return nil, TileCoord{}, false
	}
	return p, std, true
}

// parseBBox 解析 minLng,minLat,maxLng,maxLat
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.New("bbox must be minLng,minLat,maxLng,maxLat")
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return orb.Bound{}, errors.New("invalid bbox")
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New("bbox min exceeds max")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// CoverTiles 范围覆盖的瓦片列表，bbox 基准由 datum 指定，默认 WGS84
func (h *TileHandler) CoverTiles(c *gin.Context) {
	b, err := parseBBox(c.Query("bbox"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}
	z, err := strconv.Atoi(c.Query("z"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": "invalid z"})
		return
	}
	from, err := coordconv.ParseDatum(c.DefaultQuery("datum", "wgs84"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}

	p, err := h.source.Provider(c.Request.Context(), c.Param("layer"))
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "error": "map not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "error": err.Error()})
		}
		return
	}

	tiles, err := p.Cover(coordconv.TransformBounds(h.conv, b, from, p.Datum), z, MaxCoverTiles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"layer": p.Name,
			"zoom":  z,
			"count": len(tiles),
			"tiles": tiles,
		},
	})
}
