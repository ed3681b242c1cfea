package models

import (
	"time"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"gorm.io/datatypes"
)

// MapLayer 在线瓦片图层
type MapLayer struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"column:name;uniqueIndex;size:64" json:"name"`      // 图层标识，如 baidu
	Title       string            `gorm:"column:title" json:"title"`                        // 显示名称
	Datum       string            `gorm:"column:datum;size:16" json:"datum"`                // wgs84 / gcj02 / bd09
	CRS         string            `gorm:"column:crs;size:16" json:"crs"`                    // baidu / epsg3857
	URLTemplate string            `gorm:"column:url_template;type:text" json:"urlTemplate"` // 完整URL模板
	Subdomains  string            `gorm:"column:subdomains" json:"subdomains"`              // 子域名轮换字符
	MinZoom     int               `gorm:"column:min_zoom" json:"minZoom"`                   // 最小缩放级别
	MaxZoom     int               `gorm:"column:max_zoom" json:"maxZoom"`                   // 最大缩放级别
	Options     datatypes.JSONMap `gorm:"column:options" json:"options"`                    // 模板参数
	Attribution string            `gorm:"column:attribution;type:text" json:"attribution"`  // 版权信息
	Status      int               `gorm:"column:status;default:1" json:"status"`            // 状态：1启用，2禁用；0 表示未设置，写入时取 1
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (MapLayer) TableName() string {
	return "map_layer"
}

// Provider 转为瓦片源描述
func (m *MapLayer) Provider() *tile_proxy.Provider {
	opts := make(map[string]string, len(m.Options))
	for k, v := range m.Options {
		if s, ok := v.(string); ok {
			opts[k] = s
		}
	}
	return &tile_proxy.Provider{
		Name:        m.Name,
		Title:       m.Title,
		Datum:       coordconv.Datum(m.Datum),
		CRS:         m.CRS,
		URLTemplate: m.URLTemplate,
		Subdomains:  m.Subdomains,
		MinZoom:     m.MinZoom,
		MaxZoom:     m.MaxZoom,
		Options:     opts,
		Attribution: m.Attribution,
	}
}

// NewMapLayer 由瓦片源描述生成记录
func NewMapLayer(p tile_proxy.Provider) MapLayer {
	opts := datatypes.JSONMap{}
	for k, v := range p.Options {
		opts[k] = v
	}
	return MapLayer{
		Name:        p.Name,
		Title:       p.Title,
		Datum:       string(p.Datum),
		CRS:         p.CRS,
		URLTemplate: p.URLTemplate,
		Subdomains:  p.Subdomains,
		MinZoom:     p.MinZoom,
		MaxZoom:     p.MaxZoom,
		Options:     opts,
		Attribution: p.Attribution,
		Status:      1,
	}
}
