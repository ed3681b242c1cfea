package models

import "time"

// ViewSession 地图视图状态：中心点、缩放级别、当前图层
type ViewSession struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Layer     string    `gorm:"column:layer;size:64" json:"layer"`
	CenterLat float64   `gorm:"column:center_lat" json:"centerLat"` // 当前图层基准下的中心点
	CenterLng float64   `gorm:"column:center_lng" json:"centerLng"`
	Zoom      int       `gorm:"column:zoom" json:"zoom"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ViewSession) TableName() string {
	return "view_session"
}
