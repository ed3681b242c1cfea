package services

import (
	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/paulmach/orb"
)

// ViewState 地图视图状态，Center 为 [lng, lat]，基准与 Layer 一致
// Layer 为空表示尚未加载图层，此时 Center 按 WGS84 处理
type ViewState struct {
	Center orb.Point `json:"center"`
	Zoom   int       `json:"zoom"`
	Layer  string    `json:"layer"`
}

// SwitchResult 切换结果
type SwitchResult struct {
	State       ViewState       `json:"state"`
	Datum       coordconv.Datum `json:"datum"`
	CRS         string          `json:"crs"`
	Transformed bool            `json:"transformed"`
	ZoomDelta   int             `json:"zoomDelta"`
}

// LayerSwitcher 图层切换：中心点换算到目标图层基准，跨越百度图层时调整缩放级别
type LayerSwitcher struct {
	conv coordconv.DatumConverter
}

func NewLayerSwitcher(conv coordconv.DatumConverter) *LayerSwitcher {
	return &LayerSwitcher{conv: conv}
}

// Switch current 为 nil 表示首次加载
func (s *LayerSwitcher) Switch(state ViewState, current, target *tile_proxy.Provider) SwitchResult {
	from := coordconv.WGS84
	if current != nil {
		from = current.Datum
	}
	to := target.Datum

	res := SwitchResult{
		State: ViewState{Center: state.Center, Zoom: state.Zoom, Layer: target.Name},
		Datum: to,
		CRS:   target.CRS,
	}

	if from != "" && to != "" && from != to {
		lng, lat := s.conv.Convert(from, to, state.Center[0], state.Center[1])
		res.State.Center = orb.Point{lng, lat}
		res.Transformed = true
	}

	// 百度 z 级与 Web Mercator z-1 级比例尺接近
	if current != nil {
		switch {
		case target.IsBaidu() && !current.IsBaidu():
			res.ZoomDelta = 1
		case !target.IsBaidu() && current.IsBaidu():
			res.ZoomDelta = -1
		}
	}
	res.State.Zoom += res.ZoomDelta
	return res
}
