package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/GrainArc/MapOverlay/models"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("view session not found")
	ErrUnknownLayer    = errors.New("unknown layer")
	ErrInvalidView     = errors.New("invalid view state")
)

// ViewDefaults 新会话的初始视图，中心点为 WGS84
type ViewDefaults struct {
	Layer  string
	Center orb.Point
	Zoom   int
}

// ViewService 视图会话，替代页面上的全局 center/zoom/currentLayer
type ViewService struct {
	db       *gorm.DB
	layers   *LayerStore
	switcher *LayerSwitcher
	defaults ViewDefaults
}

func NewViewService(db *gorm.DB, layers *LayerStore, switcher *LayerSwitcher, defaults ViewDefaults) *ViewService {
	return &ViewService{db: db, layers: layers, switcher: switcher, defaults: defaults}
}

// Create 新建会话并加载初始图层，layer 为空时使用默认图层
func (s *ViewService) Create(ctx context.Context, layer string) (*models.ViewSession, SwitchResult, error) {
	if layer == "" {
		layer = s.defaults.Layer
	}
	target, err := s.provider(ctx, layer)
	if err != nil {
		return nil, SwitchResult{}, err
	}

	state := ViewState{Center: s.defaults.Center, Zoom: s.defaults.Zoom}
	res := s.switcher.Switch(state, nil, target)

	session := &models.ViewSession{ID: uuid.NewString()}
	applyState(session, res.State)
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, SwitchResult{}, fmt.Errorf("create view session: %w", err)
	}
	log.Printf("新建视图会话 %s, 图层 %s", session.ID, session.Layer)
	return session, res, nil
}

// Get 查询会话
func (s *ViewService) Get(ctx context.Context, id string) (*models.ViewSession, error) {
	var session models.ViewSession
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query view session %s: %w", id, err)
	}
	return &session, nil
}

// Move 更新会话中心点与缩放级别，中心点为当前图层基准
func (s *ViewService) Move(ctx context.Context, id string, center orb.Point, zoom int) (*models.ViewSession, error) {
	if zoom < 0 || zoom > tile_proxy.MaxTileZoom {
		return nil, fmt.Errorf("%w: zoom %d not in 0-%d", ErrInvalidView, zoom, tile_proxy.MaxTileZoom)
	}
	if math.IsNaN(center[0]) || math.IsNaN(center[1]) || math.IsInf(center[0], 0) || math.IsInf(center[1], 0) {
		return nil, fmt.Errorf("%w: center must be finite", ErrInvalidView)
	}
	if center[1] < -90 || center[1] > 90 {
		return nil, fmt.Errorf("%w: lat %v out of range", ErrInvalidView, center[1])
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyState(session, ViewState{Center: center, Zoom: zoom, Layer: session.Layer})
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, fmt.Errorf("save view session %s: %w", id, err)
	}
	return session, nil
}

// SwitchLayer 切换会话图层
func (s *ViewService) SwitchLayer(ctx context.Context, id, layer string) (*models.ViewSession, SwitchResult, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, SwitchResult{}, err
	}
	target, err := s.provider(ctx, layer)
	if err != nil {
		return nil, SwitchResult{}, err
	}

	var current *tile_proxy.Provider
	if session.Layer != "" {
		// 当前图层被删除时按首次加载处理
		current, err = s.provider(ctx, session.Layer)
		if err != nil && !errors.Is(err, ErrUnknownLayer) {
			return nil, SwitchResult{}, err
		}
	}

	res := s.switcher.Switch(StateOf(session), current, target)
	applyState(session, res.State)
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, SwitchResult{}, fmt.Errorf("save view session %s: %w", id, err)
	}
	return session, res, nil
}

// Provider 会话当前图层的瓦片源
func (s *ViewService) Provider(ctx context.Context, session *models.ViewSession) (*tile_proxy.Provider, error) {
	return s.provider(ctx, session.Layer)
}

func (s *ViewService) provider(ctx context.Context, name string) (*tile_proxy.Provider, error) {
	p, err := s.layers.Provider(ctx, name)
	if errors.Is(err, tile_proxy.ErrProviderNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}
	return p, err
}

// StateOf 会话记录转视图状态
func StateOf(session *models.ViewSession) ViewState {
	return ViewState{
		Center: orb.Point{session.CenterLng, session.CenterLat},
		Zoom:   session.Zoom,
		Layer:  session.Layer,
	}
}

func applyState(session *models.ViewSession, state ViewState) {
	session.Layer = state.Layer
	session.CenterLng = state.Center[0]
	session.CenterLat = state.Center[1]
	session.Zoom = state.Zoom
}
