package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/models"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"gorm.io/gorm"
)

// LayerStore 图层存取，实现 tile_proxy.ProviderSource
type LayerStore struct {
	db *gorm.DB
}

func NewLayerStore(db *gorm.DB) *LayerStore {
	return &LayerStore{db: db}
}

// Provider 查找启用状态的图层
func (s *LayerStore) Provider(ctx context.Context, name string) (*tile_proxy.Provider, error) {
	layer, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if layer.Status != 1 {
		return nil, fmt.Errorf("%w: %s is disabled", tile_proxy.ErrProviderNotFound, name)
	}
	return layer.Provider(), nil
}

// Get 按名称查找图层
func (s *LayerStore) Get(ctx context.Context, name string) (*models.MapLayer, error) {
	var layer models.MapLayer
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&layer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", tile_proxy.ErrProviderNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query layer %s: %w", name, err)
	}
	return &layer, nil
}

// LayerFilter 列表筛选
type LayerFilter struct {
	Datum    string
	CRS      string
	Status   *int
	Page     int
	PageSize int
}

// List 分页查询
func (s *LayerStore) List(ctx context.Context, f LayerFilter) ([]models.MapLayer, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.MapLayer{})
	if f.Datum != "" {
		query = query.Where("datum = ?", f.Datum)
	}
	if f.CRS != "" {
		query = query.Where("crs = ?", f.CRS)
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count layers: %w", err)
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	var layers []models.MapLayer
	if err := query.Order("id").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&layers).Error; err != nil {
		return nil, 0, fmt.Errorf("list layers: %w", err)
	}
	return layers, total, nil
}

// ErrInvalidLayer 图层参数错误
var ErrInvalidLayer = errors.New("invalid layer")

// Create 新建图层，未指定基准时按名称前缀推断
func (s *LayerStore) Create(ctx context.Context, layer *models.MapLayer) error {
	if err := normalizeLayer(layer); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(layer).Error; err != nil {
		return fmt.Errorf("create layer %s: %w", layer.Name, err)
	}
	return nil
}

// Update 按名称更新图层
func (s *LayerStore) Update(ctx context.Context, name string, patch *models.MapLayer) (*models.MapLayer, error) {
	layer, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	patch.ID = layer.ID
	patch.Name = layer.Name
	if err := validateKinds(patch); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(layer).Updates(patch).Error; err != nil {
		return nil, fmt.Errorf("update layer %s: %w", name, err)
	}
	return s.Get(ctx, name)
}

// Delete 按名称删除图层
func (s *LayerStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.MapLayer{})
	if res.Error != nil {
		return fmt.Errorf("delete layer %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", tile_proxy.ErrProviderNotFound, name)
	}
	return nil
}

func normalizeLayer(layer *models.MapLayer) error {
	if layer.Name == "" || layer.URLTemplate == "" {
		return fmt.Errorf("%w: name and urlTemplate are required", ErrInvalidLayer)
	}
	if layer.Datum == "" {
		d, ok := tile_proxy.ClassifyLayer(layer.Name)
		if !ok {
			return fmt.Errorf("%w: datum of %s is unknown", ErrInvalidLayer, layer.Name)
		}
		layer.Datum = string(d)
	}
	if err := validateKinds(layer); err != nil {
		return err
	}
	if layer.CRS == "" {
		layer.CRS = coordconv.KindEPSG3857
		if layer.Datum == string(coordconv.BD09) {
			layer.CRS = coordconv.KindBaidu
		}
	}
	if layer.Status == 0 {
		layer.Status = 1
	}
	return nil
}

// validateKinds 规范化基准名称并检查坐标系类型，空值跳过
func validateKinds(layer *models.MapLayer) error {
	if layer.Datum != "" {
		d, err := coordconv.ParseDatum(layer.Datum)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLayer, err)
		}
		if d == coordconv.BD09MC {
			return fmt.Errorf("%w: layer datum must be a geographic datum", ErrInvalidLayer)
		}
		layer.Datum = string(d)
	}
	if layer.CRS != "" {
		if _, ok := coordconv.CRSByKind(layer.CRS); !ok {
			return fmt.Errorf("%w: unknown crs %q", ErrInvalidLayer, layer.CRS)
		}
	}
	return nil
}
