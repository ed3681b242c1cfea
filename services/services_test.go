package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GrainArc/MapOverlay/config"
	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/models"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var beijingWGS = orb.Point{116.3913, 39.9075}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "services.db")
	cfg.TianDiTuKey = "tk"
	db, err := models.InitDB(cfg)
	require.NoError(t, err)
	return db
}

func newTestViewService(t *testing.T) (*ViewService, *LayerStore) {
	t.Helper()
	db := newTestDB(t)
	store := NewLayerStore(db)
	svc := NewViewService(db, store, NewLayerSwitcher(coordconv.NewOffsetConverter()), ViewDefaults{
		Layer:  "baidu",
		Center: beijingWGS,
		Zoom:   17,
	})
	return svc, store
}

var ctx = context.Background()
