package models

import (
	"errors"
	"fmt"
	"log"

	"github.com/GrainArc/MapOverlay/config"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// InitDB 连接数据库、迁移表结构并写入内置图层
func InitDB(cfg config.Config) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: cfg.GormLogger(),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedLayers(db, tile_proxy.Catalog(cfg.ProviderOptions())); err != nil {
		return nil, err
	}

	log.Println("数据库初始化成功")
	return db, nil
}

// Migrate 批量迁移所有表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MapLayer{}, &ViewSession{}); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	return nil
}

// SeedLayers 写入缺失的内置图层，已存在的记录不覆盖
func SeedLayers(db *gorm.DB, providers []tile_proxy.Provider) error {
	for _, p := range providers {
		var existing MapLayer
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("query layer %s: %w", p.Name, err)
		}

		layer := NewMapLayer(p)
		if err := db.Create(&layer).Error; err != nil {
			return fmt.Errorf("create layer %s: %w", p.Name, err)
		}
		log.Printf("写入内置图层 %s", p.Name)
	}
	return nil
}
