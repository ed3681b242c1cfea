package config

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector 按配置选择数据库驱动
func (c *Config) Dialector() (gorm.Dialector, error) {
	switch c.DBDriver {
	case "sqlite":
		return sqlite.Open(c.SQLitePath), nil
	case "postgres":
		return postgres.Open(c.DSN), nil
	case "mysql":
		return mysql.Open(c.DSN), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", c.DBDriver)
}

// GormLogger debug 模式打印 SQL
func (c *Config) GormLogger() logger.Interface {
	if c.Mode == "debug" {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Silent)
}
