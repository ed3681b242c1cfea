package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 服务配置，对应 config.xml
type Config struct {
	XMLName      xml.Name `xml:"config"`
	MainRouter   string   `xml:"MainRouter"` // 监听地址
	Mode         string   `xml:"mode"`       // debug / release
	DBDriver     string   `xml:"dbdriver"`   // sqlite / postgres / mysql
	DSN          string   `xml:"dsn"`
	SQLitePath   string   `xml:"sqlite"`
	DefaultLayer string   `xml:"defaultLayer"`
	DefaultLat   float64  `xml:"defaultLat"` // WGS84
	DefaultLng   float64  `xml:"defaultLng"`
	DefaultZoom  int      `xml:"defaultZoom"`
	TianDiTuKey  string   `xml:"tiandituKey"`
	MapboxID     string   `xml:"mapboxId"`
	MapboxSatID  string   `xml:"mapboxSatId"`
	MapboxToken  string   `xml:"mapboxToken"`
}

var MainConfig = Default()

// Default 默认配置，中心点为北京
func Default() Config {
	return Config{
		MainRouter:   ":8426",
		Mode:         "release",
		DBDriver:     "sqlite",
		SQLitePath:   "mapoverlay.db",
		DefaultLayer: "baidu",
		DefaultLat:   39.9075,
		DefaultLng:   116.3913,
		DefaultZoom:  17,
	}
}

// Load 读取 config.xml 与 .env，环境变量优先
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")
	if p := os.Getenv("MAPOVERLAY_CONFIG"); p != "" {
		path = p
	}

	cfg := Default()
	xmlFile, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("配置文件 %s 不存在，使用默认配置", path)
	case err != nil:
		return cfg, fmt.Errorf("open config: %w", err)
	default:
		defer xmlFile.Close()
		if err := xml.NewDecoder(xmlFile).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	MainConfig = cfg
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"MAPOVERLAY_ADDR":          &c.MainRouter,
		"MAPOVERLAY_MODE":          &c.Mode,
		"MAPOVERLAY_DB_DRIVER":     &c.DBDriver,
		"MAPOVERLAY_DSN":           &c.DSN,
		"MAPOVERLAY_SQLITE":        &c.SQLitePath,
		"MAPOVERLAY_DEFAULT_LAYER": &c.DefaultLayer,
		"MAPOVERLAY_TIANDITU_KEY":  &c.TianDiTuKey,
		"MAPOVERLAY_MAPBOX_ID":     &c.MapboxID,
		"MAPOVERLAY_MAPBOX_SAT_ID": &c.MapboxSatID,
		"MAPOVERLAY_MAPBOX_TOKEN":  &c.MapboxToken,
	}
	for k, p := range str {
		if v := os.Getenv(k); v != "" {
			*p = v
		}
	}

	if v := os.Getenv("MAPOVERLAY_DEFAULT_ZOOM"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAPOVERLAY_DEFAULT_ZOOM: %w", err)
		}
		c.DefaultZoom = z
	}
	return nil
}

// Validate 检查配置
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("sqlite path is empty")
		}
	case "postgres", "mysql":
		if c.DSN == "" {
			return fmt.Errorf("%s dsn is empty", c.DBDriver)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported mode %q", c.Mode)
	}
	if c.DefaultLat < -90 || c.DefaultLat > 90 {
		return fmt.Errorf("default lat %v out of range", c.DefaultLat)
	}
	return nil
}

// ProviderOptions 瓦片源模板参数
func (c *Config) ProviderOptions() map[string]string {
	return map[string]string{
		"tiandituKey": c.TianDiTuKey,
		"mapboxId":    c.MapboxID,
		"mapboxSatId": c.MapboxSatID,
		"mapboxToken": c.MapboxToken,
	}
}
