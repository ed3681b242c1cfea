package main

import (
	"log"

	"github.com/GrainArc/MapOverlay/config"
	"github.com/GrainArc/MapOverlay/models"
	"github.com/GrainArc/MapOverlay/routers"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("config.xml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	gin.SetMode(cfg.Mode)

	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	r := routers.NewEngine(cfg, db)
	log.Printf("服务启动于 %s", cfg.MainRouter)
	if err := r.Run(cfg.MainRouter); err != nil {
		log.Fatalf("服务异常退出: %v", err)
	}
}
