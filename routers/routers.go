package routers

import (
	"github.com/GrainArc/MapOverlay/config"
	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/services"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/GrainArc/MapOverlay/views"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// MapRouters 注册坐标转换、瓦片、图层与视图会话路由
func MapRouters(r *gin.Engine, uc *views.UserController, tiles *tile_proxy.TileHandler) {
	coordRouter := r.Group("/coord")
	{
		coordRouter.GET("/forward", uc.Forward)
		coordRouter.GET("/inverse", uc.Inverse)
		coordRouter.POST("/batch", uc.Batch)
		coordRouter.GET("/datum", uc.Datum)
		coordRouter.POST("/geojson", uc.GeoJSON)
		coordRouter.GET("/crs/:kind", uc.CRSConfig)
		coordRouter.GET("/pixel", uc.Pixel)
	}

	tiles.RegisterRoutes(r.Group("/tile"))
	tiles.RegisterIndexRoutes(r.Group("/tileindex"))
	tiles.RegisterCoverRoutes(r.Group("/tilecover"))

	layerRouter := r.Group("/layer")
	{
		layerRouter.GET("", uc.ListLayers)
		layerRouter.POST("", uc.CreateLayer)
		layerRouter.GET("/:name", uc.GetLayer)
		layerRouter.PUT("/:name", uc.UpdateLayer)
		layerRouter.DELETE("/:name", uc.DeleteLayer)
	}

	viewRouter := r.Group("/view")
	{
		viewRouter.POST("", uc.CreateView)
		viewRouter.GET("/:id", uc.GetView)
		viewRouter.PUT("/:id", uc.MoveView)
		viewRouter.POST("/:id/switch", uc.SwitchView)
		viewRouter.GET("/:id/track", uc.TrackView) // WebSocket
	}
}

// NewEngine 按配置组装服务与路由
func NewEngine(cfg config.Config, db *gorm.DB) *gin.Engine {
	conv := coordconv.NewOffsetConverter()
	layers := services.NewLayerStore(db)
	viewService := services.NewViewService(db, layers, services.NewLayerSwitcher(conv), services.ViewDefaults{
		Layer:  cfg.DefaultLayer,
		Center: orb.Point{cfg.DefaultLng, cfg.DefaultLat},
		Zoom:   cfg.DefaultZoom,
	})

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	MapRouters(r, views.NewUserController(conv, layers, viewService), tile_proxy.NewTileHandler(layers, conv))
	return r
}
