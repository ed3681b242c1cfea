package views

import (
	"strconv"

	"github.com/GrainArc/MapOverlay/models"
	"github.com/GrainArc/MapOverlay/services"
	"github.com/gin-gonic/gin"
)

// CreateLayer 新建图层
func (uc *UserController) CreateLayer(c *gin.Context) {
	var layer models.MapLayer
	if err := c.ShouldBindJSON(&layer); err != nil {
		badRequest(c, err)
		return
	}
	layer.ID = 0

	if err := uc.layers.Create(c.Request.Context(), &layer); err != nil {
		fail(c, err)
		return
	}
	ok(c, layer)
}

// GetLayer 查询图层
func (uc *UserController) GetLayer(c *gin.Context) {
	layer, err := uc.layers.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, layer)
}

// ListLayers 分页查询图层
func (uc *UserController) ListLayers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	filter := services.LayerFilter{
		Datum:    c.Query("datum"),
		CRS:      c.Query("crs"),
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status, err := strconv.Atoi(s)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Status = &status
	}

	layers, total, err := uc.layers.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"list":      layers,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// UpdateLayer 更新图层，名称不可修改
func (uc *UserController) UpdateLayer(c *gin.Context) {
	var patch models.MapLayer
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	layer, err := uc.layers.Update(c.Request.Context(), c.Param("name"), &patch)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, layer)
}

// DeleteLayer 删除图层
func (uc *UserController) DeleteLayer(c *gin.Context) {
	name := c.Param("name")
	if err := uc.layers.Delete(c.Request.Context(), name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"code": 200, "message": "删除成功"})
}
