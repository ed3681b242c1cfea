package views

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/services"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	conv   coordconv.DatumConverter
	layers *services.LayerStore
	views  *services.ViewService
}

func NewUserController(conv coordconv.DatumConverter, layers *services.LayerStore, views *services.ViewService) *UserController {
	return &UserController{conv: conv, layers: layers, views: views}
}

// finiteQuery 读取必填的有限浮点参数
func finiteQuery(c *gin.Context, name string) (float64, error) {
	s, ok := c.GetQuery(name)
	if !ok || s == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error": err.Error()})
}

// fail 按错误类型返回状态码
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tile_proxy.ErrProviderNotFound),
		errors.Is(err, services.ErrUnknownLayer),
		errors.Is(err, services.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidLayer),
		errors.Is(err, services.ErrInvalidView):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"code": status, "error": err.Error()})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": data})
}
