package views

import (
	"errors"

	"github.com/GrainArc/MapOverlay/models"
	"github.com/GrainArc/MapOverlay/services"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

type layerRequest struct {
	Layer string `json:"layer"`
}

type moveRequest struct {
	Center orb.Point `json:"center"` // [lng, lat]，当前图层基准
	Zoom   int       `json:"zoom"`
}

func sessionData(session *models.ViewSession, res *services.SwitchResult) gin.H {
	data := gin.H{"session": session}
	if res != nil {
		data["switch"] = res
	}
	return data
}

// CreateView 新建视图会话，body 可省略
func (uc *UserController) CreateView(c *gin.Context) {
	var req layerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	session, res, err := uc.views.Create(c.Request.Context(), req.Layer)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sessionData(session, &res))
}

// GetView 查询视图会话
func (uc *UserController) GetView(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := uc.views.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	data := sessionData(session, nil)
	if p, err := uc.views.Provider(ctx, session); err == nil {
		data["datum"] = p.Datum
		data["crs"] = p.CRS
	}
	ok(c, data)
}

// SwitchView 切换视图会话图层
func (uc *UserController) SwitchView(c *gin.Context) {
	var req layerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Layer == "" {
		badRequest(c, errors.New("layer is required"))
		return
	}

	session, res, err := uc.views.SwitchLayer(c.Request.Context(), c.Param("id"), req.Layer)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sessionData(session, &res))
}

// MoveView 更新视图中心点与缩放级别
func (uc *UserController) MoveView(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := uc.views.Move(c.Request.Context(), c.Param("id"), req.Center, req.Zoom)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sessionData(session, nil))
}
