package views

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/GrainArc/MapOverlay/services"
	"github.com/GrainArc/MapOverlay/tile_proxy"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
)

// 标记点追踪

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type trackMessage struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Action string  `json:"action,omitempty"` // complete 结束追踪
}

// TrackResponse 推送给客户端的消息
type TrackResponse struct {
	Type    string               `json:"type"` // init / position / error / complete
	Layer   string               `json:"layer,omitempty"`
	Zoom    int                  `json:"zoom,omitempty"`
	Point   *services.TrackPoint `json:"point,omitempty"`
	Message string               `json:"message,omitempty"`
}

// trackSession 单个 WebSocket 连接
type trackSession struct {
	conn    *websocket.Conn
	tracker *services.Tracker
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *trackSession) send(resp TrackResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(resp)
}

// TrackView 将 WGS84 标记点实时换算到会话图层
func (uc *UserController) TrackView(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := uc.views.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	// 切换到百度图层时缩放级别会 +1
	if session.Zoom < 0 || session.Zoom > tile_proxy.MaxTileZoom+1 {
		badRequest(c, fmt.Errorf("session zoom %d out of range", session.Zoom))
		return
	}
	p, err := uc.views.Provider(ctx, session)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to websocket: %v", err)
		return
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	ts := &trackSession{
		conn:    conn,
		tracker: services.NewTracker(uc.conv, p, session.Zoom),
		ctx:     sessionCtx,
		cancel:  cancel,
	}

	if err := ts.send(TrackResponse{Type: "init", Layer: p.Name, Zoom: session.Zoom}); err != nil {
		log.Printf("Failed to send init response: %v", err)
		cancel()
		conn.Close()
		return
	}
	uc.handleTrack(ts)
}

func (uc *UserController) handleTrack(s *trackSession) {
	defer func() {
		s.cancel()
		s.conn.Close()
		log.Println("WebSocket session closed")
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-pingTicker.C:
				s.mu.Lock()
				err := s.conn.WriteMessage(websocket.PingMessage, nil)
				s.mu.Unlock()
				if err != nil {
					log.Printf("Ping failed: %v", err)
					s.cancel()
					return
				}
			}
		}
	}()

	for {
		var msg trackMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if msg.Action == "complete" {
			_ = s.send(TrackResponse{Type: "complete"})
			return
		}
		if msg.Lat < -90 || msg.Lat > 90 {
			if err := s.send(TrackResponse{Type: "error", Message: "lat out of range"}); err != nil {
				return
			}
			continue
		}

		tp := s.tracker.Locate(orb.Point{msg.Lng, msg.Lat})
		if err := s.send(TrackResponse{Type: "position", Point: &tp}); err != nil {
			log.Printf("Failed to send position: %v", err)
			return
		}
	}
}
