package routers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GrainArc/MapOverlay/config"
	"github.com/GrainArc/MapOverlay/coordconv"
	"github.com/GrainArc/MapOverlay/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "routers.db")
	cfg.TianDiTuKey = "tk"
	db, err := models.InitDB(cfg)
	require.NoError(t, err)
	return NewEngine(cfg, db)
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestCoord_ForwardInverse(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/coord/forward?lng=116.3913&lat=39.9075", "")
	require.Equal(t, http.StatusOK, w.Code)
	var xy struct{ X, Y float64 }
	require.NoError(t, json.Unmarshal(env.Data, &xy))
	assert.InDelta(t, 12956761.227333, xy.X, 1e-3)
	assert.InDelta(t, 4824839.634924, xy.Y, 1e-3)

	w, env = do(t, r, http.MethodGet, "/coord/inverse?x=12956761.227333&y=4824839.634924", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ll struct{ Lng, Lat float64 }
	require.NoError(t, json.Unmarshal(env.Data, &ll))
	assert.InDelta(t, 116.3913, ll.Lng, 1e-6)
	assert.InDelta(t, 39.9075, ll.Lat, 1e-6)
}

func TestCoord_RejectsBadInput(t *testing.T) {
	r := newTestEngine(t)

	for _, path := range []string{
		"/coord/forward?lng=116",
		"/coord/forward?lng=116&lat=abc",
		"/coord/forward?lng=116&lat=NaN",
		"/coord/forward?lng=Inf&lat=10",
		"/coord/inverse?x=1",
		"/coord/datum?to=utm&lng=1&lat=2",
		"/coord/pixel?kind=epsg4326&lat=1&lng=2",
		"/coord/pixel?lat=1&lng=2&zoom=-1",
	} {
		w, env := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, 400, env.Code, path)
		assert.NotEmpty(t, env.Error, path)
	}
}

func TestCoord_Batch(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodPost, "/coord/batch", `{"direction":"forward","points":[[116.3913,39.9075],[0,0]]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct{ Points [][2]float64 }
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Points, 2)
	assert.InDelta(t, 12956761.227333, out.Points[0][0], 1e-3)
	assert.Equal(t, coordconv.LL2MC[5][0], out.Points[1][0])

	w, _ = do(t, r, http.MethodPost, "/coord/batch", `{"direction":"sideways","points":[[1,2]]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoord_Datum(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/coord/datum?from=wgs84&to=gcj02&lng=116.3913&lat=39.9075", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Lng, Lat   float64
		OutOfChina bool
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.InDelta(t, 116.397541, out.Lng, 1e-5)
	assert.InDelta(t, 39.908901, out.Lat, 1e-5)
	assert.False(t, out.OutOfChina)
}

func TestCoord_GeoJSON(t *testing.T) {
	r := newTestEngine(t)
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"bj"},"geometry":{"type":"Point","coordinates":[116.3913,39.9075]}}]}`

	w, env := do(t, r, http.MethodPost, "/coord/geojson?to=bd09mc", body)
	require.Equal(t, http.StatusOK, w.Code)
	var fc struct {
		Features []struct {
			Properties map[string]interface{}
			Geometry   struct{ Coordinates [2]float64 }
		}
	}
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "bj", fc.Features[0].Properties["name"])
	assert.InDelta(t, 12956761.227333, fc.Features[0].Geometry.Coordinates[0], 1e-3)

	w, _ = do(t, r, http.MethodPost, "/coord/geojson?to=gcj02", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/coord/geojson?to=mars", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoord_CRSConfig(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/coord/crs/baidu", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg struct {
		Kind           string
		Transformation coordconv.Transformation
		Bounds         []float64
		DataExtent     []float64
	}
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Equal(t, "baidu", cfg.Kind)
	assert.Equal(t, 0.5, cfg.Transformation.B)
	assert.Equal(t, []float64{-33554432, -33554432, 33554432, 33554432}, cfg.Bounds)
	assert.Len(t, cfg.DataExtent, 4)

	w, _ = do(t, r, http.MethodGet, "/coord/crs/epsg4326", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCoord_Pixel(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/coord/pixel?kind=baidu&lat=0&lng=0&zoom=18", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Pixel     [2]float64
		Projected [2]float64
		BaiduTile struct{ Z, X, Y int }
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.InDelta(t, out.Projected[0]+coordconv.BaiduMaxExtent, out.Pixel[0], 1e-6)
	assert.InDelta(t, coordconv.BaiduMaxExtent-out.Projected[1], out.Pixel[1], 1e-6)
	assert.Equal(t, 18, out.BaiduTile.Z)
}

func TestTile_RoutesMounted(t *testing.T) {
	r := newTestEngine(t)

	w, _ := do(t, r, http.MethodGet, "/tile/baidu/18/181684/112224.png", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://online9.map.bdimg.com/tile/?qt=tile&x=50612&y=18847&z=18&styles=pl", w.Header().Get("Location"))

	w, env := do(t, r, http.MethodGet, "/tileindex/baidu/18/181684/112224", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"z":18,"x":50612,"y":18847}`, string(env.Data))

	w, _ = do(t, r, http.MethodGet, "/tile/bing/1/0/0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLayer_CRUD(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/layer?datum=gcj02", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64
		List  []models.MapLayer
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(4), list.Total)

	w, env = do(t, r, http.MethodPost, "/layer", `{"name":"gaodeNight","urlTemplate":"http://webrd0{s}.is.autonavi.com/appmaptile?style=7&x={x}&y={y}&z={z}","subdomains":"1234","maxZoom":18}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created models.MapLayer
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "gcj02", created.Datum)

	w, _ = do(t, r, http.MethodGet, "/tile/gaodeNight/4/10/3", "")
	assert.Equal(t, http.StatusFound, w.Code)

	w, env = do(t, r, http.MethodPut, "/layer/gaodeNight", `{"title":"高德夜间"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.MapLayer
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "高德夜间", updated.Title)

	w, _ = do(t, r, http.MethodDelete, "/layer/gaodeNight", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/layer/gaodeNight", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/layer", `{"name":"custom","urlTemplate":"http://x/{z}/{x}/{y}"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type sessionBody struct {
	Session models.ViewSession
	Switch  struct {
		ZoomDelta   int
		Transformed bool
		CRS         string
	}
}

func TestView_CreateSwitchMove(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodPost, "/view", `{"layer":"gaode"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created sessionBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Session.ID
	assert.Equal(t, "gaode", created.Session.Layer)
	assert.Equal(t, 17, created.Session.Zoom)

	w, env = do(t, r, http.MethodPost, "/view/"+id+"/switch", `{"layer":"baidu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var switched sessionBody
	require.NoError(t, json.Unmarshal(env.Data, &switched))
	assert.Equal(t, 18, switched.Session.Zoom)
	assert.Equal(t, 1, switched.Switch.ZoomDelta)
	assert.Equal(t, "baidu", switched.Switch.CRS)

	w, env = do(t, r, http.MethodPut, "/view/"+id, `{"center":[121.48,31.24],"zoom":12}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, "/view/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Session models.ViewSession
		Datum   string
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 12, got.Session.Zoom)
	assert.Equal(t, 121.48, got.Session.CenterLng)
	assert.Equal(t, "bd09", got.Datum)

	w, _ = do(t, r, http.MethodPost, "/view/"+id+"/switch", `{"layer":"bing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodPost, "/view/"+id+"/switch", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, r, http.MethodGet, "/view/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPut, "/view/"+id, `{"center":[121.48,31.24],"zoom":1100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, r, http.MethodPut, "/view/"+id, `{"center":[121.48,131.24],"zoom":12}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestView_CreateDefaultLayer(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodPost, "/view", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created sessionBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "baidu", created.Session.Layer)
	assert.True(t, created.Switch.Transformed)
}

func TestView_TrackWebSocket(t *testing.T) {
	r := newTestEngine(t)
	_, env := do(t, r, http.MethodPost, "/view", `{"layer":"baidu"}`)
	var created sessionBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/view/" + created.Session.ID + "/track"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type  string
		Layer string
		Point *struct {
			Layer     [2]float64
			Projected [2]float64
			Tile      *struct{ Z, X, Y int }
			Distance  float64
		}
		Message string
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "init", msg.Type)
	assert.Equal(t, "baidu", msg.Layer)

	require.NoError(t, conn.WriteJSON(map[string]float64{"lat": 39.9075, "lng": 116.3913}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "position", msg.Type)
	require.NotNil(t, msg.Point)

	lng, lat := coordconv.NewOffsetConverter().Convert(coordconv.WGS84, coordconv.BD09, 116.3913, 39.9075)
	x, y := coordconv.Forward(lng, lat)
	assert.InDelta(t, lng, msg.Point.Layer[0], 1e-9)
	assert.InDelta(t, lat, msg.Point.Layer[1], 1e-9)
	assert.InDelta(t, x, msg.Point.Projected[0], 1e-6)
	assert.InDelta(t, y, msg.Point.Projected[1], 1e-6)
	assert.NotNil(t, msg.Point.Tile)

	require.NoError(t, conn.WriteJSON(map[string]float64{"lat": 120, "lng": 0}))
	msg.Point = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "complete"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "complete", msg.Type)
}

func TestView_TrackUnknownSession(t *testing.T) {
	r := newTestEngine(t)
	w, _ := do(t, r, http.MethodGet, "/view/missing/track", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
