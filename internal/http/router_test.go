// README: End-to-end handler tests over the gin router with a virtual clock.
package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "quickride/internal/http"
	"quickride/internal/config"
	"quickride/internal/modules/chat"
	"quickride/internal/modules/events"
	"quickride/internal/modules/ride"
	"quickride/internal/places"
	"quickride/internal/sched"
)

type testApp struct {
	router *gin.Engine
	loop   *sched.Loop
	rides  *ride.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()
	loop := sched.NewLoop(sched.NewManualClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)), logger)
	reg := ride.NewRegistry()
	hub := events.NewHub()
	chatSvc := chat.NewService(reg, loop, hub,
		config.ChatConfig{ReplyDelay: 1500 * time.Millisecond, ReplyText: "Entendido, estou a caminho!"},
		chat.WithLogger(logger))
	rides := ride.NewService(reg, loop, config.LifecycleConfig{Tick: 4 * time.Second, RandSeed: 3},
		ride.WithLogger(logger), ride.WithEvents(hub), ride.WithChatCloser(chatSvc))
	router := apihttp.NewRouter(apihttp.RouterDeps{
		Rides:  rides,
		Chat:   chatSvc,
		Hub:    hub,
		Places: places.Static{},
		Log:    logger,
	})
	return &testApp{router: router, loop: loop, rides: rides}
}

func (a *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func validRideBody() map[string]any {
	return map[string]any{
		"destination":        "Av. Paulista, 1000",
		"passenger_name":     "Ana Souza",
		"passenger_cpf":      "529.982.247-25",
		"passenger_whatsapp": "11987654321",
		"category":           "CARRO",
	}
}

func (a *testApp) createRide(t *testing.T) string {
	t.Helper()
	w := a.do(http.MethodPost, "/api/rides", validRideBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["ride_id"].(string)
}

func TestCreateRide(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodPost, "/api/rides", validRideBody())
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ACCEPTED", body["status"])
	assert.Len(t, body["os_number"], 8)

	w = app.do(http.MethodGet, "/api/rides/"+body["ride_id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "active", got["collection"])
	r := got["ride"].(map[string]any)
	assert.Equal(t, "529.***.***-25", r["passenger_cpf"])
	assert.Equal(t, "(11) 98765-4321", r["passenger_whatsapp"])
}

func TestCreateRide_ValidationErrors(t *testing.T) {
	app := newTestApp(t)
	body := validRideBody()
	body["passenger_cpf"] = "123.456.789-00"
	body["category"] = "BIKE"

	w := app.do(http.MethodPost, "/api/rides", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	got := decode(t, w)
	assert.Equal(t, "invalid ride parameters", got["error"])
	fields := got["fields"].([]any)
	assert.Len(t, fields, 2)

	w = app.do(http.MethodPost, "/api/rides", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/rides", nil)
	assert.Empty(t, decode(t, w)["rides"])
}

func TestCreateRide_DriverAndCategoryShareErrorShape(t *testing.T) {
	app := newTestApp(t)
	body := validRideBody()
	body["category"] = "moto"
	body["driver"] = map[string]any{"name": "Zé", "vehicle": "Gol", "plate": "AAA-0000", "rating": 7}

	w := app.do(http.MethodPost, "/api/rides", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	got := decode(t, w)
	assert.Equal(t, "invalid ride parameters", got["error"])
	assert.ElementsMatch(t, []any{
		map[string]any{"field": "category", "rule": "category"},
		map[string]any{"field": "driver.rating", "rule": "lte"},
	}, got["fields"])
	assert.Empty(t, app.rides.ListActive())
}

func TestGetRide_BadAndUnknownIDs(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/api/rides/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/rides/6f1c2a8e-3b7d-4e59-9a0c-1d2e3f405162", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelRide_Idempotent(t *testing.T) {
	app := newTestApp(t)
	id := app.createRide(t)

	w := app.do(http.MethodPost, "/api/rides/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["cancelled"])

	w = app.do(http.MethodDelete, "/api/rides/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["cancelled"])

	w = app.do(http.MethodGet, "/api/rides/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessages_SendAndReply(t *testing.T) {
	app := newTestApp(t)
	id := app.createRide(t)

	w := app.do(http.MethodPost, "/api/rides/"+id+"/messages", map[string]string{"text": "Estou no portão"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "passenger", decode(t, w)["sender"])

	w = app.do(http.MethodPost, "/api/rides/"+id+"/messages", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/api/rides/"+id+"/messages", map[string]string{"text": "oi", "sender": "dispatcher"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.loop.Advance(2 * time.Second)
	w = app.do(http.MethodGet, "/api/rides/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode(t, w)["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "driver", msgs[1].(map[string]any)["sender"])

	w = app.do(http.MethodGet, "/api/rides/6f1c2a8e-3b7d-4e59-9a0c-1d2e3f405162/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory_ListsFinishedRides(t *testing.T) {
	app := newTestApp(t)
	_, err := app.rides.SeedHistory()
	require.NoError(t, err)

	w := app.do(http.MethodGet, "/api/rides/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rides := decode(t, w)["rides"].([]any)
	require.Len(t, rides, 1)
	assert.Equal(t, "Carlos Oliveira", rides[0].(map[string]any)["passenger_name"])
}

func TestFormatAndPlacesAndHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/format/cpf?value=52998224725", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, true, got["valid"])
	assert.Equal(t, "529.982.247-25", got["masked"])

	w = app.do(http.MethodGet, "/api/places/suggest?q=a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["suggestions"])

	w = app.do(http.MethodGet, "/api/places/suggest?q=luz&lat=abc&lng=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/places/reverse?lat=-23.5&lng=-46.6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Coordenadas: -23.5000, -46.6000", decode(t, w)["address"])

	w = app.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestChatSession_StreamsAndClosesOnCancel(t *testing.T) {
	app := newTestApp(t)
	id := app.createRide(t)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rides/" + id + "/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "Cheguei"}))

	var e map[string]any
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "chat.message", e["type"])
	assert.Equal(t, "Cheguei", e["data"].(map[string]any)["text"])

	w := app.do(http.MethodDelete, "/api/rides/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var types []string
	for {
		var e map[string]any
		if err := conn.ReadJSON(&e); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
		types = append(types, e["type"].(string))
	}
	assert.Equal(t, []string{"ride.cancelled", "chat.closed"}, types)
}

func TestChatSession_UnknownRide(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/api/rides/6f1c2a8e-3b7d-4e59-9a0c-1d2e3f405162/chat", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
