package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"emirates-studios/internal/clock"
	"emirates-studios/internal/db"
	"emirates-studios/internal/models"
	"emirates-studios/internal/services"
)

type testServer struct {
	server    *httptest.Server
	slides    *services.SlideService
	carousels *services.CarouselService
	hub       *services.WebSocketService
	clock     *clock.Fake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()

	database, err := db.InitDatabase(filepath.Join(dir, "studio.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store, err := services.NewShowcaseStore(filepath.Join(dir, "data"), models.ShowcaseSettings{
		IntervalMs:   1000,
		AutoAdvance:  true,
		PauseOnHover: true,
	}, logger)
	require.NoError(t, err)

	fake := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	slides := services.NewSlideService(database, logger)
	hub := services.NewWebSocketService(logger)
	carousels := services.NewCarouselService(slides, store, hub, fake, logger)
	hub.SetCommandHandler(carousels)
	go hub.Run()
	t.Cleanup(hub.Stop)
	t.Cleanup(carousels.Close)

	handler := SetupRoutes(Handlers{
		Carousel:  NewCarouselHandler(carousels, logger),
		Slides:    NewSlideHandler(slides, carousels, logger),
		Showcases: NewShowcaseHandler(store, slides, carousels, logger),
		WebSocket: NewWebSocketHandler(hub, nil, logger),
		Static:    NewStaticHandler(dir, store.DataPath()),
	}, nil, logger)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testServer{
		server:    server,
		slides:    slides,
		carousels: carousels,
		hub:       hub,
		clock:     fake,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (ts *testServer) createSlides(t *testing.T, showcase string, titles ...string) []*models.Slide {
	t.Helper()
	var out []*models.Slide
	for _, title := range titles {
		resp := ts.do(t, http.MethodPost, "/api/slides", SlideRequest{Showcase: showcase, Title: title})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		out = append(out, decode[*models.Slide](t, resp))
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSlide_BuildsCarousel(t *testing.T) {
	ts := newTestServer(t)
	slides := ts.createSlides(t, "testimonials", "a", "b", "c")

	resp := ts.do(t, http.MethodGet, "/api/carousel/testimonials", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decode[models.CarouselState](t, resp)
	assert.Equal(t, 3, state.SlideCount)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, slides[0].ID, state.SlideID)
	assert.True(t, state.AutoAdvance)
}

func TestCreateSlide_Invalid(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/slides", SlideRequest{Title: "no showcase"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCarouselNavigation(t *testing.T) {
	ts := newTestServer(t)
	ts.createSlides(t, "portfolio", "a", "b", "c")

	resp := ts.do(t, http.MethodPost, "/api/carousel/portfolio/previous", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[models.CarouselState](t, resp).Index)

	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[models.CarouselState](t, resp).Index)

	index := 1
	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/goto", GoToRequest{Index: &index})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[models.CarouselState](t, resp).Index)

	outOfRange := 3
	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/goto", GoToRequest{Index: &outOfRange})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/goto", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	assert.Equal(t, 1, decode[models.CarouselState](t, resp).Index)
}

func TestCarouselPauseAndAutoplay(t *testing.T) {
	ts := newTestServer(t)
	ts.createSlides(t, "portfolio", "a", "b")

	resp := ts.do(t, http.MethodPost, "/api/carousel/portfolio/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[models.CarouselState](t, resp)
	assert.True(t, state.Paused)
	assert.False(t, state.Armed)

	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/resume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.CarouselState](t, resp).Armed)

	disabled := false
	resp = ts.do(t, http.MethodPost, "/api/carousel/portfolio/autoplay", AutoplayRequest{Enabled: &disabled})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[models.CarouselState](t, resp)
	assert.False(t, state.AutoAdvance)
	assert.False(t, state.Armed)
}

func TestCarouselUnknownShowcase(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/carousel/nowhere/next", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/carousel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]*models.CarouselState](t, resp))
}

func TestSlideLifecycle(t *testing.T) {
	ts := newTestServer(t)
	slides := ts.createSlides(t, "portfolio", "a", "b")

	inactive := false
	resp := ts.do(t, http.MethodPut, "/api/slides/"+slides[1].ID, SlideRequest{Title: "b2", IsActive: &inactive})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Slide](t, resp)
	assert.Equal(t, "b2", updated.Title)
	assert.False(t, updated.IsActive)

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	assert.Equal(t, 1, decode[models.CarouselState](t, resp).SlideCount)

	resp = ts.do(t, http.MethodGet, "/api/slides/showcase/portfolio?active=true", nil)
	assert.Len(t, decode[[]*models.Slide](t, resp), 1)

	resp = ts.do(t, http.MethodDelete, "/api/slides/"+slides[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/slides/"+slides[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShowcaseSettings(t *testing.T) {
	ts := newTestServer(t)
	ts.createSlides(t, "portfolio", "a", "b")

	resp := ts.do(t, http.MethodPut, "/api/showcase/portfolio/settings", models.ShowcaseSettings{
		IntervalMs:  3000,
		AutoAdvance: false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	state := decode[models.CarouselState](t, resp)
	assert.Equal(t, 3000, state.IntervalMs)
	assert.False(t, state.AutoAdvance)

	resp = ts.do(t, http.MethodPut, "/api/showcase/portfolio/settings", models.ShowcaseSettings{IntervalMs: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/showcase/portfolio/settings", models.ShowcaseSettings{IntervalMs: 1e13})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[models.CarouselState](t, resp)
	assert.Equal(t, 3000, state.IntervalMs)
}

func TestSlideChangesKeepAutoplayOff(t *testing.T) {
	ts := newTestServer(t)
	ts.createSlides(t, "portfolio", "a", "b")

	disabled := false
	resp := ts.do(t, http.MethodPost, "/api/carousel/portfolio/autoplay", AutoplayRequest{Enabled: &disabled})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ts.createSlides(t, "portfolio", "c")

	resp = ts.do(t, http.MethodGet, "/api/carousel/portfolio", nil)
	state := decode[models.CarouselState](t, resp)
	assert.Equal(t, 3, state.SlideCount)
	assert.False(t, state.AutoAdvance)
	assert.False(t, state.Armed)
}

func TestSaveSlideImage(t *testing.T) {
	ts := newTestServer(t)
	slide := ts.createSlides(t, "portfolio", "reel")[0]
	png := []byte{0x89, 'P', 'N', 'G'}

	resp := ts.do(t, http.MethodPost, "/api/showcase/portfolio/slide-image", SlideImageRequest{
		SlideID:     slide.ID,
		ImageBase64: base64.StdEncoding.EncodeToString(png),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[SlideImageResponse](t, resp)
	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ImagePath, "/media/showcases/portfolio/slides/"))

	media := ts.do(t, http.MethodGet, result.ImagePath, nil)
	require.Equal(t, http.StatusOK, media.StatusCode)

	hidden := ts.do(t, http.MethodGet, "/media/showcases.json", nil)
	assert.Equal(t, http.StatusNotFound, hidden.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/showcase/testimonials/slide-image", SlideImageRequest{
		SlideID:     slide.ID,
		ImageBase64: base64.StdEncoding.EncodeToString(png),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.server.URL+"/api/carousel/portfolio/next", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://emiratesstudios.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func readEvent(t *testing.T, conn *websocket.Conn) models.CarouselEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event models.CarouselEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) models.CarouselEvent {
	t.Helper()
	for {
		event := readEvent(t, conn)
		if event.Type == eventType {
			return event
		}
	}
}

func TestWebSocket_StateAndCommands(t *testing.T) {
	ts := newTestServer(t)
	slides := ts.createSlides(t, "testimonials", "a", "b", "c")

	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	initial := readEvent(t, conn)
	require.Equal(t, models.EventCarouselState, initial.Type)
	require.Len(t, initial.States, 1)
	assert.Equal(t, "testimonials", initial.States[0].Showcase)

	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.CarouselCommand{
		Action:   models.ActionGoTo,
		Showcase: "testimonials",
		Index:    2,
	}))
	event := readUntil(t, conn, models.EventSlideChanged)
	assert.Equal(t, 2, event.Index)
	assert.Equal(t, slides[2].ID, event.SlideID)

	// auto-advance ticks reach the browser too
	ts.clock.Advance(time.Second)
	event = readUntil(t, conn, models.EventSlideChanged)
	assert.Equal(t, 0, event.Index)

	require.NoError(t, conn.WriteJSON(models.CarouselCommand{Action: "spin", Showcase: "testimonials"}))
	event = readUntil(t, conn, models.EventError)
	assert.Contains(t, event.Message, "unknown carousel action")
}
