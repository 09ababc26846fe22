package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
	"github.com/i474232898/weather-lookup/internal/widget"
)

const lyonBody = `{
	"coord": {"lat": 45.75, "lon": 4.85},
	"weather": [{"icon": "10d", "main": "Rain"}],
	"main": {"temp": 18, "temp_min": 16, "temp_max": 20, "humidity": 77},
	"wind": {"speed": 12},
	"name": "Lyon",
	"dt": 1700000000,
	"timezone": 3600
}`

// newUpstream fakes OpenWeatherMap: "Nowhere123" is unknown, everything else is Lyon.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Nowhere123" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Write([]byte(lyonBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, fallback weather.DeviceLocator) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	upstream := newUpstream(t)

	svc := weather.NewService(providers.NewOpenWeatherProvider(upstream.Client(), "secret", upstream.URL))
	sessions := store.NewMemoryStore(time.Hour)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, Options{
		Sessions:       sessions,
		NewWidget:      func() *widget.Widget { return widget.New(svc, nil, 0) },
		DeviceFallback: fallback,
	})
	return app, sessions
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, data
}

type sessionResponse struct {
	ID   string      `json:"id"`
	View widget.View `json:"view"`
}

func createSession(t *testing.T, app *fiber.App, body string) sessionResponse {
	t.Helper()
	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/sessions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, resp.StatusCode, data)
	}
	var out sessionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid session response: %v", err)
	}
	return out
}

func TestCreateSessionWithGeolocation(t *testing.T) {
	app, _ := newTestApp(t, nil)

	out := createSession(t, app, `{"geolocation": {"supported": true, "latitude": 45.75, "longitude": 4.85}}`)
	if out.ID == "" {
		t.Fatalf("expected a session id")
	}
	r := out.View.Reading
	if r == nil {
		t.Fatalf("expected a reading, got %+v", out.View)
	}
	if r.CurrentTemp != "18°C" || r.HumidityPercent != "77%" || r.WindSpeed != "12 km/h" || r.Icon != weather.IconRain {
		t.Fatalf("unexpected reading %+v", r)
	}
}

func TestCreateSessionFallsBackToDeviceLocator(t *testing.T) {
	app, _ := newTestApp(t, weather.StaticLocator{})

	out := createSession(t, app, "")
	if out.View.Error == nil || out.View.Error.Kind != "LocationUnavailable" {
		t.Fatalf("expected LocationUnavailable, got %+v", out.View)
	}
	if out.View.Error.Message != weather.MsgGeolocationAbsent {
		t.Fatalf("unexpected message %q", out.View.Error.Message)
	}

	coords := weather.Coordinates{Latitude: 45.75, Longitude: 4.85}
	app, _ = newTestApp(t, weather.StaticLocator{Coords: &coords})
	out = createSession(t, app, "")
	if out.View.Reading == nil || out.View.Reading.LocationName != "Lyon" {
		t.Fatalf("expected a reading from the configured location, got %+v", out.View)
	}
}

func TestCreateSessionRejectsInvalidGeolocation(t *testing.T) {
	app, sessions := newTestApp(t, nil)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/sessions", `{"geolocation": {"supported": true, "latitude": 123, "longitude": 4}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if sessions.Len() != 0 {
		t.Fatalf("rejected request must not create a session")
	}
}

func TestSearchUnknownCity(t *testing.T) {
	app, _ := newTestApp(t, nil)
	out := createSession(t, app, `{"geolocation": {"supported": true, "latitude": 45.75, "longitude": 4.85}}`)

	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/sessions/"+out.ID+"/search", `{"city": "Nowhere123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var view widget.View
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("invalid view: %v", err)
	}
	if view.Error == nil || view.Error.Kind != "CityLookupFailed" || view.Error.Asset != weather.IconError {
		t.Fatalf("expected city lookup error, got %+v", view)
	}
	if view.Reading != nil {
		t.Fatalf("reading must not be presented alongside the error")
	}
}

func TestSearchKnownCityAndGetView(t *testing.T) {
	app, _ := newTestApp(t, weather.StaticLocator{})
	out := createSession(t, app, "")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/sessions/"+out.ID+"/search", `{"city": "Lyon"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp, data := doJSON(t, app, http.MethodGet, "/api/v1/sessions/"+out.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var view widget.View
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("invalid view: %v", err)
	}
	if view.Error != nil || view.Reading == nil || view.Reading.Description != "Rain" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestEmptySearchLeavesViewUnchanged(t *testing.T) {
	app, _ := newTestApp(t, nil)
	out := createSession(t, app, `{"geolocation": {"supported": true, "latitude": 45.75, "longitude": 4.85}}`)

	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/sessions/"+out.ID+"/search", `{"city": ""}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var view widget.View
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("invalid view: %v", err)
	}
	if view.Reading == nil || *view.Reading != *out.View.Reading {
		t.Fatalf("expected unchanged reading, got %+v", view)
	}
}

func TestLocateReportsDeniedPosition(t *testing.T) {
	app, _ := newTestApp(t, nil)
	out := createSession(t, app, `{"geolocation": {"supported": true, "latitude": 45.75, "longitude": 4.85}}`)

	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/sessions/"+out.ID+"/locate", `{"geolocation": {"supported": true, "error": "PERMISSION_DENIED"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var view widget.View
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("invalid view: %v", err)
	}
	if view.Error == nil || view.Error.Message != weather.MsgPositionFailed {
		t.Fatalf("expected position failure, got %+v", view)
	}
}

func TestUnknownSession(t *testing.T) {
	app, _ := newTestApp(t, nil)

	for _, target := range []string{
		"/api/v1/sessions/3b241101-e2bb-4255-8caf-4136c566a962",
		"/api/v1/sessions/not-a-uuid",
	} {
		resp, _ := doJSON(t, app, http.MethodGet, target, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusNotFound, resp.StatusCode)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	app, sessions := newTestApp(t, weather.StaticLocator{})
	out := createSession(t, app, "")

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/v1/sessions/"+out.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}
	if sessions.Len() != 0 {
		t.Fatalf("expected session to be removed")
	}
}

func TestCurrentWeatherValidation(t *testing.T) {
	app, _ := newTestApp(t, nil)

	cases := map[string]int{
		"/api/v1/weather/current":                    http.StatusBadRequest,
		"/api/v1/weather/current?lat=45.75":          http.StatusBadRequest,
		"/api/v1/weather/current?lat=abc&lon=4.85":   http.StatusBadRequest,
		"/api/v1/weather/current?lat=91&lon=4.85":    http.StatusBadRequest,
		"/api/v1/weather/current?lat=45.75&lon=181":  http.StatusBadRequest,
		"/api/v1/weather/current?lat=45.75&lon=4.85": http.StatusOK,
	}
	for target, want := range cases {
		resp, _ := doJSON(t, app, http.MethodGet, target, "")
		if resp.StatusCode != want {
			t.Errorf("%s: expected status %d, got %d", target, want, resp.StatusCode)
		}
	}
}

func TestGeocode(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp, data := doJSON(t, app, http.MethodGet, "/api/v1/geocode?city=Lyon", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var coords weather.Coordinates
	if err := json.Unmarshal(data, &coords); err != nil {
		t.Fatalf("invalid coordinates: %v", err)
	}
	if coords != (weather.Coordinates{Latitude: 45.75, Longitude: 4.85}) {
		t.Fatalf("unexpected coordinates %+v", coords)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/geocode?city=Nowhere123", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/geocode", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
