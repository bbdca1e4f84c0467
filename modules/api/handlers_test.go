package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ephemeral-chat/modules/broadcast"
	"github.com/example/ephemeral-chat/modules/rooms"
)

func newTestAPI(port *fakePort) *Module {
	m := &Module{
		roomsPort: port,
		hub:       broadcast.NewHub(),
		port:      "0",
		logger:    &mockLogger{},
	}
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})
	m.setupRoutes()
	return m
}

func doRequest(t *testing.T, m *Module, method, target string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp, err := m.app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

func TestGenerateRoomCode_Endpoint(t *testing.T) {
	m := newTestAPI(&fakePort{})

	resp, body := doRequest(t, m, http.MethodPost, "/api/v1/rooms/code")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got RoomCodeResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.NoError(t, rooms.ValidateRoomCode(got.Code))
	assert.Len(t, got.Code, rooms.GeneratedCodeLength)
}

func TestPeekRoom_Found(t *testing.T) {
	m := newTestAPI(&fakePort{infoExists: true, infoCount: 2})

	resp, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms/ab12")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got RoomResponse
	require.NoError(t, json.Unmarshal(body, &got))
	// The path parameter is normalized before the lookup.
	assert.Equal(t, "AB12", got.Code)
	assert.Equal(t, 2, got.Members)
}

func TestPeekRoom_NotFound(t *testing.T) {
	m := newTestAPI(&fakePort{})

	resp, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms/ZZZZ")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "not_found", got.Error)
}

func TestPeekRoom_InvalidCode(t *testing.T) {
	port := &fakePort{}
	m := newTestAPI(port)

	resp, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms/x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "invalid_code", got.Error)
	// Rejected before the coordinator is consulted.
	assert.Empty(t, port.recorded())
}

func TestPeekRoom_LookupError(t *testing.T) {
	m := newTestAPI(&fakePort{infoErr: errors.New("bus down")})

	resp, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms/AB12")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "lookup_failed", got.Error)
}

func TestHealthEndpoint(t *testing.T) {
	m := newTestAPI(&fakePort{})

	resp, body := doRequest(t, m, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got HealthResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "healthy", got.Status)
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	m := newTestAPI(&fakePort{})

	resp, _ := doRequest(t, m, http.MethodGet, "/ws")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
