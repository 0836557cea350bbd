package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystemRouter(h *SystemHandler) *gin.Engine {
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/system/info", h.GetSystemInfo)
	router.GET("/system/ping", h.Ping)
	return router
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	router := newSystemRouter(NewSystemHandler("tempcredit", "1.2.0"))

	w, resp := doRequest(t, router, http.MethodGet, "/system/info", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "tempcredit", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	router := newSystemRouter(NewSystemHandler("tempcredit", "dev"))

	w, resp := doRequest(t, router, http.MethodGet, "/system/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", dataMap(t, resp)["message"])
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("tempcredit", "dev").
		AddCheck("database", func(context.Context) error { return errors.New("down") })
	router := newSystemRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	// liveness ignores dependencies
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSystemHandler_Ready(t *testing.T) {
	tests := []struct {
		name     string
		redisErr error
		status   int
		state    string
	}{
		{"all dependencies up", nil, http.StatusOK, "ready"},
		{"redis down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("tempcredit", "dev").
				AddCheck("database", func(context.Context) error { return nil }).
				AddCheck("redis", func(ctx context.Context) error {
					_, hasDeadline := ctx.Deadline()
					require.True(t, hasDeadline)
					return tt.redisErr
				})
			router := newSystemRouter(h)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Status)
			assert.Equal(t, "ok", body.Checks["database"])
			if tt.redisErr != nil {
				assert.Equal(t, "error", body.Checks["redis"])
			}
		})
	}
}
