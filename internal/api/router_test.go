package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haedwin/entity-receiver-go/internal/config"
	"github.com/haedwin/entity-receiver-go/internal/core/receiver"
	"github.com/haedwin/entity-receiver-go/internal/websocket"
)

func newTestRouter(t *testing.T) (*receiver.Service, http.Handler) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "production"},
		Receiver: config.ReceiverConfig{UDPPort: 8888, BufferSize: 4096},
	}

	core := receiver.NewService(receiver.Options{Port: 0}, log)
	t.Cleanup(core.Stop)

	hub := websocket.NewHub(log)
	return core, NewRouter(cfg, core, log, hub)
}

func doRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestGetEntitiesEmpty(t *testing.T) {
	_, router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/entities/")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Meta    map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.EqualValues(t, 0, resp.Meta["count"])
}

func TestGetEntityFoundAndMissing(t *testing.T) {
	core, router := newTestRouter(t)

	core.Registry().Upsert(&receiver.EntityRecord{
		EntityID:        "sensor.temp1",
		State:           "21.5",
		Attributes:      map[string]interface{}{"unit_of_measurement": "°C"},
		BroadcasterName: "Test HA",
		SourceIP:        "192.168.1.10",
		LastUpdated:     time.Now(),
	})

	w := doRequest(router, http.MethodGet, "/api/v1/entities/sensor.temp1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data receiver.EntityRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "21.5", resp.Data.State)
	assert.Equal(t, "Test HA", resp.Data.BroadcasterName)

	w = doRequest(router, http.MethodGet, "/api/v1/entities/sensor.absent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListenerStatusEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/listener/")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp.Data["enabled"])
	assert.Equal(t, false, resp.Data["listening"])
	assert.EqualValues(t, 8888, resp.Data["udp_port"])
}

func TestDisableAndEnableListener(t *testing.T) {
	core, router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/listener/disable")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, core.IsEnabled())

	w = doRequest(router, http.MethodPost, "/api/v1/listener/enable")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, core.IsEnabled())
	assert.True(t, core.IsListening())
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
}
