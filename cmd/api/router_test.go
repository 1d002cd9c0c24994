package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"profile-server/internal/config"
	"profile-server/internal/shared/middleware"
	"profile-server/pkg/container"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Name: "test", Environment: "test", Version: "test", CORSOrigins: []string{"*"}},
		Store: config.StoreConfig{Driver: config.StoreDriverMemory},
		Redis: config.RedisConfig{Host: "127.0.0.1:1"},
		JWT:   config.JWTConfig{Secret: "router-test", AccessTokenExpiry: 5},
		MinIO: config.MinIOConfig{Enabled: false},
		Profile: config.ProfileConfig{
			IRIBase:          "https://profiles.example.org",
			QueryResultLimit: 50,
			ExportCacheTTL:   time.Minute,
		},
	}
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func (cl *client) do(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	cl.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(cl.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestRouterEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, err := container.Build(context.Background(), testConfig())
	require.NoError(t, err)
	defer c.Cleanup()

	cl := &client{t: t, router: SetupRouter(c)}

	token, err := c.JWTManager.GenerateAccessToken(uuid.NewString(), "admin@example.org")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w, body := cl.do(http.MethodPost, "/api/v1/org", gin.H{"name": "Example Working Group"}, bearer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orgID := body["organization"].(map[string]interface{})["uuid"].(string)

	w, body = cl.do(http.MethodPost, "/api/v1/org/"+orgID+"/apikey", gin.H{"writePermission": true}, bearer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	apiKey := map[string]string{middleware.HeaderAPIKey: body["apiKey"].(map[string]interface{})["key"].(string)}

	doc, err := os.ReadFile("../../internal/domains/profile/testdata/profile.json")
	require.NoError(t, err)

	w, _ = cl.do(http.MethodPost, "/api/v1/profile/import", gin.H{"profile": json.RawMessage(doc)}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = cl.do(http.MethodPost, "/api/v1/profile/import", gin.H{"profile": json.RawMessage(doc)}, apiKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	versionID := body["metadata"].(map[string]interface{})["uuid"].(string)

	w, _ = cl.do(http.MethodGet, "/api/v1/profiles?iri=https://example.org/profiles/scorm", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(doc), w.Body.String())

	w, body = cl.do(http.MethodGet, "/api/v1/profile/"+versionID+"/resolve", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orgID, body["organization"].(map[string]interface{})["uuid"])

	w, _ = cl.do(http.MethodDelete, "/api/v1/profile/"+versionID, nil, apiKey)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// snapshots are written by the worker
	w, _ = cl.do(http.MethodGet, "/api/v1/profile/"+versionID+"/snapshot", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = cl.do(http.MethodGet, "/api/v1/nothing-here", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, err := container.Build(context.Background(), testConfig())
	require.NoError(t, err)
	defer c.Cleanup()

	cl := &client{t: t, router: SetupRouter(c)}

	w, body := cl.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.StoreDriverMemory, body["store"])

	cl.do(http.MethodPost, "/api/v1/profile/validate", gin.H{"id": "nope"}, nil)

	w, _ = cl.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := w.Body.String()
	assert.True(t, strings.Contains(metrics, "profile_server_http_requests_total"))
	assert.True(t, strings.Contains(metrics, `profile_server_validations_total{result="invalid"} 1`))
}
