package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profile-server/internal/domains/organization/repository"
	"profile-server/internal/domains/organization/service"
	"profile-server/internal/shared/middleware"
	"profile-server/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewOrganizationService(repository.NewMemoryRepository())
	tokens := jwt.NewManager("test-secret", time.Hour)
	h := NewOrganizationHandler(svc)

	r := gin.New()
	r.Use(middleware.Authenticate(svc, tokens))
	org := r.Group("/org")
	org.GET("/:org", h.Get)
	org.POST("", middleware.RequireUser(), h.Create)
	org.POST("/:org/apikey", middleware.RequireUser(), h.CreateAPIKey)
	return r, tokens
}

func call(r *gin.Engine, method, path, bearer, apiKey string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if apiKey != "" {
		req.Header.Set(middleware.HeaderAPIKey, apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestOrganizationBootstrap(t *testing.T) {
	r, tokens := newRouter(t)
	token, err := tokens.GenerateAccessToken(uuid.NewString(), "admin@example.org")
	require.NoError(t, err)

	w, body := call(r, http.MethodPost, "/org", token, "", gin.H{"name": "Example Working Group"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orgID := body["organization"].(map[string]interface{})["uuid"].(string)

	w, body = call(r, http.MethodPost, "/org/"+orgID+"/apikey", token, "", gin.H{"writePermission": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	key := body["apiKey"].(map[string]interface{})["key"].(string)
	assert.NotEmpty(t, key)

	// the new key authenticates but cannot manage the organization
	w, _ = call(r, http.MethodGet, "/org/"+orgID, "", key, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = call(r, http.MethodPost, "/org/"+orgID+"/apikey", "", key, gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrganizationErrors(t *testing.T) {
	r, tokens := newRouter(t)
	token, err := tokens.GenerateAccessToken(uuid.NewString(), "user@example.org")
	require.NoError(t, err)

	w, body := call(r, http.MethodPost, "/org", "", "", gin.H{"name": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = call(r, http.MethodPost, "/org", token, "", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "name")

	w, _ = call(r, http.MethodGet, "/org/"+uuid.NewString(), "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(r, http.MethodGet, "/org/abc", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
