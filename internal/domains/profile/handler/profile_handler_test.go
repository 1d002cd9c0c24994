package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	orgModel "profile-server/internal/domains/organization/model"
	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/domains/profile/service"
	"profile-server/internal/domains/profile/validator"
	"profile-server/internal/infrastructure/storage"
	"profile-server/internal/shared/middleware"
	"profile-server/pkg/cache"
	"profile-server/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const writeKey = "write-key"

type stubOrgs struct {
	org *orgModel.Organization
}

func (s *stubOrgs) Get(_ context.Context, id uuid.UUID) (*orgModel.Organization, error) {
	if id == s.org.ID {
		return s.org, nil
	}
	return nil, orgModel.NewNotFound()
}

func (s *stubOrgs) IsMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

type stubKeys struct {
	orgID uuid.UUID
}

func (s *stubKeys) ResolveAPIKey(_ context.Context, raw string) (*orgModel.APIKey, error) {
	if raw != writeKey {
		return nil, errors.New("unknown key")
	}
	return &orgModel.APIKey{ID: uuid.New(), OrganizationID: s.orgID, ReadPermission: true, WritePermission: true, IsEnabled: true}, nil
}

type testServer struct {
	router *gin.Engine
	orgID  uuid.UUID
	store  *storage.MemoryStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	org := &orgModel.Organization{ID: uuid.New(), Name: "Example Working Group", CollaborationLink: "https://example.org/wg"}
	v, err := validator.New()
	require.NoError(t, err)
	svc := service.NewProfileService(repository.NewMemoryRepository(), &stubOrgs{org: org}, v, cache.NewMemoryCache(), nil, nil,
		service.Config{IRIBase: "https://profiles.example.org"})
	h := NewProfileHandler(svc)
	store := storage.NewMemoryStorage()
	snapshots := NewSnapshotHandler(svc, store)

	r := gin.New()
	r.Use(middleware.Authenticate(&stubKeys{orgID: org.ID}, jwt.NewManager("test-secret", time.Hour)))
	v1 := r.Group("/api/v1")
	v1.GET("/profiles", h.ListProfiles)
	v1.POST("/profile/import", h.Import)
	v1.POST("/profile/validate", h.Validate)
	v1.PUT("/profile", h.UpdateProfile)
	v1.GET("/profile/:profile", h.GetProfile)
	v1.DELETE("/profile/:profile", h.DeleteProfile)
	v1.GET("/profile/:profile/export", h.Export)
	v1.GET("/profile/:profile/snapshot", snapshots.GetSnapshot)
	v1.POST("/profile/:profile/publish", h.Publish)
	v1.POST("/profile/:profile/patterns", h.CreatePattern)
	v1.POST("/org/:org/profile", h.CreateProfile)

	return &testServer{router: r, orgID: org.ID, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, key string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.HeaderAPIKey, key)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func fixture(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := os.ReadFile("../testdata/profile.json")
	require.NoError(t, err)
	return raw
}

func TestImportAndExportByIRI(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, writeKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, "published", meta["state"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/profiles?iri=https://example.org/profiles/scorm", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeJSONLD, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
	assert.JSONEq(t, string(fixture(t)), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles?iri=https://example.org/profiles/scorm", nil)
	req.Header.Set("If-Modified-Since", w.Header().Get("Last-Modified"))
	cached := httptest.NewRecorder()
	s.router.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
}

func TestImportRequiresCredentials(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, "bogus")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListProfiles(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/profiles?workinggroup="+uuid.NewString(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []interface{}{}, body["metadata"])

	s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, writeKey)
	w, body = s.do(t, http.MethodGet, "/api/v1/profiles?workinggroup="+s.orgID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["metadata"], 1)

	w, body = s.do(t, http.MethodGet, "/api/v1/profiles?workinggroup=nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/profile/validate", []byte(fixture(t)), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile is valid.", body["message"])

	w, body = s.do(t, http.MethodPost, "/api/v1/profile/validate", []byte(`{"id": "nope"}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["errors"])
}

func TestPublishedVersionCannotBeDeleted(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, writeKey)
	meta := body["metadata"].(map[string]interface{})
	versionID := meta["uuid"].(string)
	rootID := meta["parentProfile"].(string)

	// the draft created by publishing goes first
	w, _ := s.do(t, http.MethodDelete, "/api/v1/profile/"+rootID, nil, writeKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodDelete, "/api/v1/profile/"+versionID, nil, writeKey)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Not Allowed: Only drafts can be deleted.", body["message"])

	w, _ = s.do(t, http.MethodDelete, "/api/v1/profile/"+versionID, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/"+rootID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePublishAndAuthor(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/org/"+s.orgID.String()+"/profile",
		gin.H{"name": "Authored", "description": "Built through the API."}, writeKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := body["profile"].(map[string]interface{})
	rootID := profile["uuid"].(string)

	w, body = s.do(t, http.MethodPost, "/api/v1/profile/"+rootID+"/patterns", gin.H{
		"iriType": "external", "extiri": "https://example.org/patterns/ bad", "primaryorsecondary": "secondary",
		"type": "sequence", "members": []gin.H{{"iri": "https://example.org/templates/x"}},
	}, writeKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := body["errors"].([]interface{})
	assert.Equal(t, "extiri", errs[0].(map[string]interface{})["field"])

	w, body = s.do(t, http.MethodPost, "/api/v1/profile/"+rootID+"/publish", nil, writeKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "published", body["profile"].(map[string]interface{})["state"])
	parent := body["parentProfile"].(map[string]interface{})
	assert.Equal(t, rootID, parent["uuid"])
	assert.NotEmpty(t, parent["currentDraftVersion"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/"+rootID+"/export", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidIDs(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/profile/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodPost, "/api/v1/profile/import", gin.H{"profile": fixture(t)}, writeKey)
	meta := body["metadata"].(map[string]interface{})
	versionID := meta["uuid"].(string)
	rootID := meta["parentProfile"].(string)

	w, _ := s.do(t, http.MethodGet, "/api/v1/profile/"+versionID+"/snapshot", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	key := storage.SnapshotKey(uuid.MustParse(rootID), int(meta["version"].(float64)))
	require.NoError(t, s.store.Upload(context.Background(), key, fixture(t), ContentTypeJSONLD))

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/"+versionID+"/snapshot", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeJSONLD, w.Header().Get("Content-Type"))
	assert.JSONEq(t, string(fixture(t)), w.Body.String())
}
