package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	orgModel "profile-server/internal/domains/organization/model"
	"profile-server/internal/shared"
	"profile-server/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys struct {
	keys map[string]*orgModel.APIKey
}

func (f *fakeKeys) ResolveAPIKey(_ context.Context, raw string) (*orgModel.APIKey, error) {
	if key, ok := f.keys[raw]; ok {
		return key, nil
	}
	return nil, errors.New("unknown key")
}

func newRouter(keys APIKeyResolver, tokens TokenValidator, seen *shared.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(keys, tokens))
	r.GET("/probe", func(c *gin.Context) {
		*seen = CurrentActor(c)
		c.Status(http.StatusOK)
	})
	r.GET("/user-only", RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthenticateScopes(t *testing.T) {
	orgID := uuid.New()
	key := &orgModel.APIKey{ID: uuid.New(), OrganizationID: orgID, ReadPermission: true, WritePermission: true, IsEnabled: true}
	keys := &fakeKeys{keys: map[string]*orgModel.APIKey{"secret": key}}
	tokens := jwt.NewManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := tokens.GenerateAccessToken(userID.String(), "a@example.org")
	require.NoError(t, err)

	var seen shared.Actor
	r := newRouter(keys, tokens, &seen)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		scope   shared.Scope
	}{
		{name: "public", status: http.StatusOK, scope: shared.ScopePublic},
		{name: "api key", headers: map[string]string{HeaderAPIKey: "secret"}, status: http.StatusOK, scope: shared.ScopeAPIKey},
		{name: "user", headers: map[string]string{HeaderAuthorization: "Bearer " + token}, status: http.StatusOK, scope: shared.ScopeUser},
		{name: "bad key", headers: map[string]string{HeaderAPIKey: "nope"}, status: http.StatusUnauthorized},
		{name: "bad token", headers: map[string]string{HeaderAuthorization: "Bearer nope"}, status: http.StatusUnauthorized},
		{name: "bad scheme", headers: map[string]string{HeaderAuthorization: "Basic " + token}, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = shared.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.scope, seen.Scope)
			}
		})
	}

	assert.Equal(t, orgID, keys.keys["secret"].OrganizationID)
}

func TestAuthenticateCarriesIdentity(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := tokens.GenerateAccessToken(userID.String(), "a@example.org")
	require.NoError(t, err)

	var seen shared.Actor
	r := newRouter(&fakeKeys{}, tokens, &seen)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderAuthorization, "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, userID, seen.UserID)
	assert.True(t, seen.CanWrite)
}

func TestRequireUser(t *testing.T) {
	keys := &fakeKeys{keys: map[string]*orgModel.APIKey{"secret": {ID: uuid.New(), ReadPermission: true}}}
	var seen shared.Actor
	r := newRouter(keys, jwt.NewManager("s", time.Hour), &seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user-only", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/user-only", nil)
	req.Header.Set(HeaderAPIKey, "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}
