package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/middleware"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memOverrideRepo struct {
	byID map[string]models.Override
}

func newMemOverrideRepo() *memOverrideRepo {
	return &memOverrideRepo{byID: make(map[string]models.Override)}
}

func (m *memOverrideRepo) GetAll() ([]models.Override, error) {
	out := make([]models.Override, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOverrideRepo) SetMany(overrides []models.Override) error {
	for _, o := range overrides {
		m.byID[o.ProductID] = o
	}
	return nil
}

func (m *memOverrideRepo) DeleteOne(productID string) (bool, error) {
	_, ok := m.byID[productID]
	delete(m.byID, productID)
	return ok, nil
}

func (m *memOverrideRepo) DeleteAll() (int64, error) {
	n := int64(len(m.byID))
	m.byID = make(map[string]models.Override)
	return n, nil
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOverrideCRUD(t *testing.T) {
	repo := newMemOverrideRepo()
	h := NewOverrideHandler(service.NewOverrideService(repo))

	router := gin.New()
	router.GET("/v1/overrides", h.List)
	router.POST("/v1/overrides", h.Set)
	router.DELETE("/v1/overrides/:id", h.Delete)
	router.DELETE("/v1/overrides", h.Clear)

	// Store two overrides.
	w := doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{
		"overrides": []gin.H{
			{"id": "1001", "price": "49990.99"},
			{"id": "1002", "price": "100.00"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Re-posting an id updates, not duplicates.
	w = doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{
		"overrides": []gin.H{{"id": "1001", "price": "45000.00"}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/overrides", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 2, data["count"])

	// Delete one, then the rest.
	w = doJSON(t, router, http.MethodDelete, "/v1/overrides/1001", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/overrides/1001", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/overrides", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/overrides", nil, nil)
	resp = decodeEnvelope(t, w)
	assert.EqualValues(t, 0, resp.Data.(map[string]any)["count"])
}

func TestOverrideSetRejectsBadPrice(t *testing.T) {
	h := NewOverrideHandler(service.NewOverrideService(newMemOverrideRepo()))
	router := gin.New()
	router.POST("/v1/overrides", h.Set)

	w := doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{
		"overrides": []gin.H{{"id": "1001", "price": "дорого"}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{"overrides": []gin.H{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProtectedRoute(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := service.NewAuthService(config.AdminConfig{
		Username:     "admin",
		PasswordHash: string(hash),
	}, "test-secret")

	authHandler := NewAuthHandler(authSvc)
	overrideHandler := NewOverrideHandler(service.NewOverrideService(newMemOverrideRepo()))
	jwtMw := middleware.NewJWTMiddleware("test-secret")

	router := gin.New()
	router.POST("/v1/auth/login", authHandler.Login)
	protected := router.Group("/v1", jwtMw.Handle())
	protected.POST("/overrides", overrideHandler.Set)

	// No token.
	w := doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{
		"overrides": []gin.H{{"id": "1", "price": "10.00"}},
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Bad password.
	w = doJSON(t, router, http.MethodPost, "/v1/auth/login", gin.H{
		"username": "admin", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Good login.
	w = doJSON(t, router, http.MethodPost, "/v1/auth/login", gin.H{
		"username": "admin", "password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	token := resp.Data.(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	// Token opens the protected route.
	w = doJSON(t, router, http.MethodPost, "/v1/overrides", gin.H{
		"overrides": []gin.H{{"id": "1", "price": "10.00"}},
	}, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(config.CatalogConfig{
		Path:        "/nonexistent/products.xml",
		SnapshotNew: "/nonexistent/products.xlsx",
	})
	router := gin.New()
	router.GET("/v1/health", h.GetHealth)

	w := doJSON(t, router, http.MethodGet, "/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	files := resp.Data.(map[string]any)["files"].(map[string]any)
	assert.Equal(t, false, files["catalog"])
}
