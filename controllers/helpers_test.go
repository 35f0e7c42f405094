package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/kendall-kelly/chillas-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupControllerTest installs a fresh database, a permissive config and no
// image storage
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	config.SetConfig(&config.Config{GoEnv: "test"})
	services.SetImageService(nil)
	services.SetMenuCache(nil)
	t.Cleanup(func() {
		config.SetConfig(nil)
		services.SetImageService(nil)
	})
	return db
}

// setupAdminRouter mounts handlers behind the mock admin middleware
func setupAdminRouter() (*gin.Engine, *gin.RouterGroup) {
	router := gin.New()
	admin := router.Group("/admin", testutil.MockAdminMiddleware())
	return router, admin
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"])
	return response["error"].(map[string]interface{})["code"].(string)
}
