package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := performRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Chillas API is running", response["message"])
}

func TestDatabaseStatus(t *testing.T) {
	setupControllerTest(t)
	router := gin.New()
	router.GET("/database/status", DatabaseStatus)

	w := performRequest(router, http.MethodGet, "/database/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	tables := decodeResponse(t, w)["tables"].([]interface{})
	assert.Contains(t, tables, "orders")
	assert.Contains(t, tables, "menu_items")
	assert.Contains(t, tables, "site_settings")
}

func TestDatabaseStatus_NotConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	previous := config.GetDB()
	config.SetDB(nil)
	defer config.SetDB(previous)

	router := gin.New()
	router.GET("/database/status", DatabaseStatus)

	w := performRequest(router, http.MethodGet, "/database/status", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DATABASE_ERROR", errorCode(t, w))
}
