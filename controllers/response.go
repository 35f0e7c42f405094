package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/kendall-kelly/chillas-api/utils"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string, details ...string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		body["details"] = details[0]
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func respondValidation(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

// errorMapping is the HTTP status and error code for each service sentinel
var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{services.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found"},
	{services.ErrMenuItemNotFound, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found"},
	{services.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found"},
	{services.ErrSettingsNotFound, http.StatusNotFound, "SETTINGS_NOT_FOUND", "Site settings not found"},
	{services.ErrSectionNotFound, http.StatusNotFound, "SECTION_NOT_FOUND", "Content section not found"},
	{services.ErrSiteImageNotFound, http.StatusNotFound, "SITE_IMAGE_NOT_FOUND", "Site image not found"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS", "Invalid order status"},
	{services.ErrInvalidPaymentStatus, http.StatusBadRequest, "INVALID_STATUS", "Invalid payment status"},
	{services.ErrInvalidSection, http.StatusBadRequest, "INVALID_SECTION", "Unknown content section"},
	{services.ErrIllegalTransition, http.StatusConflict, "ILLEGAL_TRANSITION", "Order cannot move to that status"},
	{services.ErrSettingsExist, http.StatusConflict, "SETTINGS_EXIST", "Site settings already exist"},
	{services.ErrMenuItemInUse, http.StatusConflict, "MENU_ITEM_IN_USE", "Menu item is referenced by existing orders; mark it unavailable instead"},
	{services.ErrCategoryInUse, http.StatusConflict, "CATEGORY_IN_USE", "Category still has menu items"},
	{services.ErrDuplicateName, http.StatusConflict, "DUPLICATE_NAME", "Name already in use"},
	{services.ErrOrderNumberTaken, http.StatusConflict, "DUPLICATE_ORDER_NUMBER", "Order number already in use"},
	{services.ErrOrderNumberExhausted, http.StatusServiceUnavailable, "ORDER_NUMBER_UNAVAILABLE", "Could not assign an order number, please try again"},
}

// handleServiceError writes the envelope for err. Unknown errors are logged
// and reported as DATABASE_ERROR with fallback as the message.
func handleServiceError(c *gin.Context, err error, fallback string) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error())
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			if m.err == services.ErrIllegalTransition {
				respondError(c, m.status, m.code, m.message, err.Error())
				return
			}
			respondError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Printf("%s: %v", fallback, err)
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", fallback)
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param)
		return 0, false
	}
	return uint(id), true
}

func orderService() *services.OrderService {
	strict := false
	if cfg := config.GetConfig(); cfg != nil {
		strict = cfg.StrictOrderTransitions
	}
	return services.NewOrderService(config.GetDB(), services.WithStrictTransitions(strict))
}

func catalogService() *services.CatalogService {
	return services.NewCatalogService(config.GetDB())
}

func contentService() *services.ContentService {
	return services.NewContentService(config.GetDB())
}

// requireImageService writes a 503 when no image storage is configured
func requireImageService(c *gin.Context) (services.ImageService, bool) {
	imageService := services.GetImageService()
	if imageService == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return nil, false
	}
	return imageService, true
}
