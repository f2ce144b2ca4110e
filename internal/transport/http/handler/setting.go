package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/transport/http/response"
)

type SettingHandler struct {
	settings *app.SettingsService
}

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

func NewSettingHandler(settings *app.SettingsService) *SettingHandler {
	return &SettingHandler{settings: settings}
}

func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.settings.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list settings failed")
		return
	}
	response.OK(c, settings)
}

func (h *SettingHandler) Get(c *gin.Context) {
	key := c.Param("key")
	value, err := h.settings.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, app.ErrSettingNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeSettingNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get setting failed")
		}
		return
	}
	response.OK(c, gin.H{"key": key, "value": value})
}

func (h *SettingHandler) Update(c *gin.Context) {
	key := c.Param("key")
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.settings.Set(c.Request.Context(), key, req.Value); err != nil {
		switch {
		case errors.Is(err, app.ErrSettingNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSettingNotFound, err.Error())
		case errors.Is(err, app.ErrBadSetting), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update setting failed")
		}
		return
	}
	response.OK(c, gin.H{"key": key, "value": req.Value})
}
