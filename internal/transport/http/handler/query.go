package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/transport/http/response"
)

type QueryHandler struct {
	query *app.QueryService
}

type AskRequest struct {
	Question    string `json:"question" binding:"required"`
	Owner       string `json:"owner"`
	DocumentIDs []uint `json:"document_ids"`
	Model       string `json:"model"`
}

func NewQueryHandler(query *app.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.query.Answer(c.Request.Context(), app.AskInput{
		Owner:         req.Owner,
		Question:      req.Question,
		DocumentIDs:   req.DocumentIDs,
		ModelOverride: req.Model,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrBadSetting):
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "query failed")
		}
		return
	}

	response.OK(c, result)
}

// History returns the most recent query records, newest first.
func (h *QueryHandler) History(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.query.RecentRecords(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list query history failed")
		return
	}
	response.OK(c, records)
}
