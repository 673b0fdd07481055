package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quarind/docqa/internal/model"
	"github.com/quarind/docqa/internal/pkg/response"
	"github.com/quarind/docqa/internal/service"
)

type ChatHandler struct {
	svc *service.RAGService
}

type AskRequest struct {
	Question string              `json:"question"`
	History  []model.ChatMessage `json:"history"`
	TopK     int                 `json:"top_k"`
}

func NewChatHandler(svc *service.RAGService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	answer, err := h.svc.Answer(c.Request.Context(), req.Question, req.History, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}
