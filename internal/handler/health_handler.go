package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quarind/docqa/internal/pkg/response"
	"github.com/quarind/docqa/internal/service"
)

type HealthHandler struct {
	svc *service.IndexService
}

func NewHealthHandler(svc *service.IndexService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) Check(c *gin.Context) {
	health, err := h.svc.Health(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, health)
}
