package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
	"github.com/quarind/docqa/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, err.Error())
	case appErr.IsValidation(err):
		response.Error(c, http.StatusBadRequest, err.Error())
	case appErr.IsCapability(err):
		logutil.GetLogger(c.Request.Context()).Error("ai capability unavailable",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "ai provider unavailable, try again later")
	default:
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
