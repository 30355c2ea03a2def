package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lokapasar-be/internal/logger"
	"lokapasar-be/pkg/apperr"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

// respondError maps a service error to its HTTP status. Internal causes
// are logged, never serialized.
func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Code >= apperr.CodeInternal {
		logger.FromCtx(c.Request.Context()).Error("request failed", zap.Error(err))
	}
	c.JSON(apperr.HTTPStatus(appErr.Code), envelope{
		Success: false,
		Error:   &errorBody{Code: appErr.Code, Message: appErr.Message},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   &errorBody{Code: apperr.CodeBindError, Message: "invalid request: " + err.Error()},
	})
}
