package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{log: log.With("handler", "SSEHandler"), hub: hub}
}

func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	client := sh.hub.NewClient(rd.UserID)
	defer sh.hub.CloseClient(client)
	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
