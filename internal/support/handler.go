package support

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/shared/server/middleware"
	"socioscan-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/support", h.submit)
}

func (h *Handler) submit(c *gin.Context) {
	c.Set(middleware.OperationKey, "support.submit")
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	err := h.Svc.Submit(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserEmailFromContext(c), req)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "sent"})
}
