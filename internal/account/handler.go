package account

import (
	"net/http"
	"strings"

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
	rg.DELETE("/account", h.deleteAccount)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	c.Set(middleware.OperationKey, "account.delete")
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	if _, err := h.Svc.Delete(c.Request.Context(), userID, middleware.RequestIDFromContext(c)); err != nil {
		respond.AppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
