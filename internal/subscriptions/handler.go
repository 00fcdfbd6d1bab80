package subscriptions

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
	rg.GET("/plans", h.plans)
	rg.GET("/subscriptions", h.list)
	rg.GET("/subscriptions/active", h.active)
	rg.POST("/subscriptions", h.subscribe)
	rg.POST("/subscriptions/:id/switch", h.switchPlan)
	rg.DELETE("/subscriptions/:id", h.cancel)
}

func (h *Handler) plans(c *gin.Context) {
	respond.OK(c, plansResponse{Plans: h.Svc.Plans()})
}

func (h *Handler) list(c *gin.Context) {
	c.Set(middleware.OperationKey, "subscriptions.list")
	subs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, listResponse{Subscriptions: subs})
}

func (h *Handler) active(c *gin.Context) {
	c.Set(middleware.OperationKey, "subscriptions.active")
	subs, err := h.Svc.Active(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, listResponse{Subscriptions: subs})
}

func (h *Handler) subscribe(c *gin.Context) {
	c.Set(middleware.OperationKey, "subscriptions.subscribe")
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "plan and paymentMethod are required", nil)
		return
	}
	subscriber := req.SubscriberName
	if subscriber == "" {
		subscriber = firstNonEmpty(middleware.UserNameFromContext(c), middleware.UserEmailFromContext(c))
	}
	sub, err := h.Svc.Subscribe(c.Request.Context(), middleware.UserIDFromContext(c), SubscribeInput{
		Plan:           req.Plan,
		PaymentMethod:  req.PaymentMethod,
		SubscriberName: subscriber,
	})
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, sub)
}

func (h *Handler) switchPlan(c *gin.Context) {
	c.Set(middleware.OperationKey, "subscriptions.switch")
	sub, err := h.Svc.SwitchPlan(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, sub)
}

func (h *Handler) cancel(c *gin.Context) {
	c.Set(middleware.OperationKey, "subscriptions.cancel")
	sub, err := h.Svc.Cancel(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, sub)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
