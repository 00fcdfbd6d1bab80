package profiles

import (
	"errors"
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
	rg.GET("/profile", h.get)
	rg.POST("/profile", h.create)
	rg.PATCH("/profile", h.update)
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	profile, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, "failed to load profile")
		return
	}
	respond.OK(c, profile)
}

// create is called once after signup; identity fields default to the token claims.
func (h *Handler) create(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req createProfileRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}
	profile := Profile{
		ID:       middleware.UserIDFromContext(c),
		FullName: firstNonEmpty(req.FullName, middleware.UserNameFromContext(c)),
		Email:    firstNonEmpty(req.Email, middleware.UserEmailFromContext(c)),
		PhotoURL: firstNonEmpty(req.PhotoURL, middleware.UserPictureFromContext(c)),
	}
	created, err := h.Svc.Create(c.Request.Context(), profile)
	if err != nil {
		h.writeError(c, err, "failed to create profile")
		return
	}
	respond.JSON(c, http.StatusCreated, created)
}

func (h *Handler) update(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	updated, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), patch)
	if err != nil {
		h.writeError(c, err, "failed to update profile")
		return
	}
	respond.OK(c, updated)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile fields", verr.Fields)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "profile not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
