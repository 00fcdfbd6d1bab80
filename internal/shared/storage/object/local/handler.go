package local

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/server/respond"
	"socioscan-backend/internal/shared/storage/object"
)

// Handler serves objects addressed by signed URLs.
type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes mounts GET /objects/*key on the /api/v1 group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/objects/*key", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	fileName, err := h.Store.Verify(key, c.Query("token"))
	if err != nil {
		respond.Error(c, http.StatusForbidden, "forbidden", "signed url is invalid or expired", nil)
		return
	}

	rc, err := h.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "object not found", nil)
			return
		}
		respond.Error(c, apperr.HTTPStatus(err), string(apperr.KindOf(err)), "failed to open object", nil)
		return
	}
	defer rc.Close()

	contentType := h.Store.contentType(key)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if fileName == "" {
		fileName = object.BaseName(key)
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", object.InlineDisposition(fileName))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
