package resumes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/extract"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/server/middleware"
	"socioscan-backend/internal/shared/server/respond"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.upload)
	rg.GET("/resumes/current", h.current)
	rg.DELETE("/resumes/current", h.remove)
	rg.POST("/resumes/scan", h.scan)
}

// RegisterLegacyRoutes mounts the unversioned endpoints older clients call.
func (h *Handler) RegisterLegacyRoutes(r gin.IRoutes) {
	r.POST("/api/parseResume", h.parseResume)
	r.POST("/scan_resume", h.scanResume)
}

func (h *Handler) upload(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.upload")
	limit := h.Svc.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", ErrTooLarge.Error(), gin.H{"maxBytes": limit})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > limit {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrTooLarge.Error(), gin.H{"maxBytes": limit})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	uploaded, err := h.Svc.Upload(c.Request.Context(), middleware.UserIDFromContext(c), middleware.RequestIDFromContext(c), UploadInput{
		Body:        file,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, uploaded)
}

func (h *Handler) current(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.current")
	cur, err := h.Svc.Current(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, cur)
}

func (h *Handler) remove(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.remove")
	if err := h.Svc.Remove(c.Request.Context(), middleware.UserIDFromContext(c), middleware.RequestIDFromContext(c)); err != nil {
		respond.AppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) scan(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.scan")
	var req scanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}
	res, err := h.Svc.Scan(c.Request.Context(), middleware.UserIDFromContext(c), req.ResumeURL)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, res)
}

// parseResume keeps the original word-count contract and error bodies.
//
// Deprecated: clients should call POST /api/v1/resumes/scan.
func (h *Handler) parseResume(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.parse_legacy")
	c.Header("Deprecation", "true")
	var req legacyParseRequest
	_ = c.ShouldBindJSON(&req)
	if req.ResumeURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing resume URL"})
		return
	}
	res, err := h.Svc.ParseLegacy(c.Request.Context(), req.ResumeURL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse resume"})
		return
	}
	c.JSON(http.StatusOK, legacyParseResponse{Score: res.OverallScore, Feedback: res.Feedback})
}

// scanResume serves the scan service contract from the in-process scorer.
func (h *Handler) scanResume(c *gin.Context) {
	c.Set(middleware.OperationKey, "resume.scan_url")
	resumeURL := c.PostForm("resumeUrl")
	if resumeURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "resumeUrl is required"})
		return
	}
	res, err := h.Svc.ScanURL(c.Request.Context(), resumeURL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(legacyScanStatus(err), gin.H{"detail": apperr.MessageOf(err)})
		return
	}
	c.JSON(http.StatusOK, legacyScanResponse{OverallScore: res.OverallScore, CategoryScores: res.CategoryScores})
}

func legacyScanStatus(err error) int {
	switch {
	case errors.Is(err, apperr.Validation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.Storage), extract.StatusCode(err) == http.StatusForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
