package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nanichang/employee-import-engine/internal/repository"
	"github.com/nanichang/employee-import-engine/internal/service"
)

// ImportHandler handles employee-import HTTP requests (§4.12).
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(s *service.ImportService) *ImportHandler {
	return &ImportHandler{service: s}
}

func envelope(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func errEnvelope(c *gin.Context, status int, message string, errs []string) {
	c.JSON(status, gin.H{"success": false, "message": message, "errors": errs})
}

// Upload handles POST /employee-import/upload.
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errEnvelope(c, http.StatusUnprocessableEntity, "file is required", []string{err.Error()})
		return
	}

	result, err := h.service.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			errEnvelope(c, http.StatusUnprocessableEntity, "upload rejected", []string{err.Error()})
			return
		}
		errEnvelope(c, http.StatusInternalServerError, "upload failed", []string{err.Error()})
		return
	}

	envelope(c, http.StatusCreated, result)
}

// Progress handles GET /employee-import/:id/progress.
func (h *ImportHandler) Progress(c *gin.Context) {
	id := c.Param("id")
	p, err := h.service.Progress(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			errEnvelope(c, http.StatusNotFound, "import job not found", nil)
			return
		}
		errEnvelope(c, http.StatusInternalServerError, "failed to read progress", []string{err.Error()})
		return
	}

	envelope(c, http.StatusOK, gin.H{
		"import_job_id":      p.JobID,
		"status":             p.Status,
		"total_rows":         p.TotalRows,
		"processed_rows":     p.ProcessedRows,
		"successful_rows":    p.SuccessfulRows,
		"error_rows":         p.ErrorRows,
		"last_processed_row": p.LastProcessedRow,
		"percentage":         p.Percentage(),
	})
}

// Errors handles GET /employee-import/:id/errors.
func (h *ImportHandler) Errors(c *gin.Context) {
	id := c.Param("id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if perPage > 100 {
		perPage = 100
	}
	rowStart, _ := strconv.Atoi(c.Query("row_start"))
	rowEnd, _ := strconv.Atoi(c.Query("row_end"))

	filter := repository.ErrorFilter{
		ErrorType: c.Query("error_type"),
		RowStart:  rowStart,
		RowEnd:    rowEnd,
		Search:    c.Query("search"),
		Page:      page,
		PerPage:   perPage,
	}

	records, total, err := h.service.Errors(c.Request.Context(), id, filter)
	if err != nil {
		errEnvelope(c, http.StatusInternalServerError, "failed to list errors", []string{err.Error()})
		return
	}

	envelope(c, http.StatusOK, gin.H{
		"import_job_id": id,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
		"records":       records,
	})
}

// Summary handles GET /employee-import/:id/summary.
func (h *ImportHandler) Summary(c *gin.Context) {
	id := c.Param("id")
	summary, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			errEnvelope(c, http.StatusNotFound, "import job not found", nil)
			return
		}
		errEnvelope(c, http.StatusInternalServerError, "failed to build summary", []string{err.Error()})
		return
	}

	envelope(c, http.StatusOK, summary)
}

// Health returns the liveness status of the API, carried from the
// teacher's handler unchanged in spirit.
func (h *ImportHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
