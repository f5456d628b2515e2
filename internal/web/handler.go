package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/config"
	"github.com/workflow-crm/report-automation/internal/models"
	"github.com/workflow-crm/report-automation/internal/pipeline"
	"github.com/workflow-crm/report-automation/internal/report"
)

// maxUploadBytes caps the accepted CSV size.
const maxUploadBytes = 10 << 20

const historyLimit = 10

// Generator runs one report generation.
type Generator interface {
	Generate(ctx context.Context, csvText, province string, processingDate time.Time) (*report.Result, error)
}

// RunLister reads run history for the form page.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Run, error)
}

// Handler serves the upload form and the report endpoints.
type Handler struct {
	cfg       *config.Config
	generator Generator
	runs      RunLister
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates a new web handler
func NewHandler(cfg *config.Config, generator Generator, runs RunLister, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		generator: generator,
		runs:      runs,
		logger:    logger,
		now:       time.Now,
	}
}

// Index renders the upload form with recent runs.
func (h *Handler) Index(c *gin.Context) {
	runs, err := h.runs.ListRecent(c.Request.Context(), historyLimit)
	if err != nil {
		h.logger.Error("Failed to load run history", zap.Error(err))
		// The form is still usable without history.
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Provinces": h.cfg.Server.Provinces,
		"Runs":      runs,
	})
}

// CreateReport accepts the uploaded CSV, runs the pipeline, uploads the
// sheet, and renders the link with a skipped-row summary. Fatal input
// errors render as a blocking message; skipped rows never block.
func (h *Handler) CreateReport(c *gin.Context) {
	province := c.PostForm("province")
	if !h.cfg.HasProvince(province) {
		h.renderError(c, http.StatusBadRequest, "Unknown province: "+province)
		return
	}

	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Please upload a CSV file first.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}
	if len(data) > maxUploadBytes {
		h.renderError(c, http.StatusRequestEntityTooLarge, "The uploaded file is too large.")
		return
	}

	processingDate, err := h.processingDate(c.PostForm("processing_date"))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Processing date must look like 2006-01-02.")
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), string(data), province, processingDate)
	if err != nil {
		var malformed *pipeline.MalformedError
		var upload *report.UploadError
		switch {
		case errors.As(err, &malformed):
			h.renderError(c, http.StatusUnprocessableEntity, "The CSV could not be processed: "+malformed.Reason+".")
		case errors.As(err, &upload):
			h.logger.Error("Upload failed", zap.Error(err))
			h.renderError(c, http.StatusBadGateway, "The spreadsheet service rejected the upload. Try again later.")
		default:
			h.logger.Error("Report generation failed", zap.Error(err))
			h.renderError(c, http.StatusInternalServerError, "Something went wrong while generating the report.")
		}
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Run":     result.Run,
		"Skipped": result.Skipped,
	})
}

// ListReports returns recent runs as JSON.
func (h *Handler) ListReports(c *gin.Context) {
	runs, err := h.runs.ListRecent(c.Request.Context(), historyLimit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// processingDate parses an optional override, defaulting to today.
func (h *Handler) processingDate(raw string) (time.Time, error) {
	if raw == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "result.html", gin.H{"Error": message})
}
