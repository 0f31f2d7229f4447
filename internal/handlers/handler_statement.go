package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StatementRoutesConfig carries the upload limits of the statement routes.
type StatementRoutesConfig struct {
	MaxUploadBytes  int64
	AnalysisTimeout time.Duration
	// UploadMiddleware runs before the upload handler, e.g. a per-user rate limit.
	UploadMiddleware []gin.HandlerFunc
}

// statementHandler handles HTTP requests related to card statements.
type statementHandler struct {
	statementService   portssvc.StatementSvcFacade
	attributionService portssvc.AttributionSvc
	analysisService    portssvc.StatementAnalysisSvc
	cfg                StatementRoutesConfig
}

// RegisterStatementRoutes registers routes related to statements.
func RegisterStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade, attributionService portssvc.AttributionSvc, analysisService portssvc.StatementAnalysisSvc, cfg StatementRoutesConfig) {
	h := &statementHandler{
		statementService:   statementService,
		attributionService: attributionService,
		analysisService:    analysisService,
		cfg:                cfg,
	}

	statements := rg.Group("/statements")
	{
		statements.POST("", h.reconcileStatement)
		statements.POST("/upload", append(cfg.UploadMiddleware, h.uploadStatement)...)
		statements.GET("", h.listStatements)
		statements.GET("/:id", h.getStatement)
		statements.DELETE("/:id", h.deleteStatement)
		statements.POST("/:id/attribution", h.attributeStatement)
	}
}

// reconcileStatement godoc
// @Summary Save an analyzed statement
// @Description Stores a statement extraction with duplicate detection. A duplicate returns 409 with the existing statement so the client can retry with overwrite.
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   statement body dto.ReconcileRequest true "Extraction and options"
// @Success 201 {object} dto.GetStatementResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} dto.DuplicateStatementResponse "Statement already exists"
// @Failure 500 {object} map[string]string "Failed to save statement"
// @Security BearerAuth
// @Router /statements [post]
func (h *statementHandler) reconcileStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReconcileStatement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	h.reconcile(c, logger, userID, req.Extraction, req.SourceLabel, req.Options())
}

// uploadStatement godoc
// @Summary Upload a statement PDF
// @Description Extracts the PDF text, analyzes it and saves the result like POST /statements.
// @Tags statements
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Statement PDF"
// @Param   detailed formData bool false "Extract line items"
// @Param   overwrite formData bool false "Replace an existing statement"
// @Param   overwriteTargetID formData string false "Statement to replace"
// @Success 201 {object} dto.GetStatementResponse
// @Failure 400 {object} map[string]string "Invalid upload"
// @Failure 409 {object} dto.DuplicateStatementResponse "Statement already exists"
// @Failure 503 {object} map[string]string "Analyzer not configured"
// @Security BearerAuth
// @Router /statements/upload [post]
func (h *statementHandler) uploadStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		logger.Warn("Missing or oversized statement file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A PDF file is required in field 'file'"})
		return
	}
	defer file.Close()

	detailed, _ := strconv.ParseBool(c.PostForm("detailed"))
	overwrite, _ := strconv.ParseBool(c.PostForm("overwrite"))
	opts := dto.ReconcileOptions{Overwrite: overwrite, OverwriteTargetID: c.PostForm("overwriteTargetID")}
	if opts.OverwriteTargetID != "" {
		if _, err := uuid.Parse(opts.OverwriteTargetID); err != nil {
			logger.Warn("Invalid overwriteTargetID", slog.String("overwrite_target_id", opts.OverwriteTargetID))
			c.JSON(http.StatusBadRequest, gin.H{"error": "overwriteTargetID must be a UUID"})
			return
		}
	}

	logger = logger.With(slog.String("file_name", header.Filename), slog.Int64("size", header.Size))
	logger.Info("Received statement upload", slog.Bool("detailed", detailed))

	ctx := c.Request.Context()
	if h.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.AnalysisTimeout)
		defer cancel()
	}
	extraction, err := h.analysisService.AnalyzePDF(ctx, file, header.Size, detailed)
	if err != nil {
		respondError(c, logger, err, "Failed to analyze statement")
		return
	}

	h.reconcile(c, logger, userID, *extraction, header.Filename, opts)
}

func (h *statementHandler) reconcile(c *gin.Context, logger *slog.Logger, userID string, extraction dto.StatementExtraction, sourceLabel string, opts dto.ReconcileOptions) {
	stmt, items, err := h.statementService.Reconcile(c.Request.Context(), userID, extraction, sourceLabel, opts)
	if err != nil {
		respondError(c, logger, err, "Failed to save statement")
		return
	}

	logger.Info("Statement saved", slog.String("statement_id", stmt.StatementID), slog.Int("line_items", len(items)))
	c.JSON(http.StatusCreated, dto.GetStatementResponse{
		Statement: dto.ToStatementResponse(stmt),
		LineItems: dto.ToLineItemResponses(items),
	})
}

// listStatements godoc
// @Summary List statements
// @Description Lists the user's statements, newest first, with token pagination.
// @Tags statements
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListStatementsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /statements [get]
func (h *statementHandler) listStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListStatementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListStatements", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.statementService.ListStatements(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list statements")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getStatement godoc
// @Summary Get a statement
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.GetStatementResponse
// @Failure 404 {object} map[string]string "Statement not found"
// @Security BearerAuth
// @Router /statements/{id} [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	statementID, ok := statementIDParam(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("statement_id", statementID))
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stmt, items, err := h.statementService.GetStatement(c.Request.Context(), userID, statementID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve statement")
		return
	}
	c.JSON(http.StatusOK, dto.GetStatementResponse{
		Statement: dto.ToStatementResponse(stmt),
		LineItems: dto.ToLineItemResponses(items),
	})
}

// deleteStatement godoc
// @Summary Delete a statement
// @Tags statements
// @Param   id path string true "Statement ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Statement not found"
// @Security BearerAuth
// @Router /statements/{id} [delete]
func (h *statementHandler) deleteStatement(c *gin.Context) {
	statementID, ok := statementIDParam(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("statement_id", statementID))
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.statementService.DeleteStatement(c.Request.Context(), userID, statementID); err != nil {
		respondError(c, logger, err, "Failed to delete statement")
		return
	}
	c.Status(http.StatusNoContent)
}

// attributeStatement godoc
// @Summary Re-run charge attribution
// @Description Re-attributes tax and tariff charges of a statement to their consumptions.
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.AttributionResponse
// @Failure 404 {object} map[string]string "Statement not found"
// @Security BearerAuth
// @Router /statements/{id}/attribution [post]
func (h *statementHandler) attributeStatement(c *gin.Context) {
	statementID, ok := statementIDParam(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("statement_id", statementID))
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	updated, err := h.attributionService.AttributeUserStatement(c.Request.Context(), userID, statementID)
	if err != nil {
		respondError(c, logger, err, "Failed to attribute charges")
		return
	}
	logger.Info("Charges re-attributed", slog.Int("updated", updated))
	c.JSON(http.StatusOK, dto.AttributionResponse{StatementID: statementID, Updated: updated})
}

// statementIDParam reads the :id path parameter and answers 404 when it is
// not a UUID.
func statementIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		return "", false
	}
	return id, true
}
