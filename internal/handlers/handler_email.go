package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// emailHandler handles inbound notification emails and the resulting transactions.
type emailHandler struct {
	emailService portssvc.EmailSvcFacade
}

// RegisterWebhookRoutes registers the inbound email webhook. The group must
// already carry middleware.WebhookAuth.
func RegisterWebhookRoutes(rg *gin.RouterGroup, emailService portssvc.EmailSvcFacade) {
	h := &emailHandler{emailService: emailService}
	rg.POST("/email", h.ingestEmail)
}

// RegisterEmailRoutes registers the authenticated email and transaction routes.
func RegisterEmailRoutes(rg *gin.RouterGroup, emailService portssvc.EmailSvcFacade) {
	h := &emailHandler{emailService: emailService}
	rg.POST("/emails/preview", h.previewEmail)
	rg.GET("/transactions", h.listTransactions)
}

// ingestEmail godoc
// @Summary Ingest a bank notification email
// @Description Parses a forwarded bank email and stores the transaction it describes.
// @Tags webhooks
// @Accept  x-www-form-urlencoded,multipart/form-data,json
// @Produce  json
// @Param   X-Webhook-Secret header string false "Shared webhook secret"
// @Param   X-Ingest-User header string false "Owning user, defaults to the recipient local part"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 422 {object} map[string]string "No transaction found in email"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /webhooks/email [post]
func (h *emailHandler) ingestEmail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InboundEmailRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Warn("Failed to bind inbound email", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.emailService.IngestEmail(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to ingest email")
		return
	}

	logger.Info("Email transaction stored", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// previewEmail godoc
// @Summary Preview email parsing
// @Description Parses an email and returns the transaction without storing it.
// @Tags emails
// @Accept  json
// @Produce  json
// @Param   email body dto.InboundEmailRequest true "Email content"
// @Success 200 {object} dto.EmailPreviewResponse
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 422 {object} map[string]string "No transaction found in email"
// @Security BearerAuth
// @Router /emails/preview [post]
func (h *emailHandler) previewEmail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PreviewEmail", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	preview, err := h.emailService.PreviewEmail(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to parse email")
		return
	}
	c.JSON(http.StatusOK, preview)
}

// listTransactions godoc
// @Summary List ingested transactions
// @Tags emails
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /transactions [get]
func (h *emailHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.emailService.ListTransactions(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}
