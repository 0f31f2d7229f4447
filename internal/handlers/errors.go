package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP responses. fallback is the
// message used for unexpected failures.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var dup *apperrors.DuplicateStatementError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &dup):
		logger.Info("Duplicate statement", slog.String("fingerprint", dup.Fingerprint), slog.String("existing_id", dup.Existing.ID))
		c.JSON(http.StatusConflict, dto.ToDuplicateStatementResponse(dup))
	case errors.Is(err, apperrors.ErrUnparseableEmail):
		logger.Info("Email without a recognizable transaction")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apperrors.ErrUnparseableEmail.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAnalyzerUnavailable):
		logger.Warn("Statement analyzer not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest:
		logger.Warn("Bad request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
