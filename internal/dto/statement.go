package dto

import (
	"errors"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ExtractionDateLayout is the date format used by the statement analyzer.
const ExtractionDateLayout = "2/1/2006"

// ExtractedMovement is one detail row of an analyzed statement.
type ExtractedMovement struct {
	Date        string `json:"fecha" validate:"max=32"`
	Description string `json:"descripcion" validate:"max=500"`
	Amount      Amount `json:"monto"`
	Category    string `json:"categoria" validate:"max=100"`
	Kind        string `json:"tipo_transaccion" validate:"max=50"`
}

// StatementExtraction is the structured output of the statement analyzer.
// Keys follow the analyzer prompt and are fixed.
type StatementExtraction struct {
	CutoffDate         string              `json:"fecha_corte" validate:"max=32"`
	PeriodStartDate    string              `json:"fecha_inicio_periodo" validate:"max=32"`
	DueDate            string              `json:"fecha_pago" validate:"max=32"`
	CreditLimit        Amount              `json:"cupo_autorizado"`
	AvailableCredit    Amount              `json:"cupo_disponible"`
	UsedCredit         Amount              `json:"cupo_utilizado"`
	PriorBalance       Amount              `json:"deuda_anterior"`
	PeriodConsumptions Amount              `json:"consumos_debitos"`
	OtherCharges       Amount              `json:"otros_cargos"`
	TotalCharges       Amount              `json:"consumos_cargos_totales"`
	PaymentsAndCredits Amount              `json:"pagos_creditos"`
	Interest           Amount              `json:"intereses"`
	MinimumPayment     Amount              `json:"minimo_a_pagar"`
	TotalPayable       Amount              `json:"deuda_total_pagar"`
	BankName           string              `json:"nombre_banco" validate:"max=200"`
	CardType           string              `json:"tipo_tarjeta" validate:"max=200"`
	LastDigits         FlexString          `json:"ultimos_digitos" validate:"max=8"`
	Movements          []ExtractedMovement `json:"movimientos_detallados" validate:"max=2000,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field bounds. Soft misses such as empty dates are not errors.
func (e StatementExtraction) Validate() error {
	if err := validate.Struct(e); err != nil {
		return apperrors.NewAppError(400, "invalid statement extraction", errors.Join(apperrors.ErrValidation, err))
	}
	return nil
}

// ReconcileOptions controls the duplicate handling of a statement save.
type ReconcileOptions struct {
	Overwrite         bool
	OverwriteTargetID string
}

// ReconcileRequest is the body of POST /api/v1/statements.
type ReconcileRequest struct {
	Extraction        StatementExtraction `json:"extraction" binding:"required"`
	SourceLabel       string              `json:"sourceLabel" binding:"required,max=255"`
	Overwrite         bool                `json:"overwrite"`
	OverwriteTargetID string              `json:"overwriteTargetID" binding:"omitempty,uuid"`
}

// Options extracts the reconcile options from the request.
func (r ReconcileRequest) Options() ReconcileOptions {
	return ReconcileOptions{Overwrite: r.Overwrite, OverwriteTargetID: r.OverwriteTargetID}
}

// ListStatementsParams holds the query parameters of the statement list.
type ListStatementsParams struct {
	Limit     int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// StatementResponse defines the data returned for a statement.
type StatementResponse struct {
	StatementID        string           `json:"statementID"`
	CutoffDate         *time.Time       `json:"cutoffDate"`
	PeriodStartDate    *time.Time       `json:"periodStartDate"`
	DueDate            *time.Time       `json:"dueDate"`
	CreditLimit        decimal.Decimal  `json:"creditLimit"`
	AvailableCredit    decimal.Decimal  `json:"availableCredit"`
	UsedCredit         decimal.Decimal  `json:"usedCredit"`
	PriorBalance       decimal.Decimal  `json:"priorBalance"`
	PeriodConsumptions decimal.Decimal  `json:"periodConsumptions"`
	OtherCharges       decimal.Decimal  `json:"otherCharges"`
	TotalCharges       decimal.Decimal  `json:"totalCharges"`
	PaymentsAndCredits decimal.Decimal  `json:"paymentsAndCredits"`
	Interest           decimal.Decimal  `json:"interest"`
	MinimumPayment     decimal.Decimal  `json:"minimumPayment"`
	TotalPayable       decimal.Decimal  `json:"totalPayable"`
	BankName           string           `json:"bankName"`
	CardType           string           `json:"cardType"`
	LastDigits         string           `json:"lastDigits"`
	Utilization        *decimal.Decimal `json:"utilization"`
	Fingerprint        string           `json:"fingerprint"`
	SourceLabel        string           `json:"sourceLabel"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// LineItemResponse defines the data returned for a statement line.
type LineItemResponse struct {
	LineItemID        string          `json:"lineItemID"`
	Position          int             `json:"position"`
	Date              *time.Time      `json:"date"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	BudgetClass       *string         `json:"budgetClass"`
	Kind              string          `json:"kind"`
	RelatedLineItemID *string         `json:"relatedLineItemID,omitempty"`
}

// GetStatementResponse is a statement together with its lines.
type GetStatementResponse struct {
	Statement StatementResponse  `json:"statement"`
	LineItems []LineItemResponse `json:"lineItems"`
}

// ListStatementsResponse is one page of statements.
type ListStatementsResponse struct {
	Statements []StatementResponse `json:"statements"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// DuplicateStatementResponse is returned with 409 so the client can offer an overwrite.
type DuplicateStatementResponse struct {
	Error       string     `json:"error"`
	Fingerprint string     `json:"fingerprint"`
	StatementID string     `json:"statementID"`
	BankName    string     `json:"bankName"`
	CardType    string     `json:"cardType"`
	CutoffDate  *time.Time `json:"cutoffDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AttributionResponse reports how many charge lines were re-attributed.
type AttributionResponse struct {
	StatementID string `json:"statementID"`
	Updated     int    `json:"updated"`
}

// ToStatementResponse converts a domain.Statement to StatementResponse DTO.
func ToStatementResponse(s *domain.Statement) StatementResponse {
	return StatementResponse{
		StatementID:        s.StatementID,
		CutoffDate:         s.CutoffDate,
		PeriodStartDate:    s.PeriodStartDate,
		DueDate:            s.DueDate,
		CreditLimit:        s.CreditLimit,
		AvailableCredit:    s.AvailableCredit,
		UsedCredit:         s.UsedCredit,
		PriorBalance:       s.PriorBalance,
		PeriodConsumptions: s.PeriodConsumptions,
		OtherCharges:       s.OtherCharges,
		TotalCharges:       s.TotalCharges,
		PaymentsAndCredits: s.PaymentsAndCredits,
		Interest:           s.Interest,
		MinimumPayment:     s.MinimumPayment,
		TotalPayable:       s.TotalPayable,
		BankName:           s.BankName,
		CardType:           s.CardType,
		LastDigits:         s.LastDigits,
		Utilization:        s.Utilization,
		Fingerprint:        s.Fingerprint,
		SourceLabel:        s.SourceLabel,
		CreatedAt:          s.CreatedAt,
	}
}

// ToStatementResponses converts a slice of statements.
func ToStatementResponses(statements []domain.Statement) []StatementResponse {
	responses := make([]StatementResponse, len(statements))
	for i := range statements {
		responses[i] = ToStatementResponse(&statements[i])
	}
	return responses
}

// ToLineItemResponses converts statement lines.
func ToLineItemResponses(items []domain.LineItem) []LineItemResponse {
	responses := make([]LineItemResponse, len(items))
	for i, li := range items {
		responses[i] = LineItemResponse{
			LineItemID:        li.LineItemID,
			Position:          li.Position,
			Date:              li.Date,
			Description:       li.Description,
			Amount:            li.Amount,
			Category:          li.Category,
			BudgetClass:       li.BudgetClass,
			Kind:              string(li.Kind),
			RelatedLineItemID: li.RelatedLineItemID,
		}
	}
	return responses
}

// ToDuplicateStatementResponse converts the reconciler's duplicate error.
func ToDuplicateStatementResponse(e *apperrors.DuplicateStatementError) DuplicateStatementResponse {
	return DuplicateStatementResponse{
		Error:       "statement already exists",
		Fingerprint: e.Fingerprint,
		StatementID: e.Existing.ID,
		BankName:    e.Existing.BankName,
		CardType:    e.Existing.CardType,
		CutoffDate:  e.Existing.CutoffDate,
		CreatedAt:   e.Existing.CreatedAt,
	}
}

// BackfillReport summarizes a full attribution backfill run.
type BackfillReport struct {
	Statements           int      `json:"statements"`
	LinesUpdated         int      `json:"linesUpdated"`
	BudgetClassesCleared int64    `json:"budgetClassesCleared"`
	Failed               []string `json:"failed,omitempty"`
}
