package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InboundEmailRequest is the payload posted by the inbound mail provider.
// It binds from either form fields (Mailgun style) or JSON.
type InboundEmailRequest struct {
	Subject   string `form:"subject" json:"subject" binding:"max=998"`
	BodyHTML  string `form:"body-html" json:"bodyHTML"`
	BodyPlain string `form:"body-plain" json:"bodyPlain"`
	Sender    string `form:"sender" json:"sender"`
	Owner     string `form:"owner" json:"owner" binding:"max=100"`
}

// HasBody reports whether the email carries a body to parse. A subject
// alone does not count.
func (r InboundEmailRequest) HasBody() bool {
	return strings.TrimSpace(r.BodyHTML) != "" || strings.TrimSpace(r.BodyPlain) != ""
}

// EmailPreviewResponse is a parsed but unsaved transaction.
type EmailPreviewResponse struct {
	Bank        string              `json:"bank,omitempty"`
	Transaction TransactionResponse `json:"transaction"`
}

// ListTransactionsParams holds the query parameters of the transaction list.
type ListTransactionsParams struct {
	Limit     int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// TransactionResponse defines the data returned for an ingested transaction.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	CardLabel     string          `json:"cardLabel"`
	BankName      string          `json:"bankName"`
	Owner         string          `json:"owner"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

// ListTransactionsResponse is one page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: txn.TransactionID,
		Timestamp:     txn.Timestamp,
		Description:   txn.Description,
		Amount:        txn.Amount,
		Category:      txn.Category,
		CardLabel:     txn.CardLabel,
		BankName:      txn.BankName,
		Owner:         txn.Owner,
	}
	if !txn.CreatedAt.IsZero() {
		createdAt := txn.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
