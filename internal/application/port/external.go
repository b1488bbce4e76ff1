package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChatMessenger delivers plain text to a user on an external chat platform
type ChatMessenger interface {
	SendText(ctx context.Context, openID, text string) error
}

// CurrencyConverter converts amounts between currencies. Used for display only.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// HistorySheet is the data rendered by a HistoryExporter
type HistorySheet struct {
	ExpenseID    int64
	EmployeeName string
	Description  string
	Amount       decimal.Decimal
	Currency     string
	Status       string
	Entries      []*ApprovalHistoryEntry
}

// HistoryExporter renders an expense's approval history as a document
type HistoryExporter interface {
	ExportHistory(ctx context.Context, sheet *HistorySheet) ([]byte, error)
	ContentType() string
	FileExtension() string
}
