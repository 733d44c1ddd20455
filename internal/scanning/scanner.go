package scanning

import (
	"context"
	"errors"
)

// ErrNoText is returned when the model response carries no text part to decode
var ErrNoText = errors.New("no text in model response")

// ExpenseData contains the fields extracted from a bill
type ExpenseData struct {
	Date        string   `json:"date"` // YYYY-MM-DD, or empty when unknown
	Vendor      string   `json:"vendor"`
	Amount      *float64 `json:"amount"` // nil when the model could not read a total
	Currency    string   `json:"currency"`
	ExpenseType string   `json:"expenseType"`
}

// Extractor defines the interface for AI extraction of expense fields
type Extractor interface {
	// Extract sends a bill to the model and decodes the expense fields.
	// categories is the closed list of expense type names the model must choose from.
	Extract(ctx context.Context, data []byte, mimeType string, categories []string) (*ExpenseData, error)
	// Close releases any resources held by the extractor
	Close() error
}
