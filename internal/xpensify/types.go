package xpensify

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID is an identifier the expense service may encode as either a JSON number or a string.
// The raw encoding is kept so that ids are echoed back exactly as they were received.
type ID struct {
	raw json.RawMessage
}

// NewID wraps a literal JSON value (e.g. `42` or `"abc"`) as an ID
func NewID(raw string) ID {
	return ID{raw: json.RawMessage(raw)}
}

// String returns the id without JSON quoting, suitable for URL paths
func (id ID) String() string {
	s := strings.TrimSpace(string(id.raw))
	var unquoted string
	if strings.HasPrefix(s, `"`) && json.Unmarshal([]byte(s), &unquoted) == nil {
		return unquoted
	}
	if s == "null" {
		return ""
	}
	return s
}

// IsZero reports whether the id is missing, null, empty or 0
func (id ID) IsZero() bool {
	s := id.String()
	return s == "" || s == "0"
}

// MarshalJSON writes the id in its original encoding
func (id ID) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(id.raw)) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON keeps the raw encoding of the id
func (id *ID) UnmarshalJSON(data []byte) error {
	id.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Currency is a currency type supported by the expense service
type Currency struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// ExpenseType is an active expense category
type ExpenseType struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Project is a timesheet an expense can be billed against
type Project struct {
	TimesheetID   ID     `json:"timesheetId"`
	TimesheetName string `json:"timesheetName"`
}

// ExpensePayload is the body for creating an expense under a claim
type ExpensePayload struct {
	Amount             *float64 `json:"amount"`
	CurrencyTypeSymbol string   `json:"currency_type_symbol"`
	DateOfExpense      string   `json:"date_of_expense"`
	ExpenseTypeID      ID       `json:"expense_type_id"`
	ProjectID          ID       `json:"project_id"`
	UserComment        string   `json:"user_comment"`
	Vendor             string   `json:"vendor"`
}

// Bill is the proof-of-purchase file attached to an expense
type Bill struct {
	Filename string
	MimeType string
	Data     []byte
}

type dataEnvelope[T any] struct {
	Data []T `json:"data"`
}

type timesheetsEnvelope struct {
	TimesheetNames []Project `json:"timesheetNames"`
}

type claimResponse struct {
	ClaimPK ID `json:"claim_pk"`
}

type expenseResponse struct {
	ID ID `json:"id"`
}
