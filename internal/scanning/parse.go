package scanning

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rawExpense mirrors ExpenseData but keeps amount undecoded, models sometimes quote it
type rawExpense struct {
	Date        string          `json:"date"`
	Vendor      string          `json:"vendor"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	ExpenseType string          `json:"expenseType"`
}

// parseExpenseJSON parses the JSON text returned by the model
func parseExpenseJSON(text string) (*ExpenseData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var raw rawExpense
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return nil, err
	}

	return &ExpenseData{
		Date:        normalizeDate(raw.Date),
		Vendor:      strings.TrimSpace(raw.Vendor),
		Amount:      amount,
		Currency:    strings.ToUpper(strings.TrimSpace(raw.Currency)),
		ExpenseType: strings.TrimSpace(raw.ExpenseType),
	}, nil
}

// parseAmount accepts a JSON number, a numeric string, or null/empty
func parseAmount(raw json.RawMessage) (*float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}

	if strings.HasPrefix(s, `"`) {
		var quoted string
		if err := json.Unmarshal(raw, &quoted); err != nil {
			return nil, fmt.Errorf("decoding amount: %w", err)
		}
		s = strings.ReplaceAll(strings.TrimSpace(quoted), ",", "")
		if s == "" {
			return nil, nil
		}
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return &amount, nil
}

// normalizeDate rewrites common date layouts to YYYY-MM-DD.
// Unrecognized values are returned as-is.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return date
}
