package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zombor/xpensify-agent/internal/receipt"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

var (
	// ErrUnknownExpenseType is returned when the extracted category matches no active expense type
	ErrUnknownExpenseType = errors.New("could not find ID for expense type")

	// ErrMissingProject is returned when the selected project has no timesheet id
	ErrMissingProject = errors.New("could not find ID for project")
)

// API defines the expense service operations the claim flow depends on
type API interface {
	CurrencyTypes(ctx context.Context) ([]xpensify.Currency, error)
	ExpenseTypes(ctx context.Context) ([]xpensify.ExpenseType, error)
	Projects(ctx context.Context) ([]xpensify.Project, error)
	CreateClaim(ctx context.Context) (xpensify.ID, error)
	UpdateClaimTitle(ctx context.Context, claimID xpensify.ID, title string) error
	DeleteClaim(ctx context.Context, claimID xpensify.ID) error
	CreateExpense(ctx context.Context, claimID xpensify.ID, payload xpensify.ExpensePayload) (xpensify.ID, error)
	UploadBill(ctx context.Context, claimID, expenseID xpensify.ID, bill xpensify.Bill) error
}

// SetupData is the reference data fetched once per run
type SetupData struct {
	Currencies   []xpensify.Currency
	ExpenseTypes []xpensify.ExpenseType
	Projects     []xpensify.Project
}

// ExpenseTypeNames returns the category names the model may choose from
func (d *SetupData) ExpenseTypeNames() []string {
	names := make([]string, 0, len(d.ExpenseTypes))
	for _, et := range d.ExpenseTypes {
		names = append(names, et.Name)
	}
	return names
}

// HasCurrency reports whether symbol is one of the fetched currency symbols
func (d *SetupData) HasCurrency(symbol string) bool {
	for _, c := range d.Currencies {
		if c.Symbol == symbol {
			return true
		}
	}
	return false
}

// Service handles claim and expense operations against the expense service
type Service struct {
	api API
}

// NewService creates a new Service
func NewService(api API) *Service {
	return &Service{api: api}
}

// FetchSetup retrieves currencies, active expense types and projects. Any failure aborts.
func (s *Service) FetchSetup(ctx context.Context) (*SetupData, error) {
	currencies, err := s.api.CurrencyTypes(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Fetched currencies", "count", len(currencies))

	expenseTypes, err := s.api.ExpenseTypes(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Fetched active expense types", "count", len(expenseTypes))

	projects, err := s.api.Projects(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Fetched projects", "count", len(projects))

	return &SetupData{
		Currencies:   currencies,
		ExpenseTypes: expenseTypes,
		Projects:     projects,
	}, nil
}

// CreateClaim creates an empty draft claim
func (s *Service) CreateClaim(ctx context.Context) (xpensify.ID, error) {
	return s.api.CreateClaim(ctx)
}

// SetTitle sets the claim title
func (s *Service) SetTitle(ctx context.Context, claimID xpensify.ID, title string) error {
	return s.api.UpdateClaimTitle(ctx, claimID, title)
}

// DeleteClaim removes a claim, used to undo a failed run
func (s *Service) DeleteClaim(ctx context.Context, claimID xpensify.ID) error {
	return s.api.DeleteClaim(ctx, claimID)
}

// FormatExpenseDate renders an extracted YYYY-MM-DD date as midnight UTC
func FormatExpenseDate(date string) string {
	return date + "T00:00:00.000Z"
}

// LookupExpenseTypeID finds the id of the expense type with exactly the given name
func LookupExpenseTypeID(types []xpensify.ExpenseType, name string) (xpensify.ID, error) {
	for _, et := range types {
		if et.Name == name {
			if et.ID.IsZero() {
				break
			}
			return et.ID, nil
		}
	}
	return xpensify.ID{}, fmt.Errorf("%w: %q", ErrUnknownExpenseType, name)
}

// BuildExpensePayload maps extracted fields to the expense service schema
func BuildExpensePayload(data *scanning.ExpenseData, setup *SetupData, project xpensify.Project) (xpensify.ExpensePayload, error) {
	expenseTypeID, err := LookupExpenseTypeID(setup.ExpenseTypes, data.ExpenseType)
	if err != nil {
		return xpensify.ExpensePayload{}, err
	}
	if project.TimesheetID.IsZero() {
		return xpensify.ExpensePayload{}, fmt.Errorf("%w: %q", ErrMissingProject, project.TimesheetName)
	}

	return xpensify.ExpensePayload{
		Amount:             data.Amount,
		CurrencyTypeSymbol: data.Currency,
		DateOfExpense:      FormatExpenseDate(data.Date),
		ExpenseTypeID:      expenseTypeID,
		ProjectID:          project.TimesheetID,
		UserComment:        "",
		Vendor:             data.Vendor,
	}, nil
}

// SubmitExpense creates the expense under the claim and attaches the receipt as its bill.
// An expense created without a bill is left for the claim-level rollback to remove.
func (s *Service) SubmitExpense(ctx context.Context, claimID xpensify.ID, payload xpensify.ExpensePayload, rcpt *receipt.Receipt) (xpensify.ID, error) {
	expenseID, err := s.api.CreateExpense(ctx, claimID, payload)
	if err != nil {
		return xpensify.ID{}, err
	}
	slog.Info("Created expense", "claim_id", claimID.String(), "expense_id", expenseID.String())

	bill := xpensify.Bill{
		Filename: rcpt.Filename,
		MimeType: rcpt.MimeType,
		Data:     rcpt.Data,
	}
	if err := s.api.UploadBill(ctx, claimID, expenseID, bill); err != nil {
		return expenseID, err
	}
	slog.Info("Uploaded bill", "expense_id", expenseID.String(), "filename", rcpt.Filename)

	return expenseID, nil
}
