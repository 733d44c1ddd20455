package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/xpensify-agent/internal/receipt"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

// ErrNoProjects is returned when the member has no project to bill against
var ErrNoProjects = errors.New("no projects available")

// rollbackTimeout bounds the compensating delete, which runs even if the run context is done
const rollbackTimeout = 30 * time.Second

// ProjectSelector asks a human to pick the project expenses are billed against
type ProjectSelector interface {
	SelectProject(ctx context.Context, projects []xpensify.Project) (xpensify.Project, error)
}

// Progress receives human-readable updates while a run is in flight
type Progress interface {
	Stage(format string, args ...any)
	FileStarted(index, total int, filename string)
	Extracted(data *scanning.ExpenseData)
	Submitting(payload xpensify.ExpensePayload)
	FileFinished(filename string, expenseID xpensify.ID)
}

// FileResult records the expense created for one receipt
type FileResult struct {
	Filename  string
	ExpenseID xpensify.ID
}

// Result summarizes a successful run
type Result struct {
	ClaimID xpensify.ID
	Title   string
	URL     string
	Files   []FileResult
}

// Runner drives a claim run: discover receipts, fetch reference data, select a
// project, create the claim, then extract and submit every receipt in order.
type Runner struct {
	service   *Service
	extractor scanning.Extractor
	storage   receipt.Storage
	selector  ProjectSelector
	progress  Progress
	appURL    string
}

// NewRunner creates a new Runner
func NewRunner(service *Service, extractor scanning.Extractor, storage receipt.Storage, selector ProjectSelector, progress Progress, appURL string) *Runner {
	return &Runner{
		service:   service,
		extractor: extractor,
		storage:   storage,
		selector:  selector,
		progress:  progress,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// ClaimURL returns the web link for viewing a claim's expenses
func (r *Runner) ClaimURL(claimID xpensify.ID) string {
	return fmt.Sprintf("%s/user/claims/%s/expenses", r.appURL, claimID.String())
}

// Run processes every receipt into a single new claim titled title.
// If anything fails after the claim was created, the claim is deleted before returning.
func (r *Runner) Run(ctx context.Context, title string) (result *Result, err error) {
	m := &machine{state: StateInit}
	var claimID xpensify.ID

	defer func() {
		if err == nil {
			return
		}
		if tErr := m.transition(StateFailed); tErr != nil {
			slog.Error("Could not mark run as failed", "error", tErr)
		}
		if !m.needsRollback() {
			return
		}
		if rbErr := r.rollback(ctx, claimID); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = m.transition(StateDiscoverFiles); err != nil {
		return nil, err
	}
	r.progress.Stage("Searching for receipts")
	paths, err := r.storage.Discover()
	if err != nil {
		return nil, err
	}
	r.progress.Stage("Found %d files to process", len(paths))

	if err = m.transition(StateFetchSetup); err != nil {
		return nil, err
	}
	r.progress.Stage("Fetching currencies, expense types and projects")
	setup, err := r.service.FetchSetup(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching setup data: %w", err)
	}

	if err = m.transition(StateSelectProject); err != nil {
		return nil, err
	}
	if len(setup.Projects) == 0 {
		return nil, ErrNoProjects
	}
	project, err := r.selector.SelectProject(ctx, setup.Projects)
	if err != nil {
		return nil, fmt.Errorf("selecting project: %w", err)
	}

	if err = m.transition(StateCreateClaim); err != nil {
		return nil, err
	}
	r.progress.Stage("Creating new claim")
	claimID, err = r.service.CreateClaim(ctx)
	if err != nil {
		return nil, err
	}
	if err = m.markClaimCreated(); err != nil {
		return nil, err
	}
	r.progress.Stage("Created claim %s", claimID.String())

	if err = r.service.SetTitle(ctx, claimID, title); err != nil {
		return nil, err
	}
	r.progress.Stage("Set claim title to %q", title)

	result = &Result{
		ClaimID: claimID,
		Title:   title,
		URL:     r.ClaimURL(claimID),
		Files:   make([]FileResult, 0, len(paths)),
	}
	categories := setup.ExpenseTypeNames()

	for i, path := range paths {
		if err = m.transition(StateProcessFile); err != nil {
			return nil, err
		}
		r.progress.FileStarted(i+1, len(paths), filepath.Base(path))

		fileResult, fileErr := r.processFile(ctx, claimID, setup, project, categories, path)
		if fileErr != nil {
			return nil, fmt.Errorf("processing %s: %w", filepath.Base(path), fileErr)
		}
		result.Files = append(result.Files, *fileResult)
		r.progress.FileFinished(fileResult.Filename, fileResult.ExpenseID)
	}

	if err = m.transition(StateDone); err != nil {
		return nil, err
	}
	return result, nil
}

// processFile extracts and submits a single receipt
func (r *Runner) processFile(ctx context.Context, claimID xpensify.ID, setup *SetupData, project xpensify.Project, categories []string, path string) (*FileResult, error) {
	rcpt, err := r.storage.Load(path)
	if err != nil {
		return nil, err
	}
	r.progress.Stage("Detected file type: %s", rcpt.MimeType)

	data, err := r.extractor.Extract(ctx, rcpt.Data, rcpt.MimeType, categories)
	if err != nil {
		return nil, fmt.Errorf("extracting expense: %w", err)
	}
	r.progress.Extracted(data)

	if data.Currency != "" && !setup.HasCurrency(data.Currency) {
		slog.Warn("Extracted currency is not a known currency type", "currency", data.Currency, "file", rcpt.Filename)
	}

	payload, err := BuildExpensePayload(data, setup, project)
	if err != nil {
		return nil, err
	}
	r.progress.Submitting(payload)

	expenseID, err := r.service.SubmitExpense(ctx, claimID, payload, rcpt)
	if err != nil {
		return nil, fmt.Errorf("submitting expense: %w", err)
	}

	return &FileResult{
		Filename:  rcpt.Filename,
		ExpenseID: expenseID,
	}, nil
}

// rollback deletes the claim. It runs on a context detached from cancellation so
// an interrupted run still cleans up.
func (r *Runner) rollback(ctx context.Context, claimID xpensify.ID) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	r.progress.Stage("Deleting claim %s", claimID.String())
	if err := r.service.DeleteClaim(ctx, claimID); err != nil {
		slog.Error("Failed to delete claim", "claim_id", claimID.String(), "error", err)
		return fmt.Errorf("rolling back claim %s: %w", claimID.String(), err)
	}
	r.progress.Stage("Claim %s deleted as an intermediate step failed", claimID.String())
	return nil
}
