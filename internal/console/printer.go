package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zombor/xpensify-agent/internal/claim"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

var (
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Printer writes human-readable run progress. It implements claim.Progress.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Stage prints a progress line
func (p *Printer) Stage(format string, args ...any) {
	fmt.Fprintln(p.w, stageStyle.Render("-> "+fmt.Sprintf(format, args...)))
}

// FileStarted prints the banner for a receipt
func (p *Printer) FileStarted(index, total int, filename string) {
	rule := mutedStyle.Render(strings.Repeat("-", 50))
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n", rule, headerStyle.Render(fmt.Sprintf("Processing expense %d of %d: %s", index, total, filename)), rule)
}

// Extracted prints the fields returned by the model
func (p *Printer) Extracted(data *scanning.ExpenseData) {
	p.dump("Extracted data", data)
}

// Submitting prints the payload about to be sent
func (p *Printer) Submitting(payload xpensify.ExpensePayload) {
	p.dump("Expense payload", payload)
}

// FileFinished prints the outcome for a receipt
func (p *Printer) FileFinished(filename string, expenseID xpensify.ID) {
	fmt.Fprintln(p.w, successStyle.Render(fmt.Sprintf("Finished %q (expense %s)", filename, expenseID.String())))
}

// Summary prints the final report with a link to the claim
func (p *Printer) Summary(result *claim.Result) {
	body := fmt.Sprintf("%s\nClaim:  %s (%s)\nView:   %s",
		successStyle.Render(fmt.Sprintf("All %d expenses processed successfully!", len(result.Files))),
		result.ClaimID.String(),
		result.Title,
		result.URL,
	)
	fmt.Fprintln(p.w, "\n"+boxStyle.Render(body))
}

// Failure prints the error that ended the run
func (p *Printer) Failure(err error) {
	fmt.Fprintln(p.w, "\n"+errorStyle.Render("An error occurred during the run: ")+err.Error())
}

func (p *Printer) dump(title string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", v))
	}
	fmt.Fprintf(p.w, "%s\n%s\n", headerStyle.Render(title+":"), string(data))
}
