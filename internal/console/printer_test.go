package console

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/xpensify-agent/internal/claim"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

var _ = Describe("Printer", func() {
	var (
		out     *bytes.Buffer
		printer *Printer
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		printer = NewPrinter(out)
	})

	It("satisfies claim.Progress", func() {
		var _ claim.Progress = printer
	})

	It("prints stages", func() {
		printer.Stage("Found %d files to process", 3)
		Expect(out.String()).To(ContainSubstring("Found 3 files to process"))
	})

	It("prints a banner per file", func() {
		printer.FileStarted(2, 5, "lunch.png")
		Expect(out.String()).To(ContainSubstring("Processing expense 2 of 5: lunch.png"))
	})

	It("prints extracted data as JSON", func() {
		amount := 12.5
		printer.Extracted(&scanning.ExpenseData{Vendor: "Cafe", Amount: &amount, ExpenseType: "Meals"})
		Expect(out.String()).To(ContainSubstring(`"vendor": "Cafe"`))
		Expect(out.String()).To(ContainSubstring(`"expenseType": "Meals"`))
	})

	It("prints the payload with raw ids", func() {
		printer.Submitting(xpensify.ExpensePayload{ExpenseTypeID: xpensify.NewID("7"), ProjectID: xpensify.NewID("42")})
		Expect(out.String()).To(ContainSubstring(`"expense_type_id": 7`))
		Expect(out.String()).To(ContainSubstring(`"project_id": 42`))
	})

	It("prints a summary with the claim link", func() {
		printer.Summary(&claim.Result{
			ClaimID: xpensify.NewID("900"),
			Title:   "January lunch",
			URL:     "https://app.example.com/user/claims/900/expenses",
			Files:   []claim.FileResult{{Filename: "lunch.png", ExpenseID: xpensify.NewID("77")}},
		})
		Expect(out.String()).To(ContainSubstring("All 1 expenses processed successfully!"))
		Expect(out.String()).To(ContainSubstring("https://app.example.com/user/claims/900/expenses"))
	})

	It("prints failures with the error text", func() {
		printer.Failure(errors.New("model overloaded"))
		Expect(out.String()).To(ContainSubstring("model overloaded"))
	})
})
