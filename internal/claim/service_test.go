package claim

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/xpensify-agent/internal/receipt"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

var _ = Describe("Service", func() {
	var (
		api     *mockAPI
		service *Service
		ctx     context.Context
	)

	BeforeEach(func() {
		api = newMockAPI()
		service = NewService(api)
		ctx = context.Background()
	})

	Describe("FetchSetup", func() {
		var (
			setup *SetupData
			err   error
		)

		JustBeforeEach(func() {
			setup, err = service.FetchSetup(ctx)
		})

		When("all requests succeed", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should fetch in order", func() {
				Expect(api.calls).To(Equal([]string{"CurrencyTypes", "ExpenseTypes", "Projects"}))
			})

			It("should keep the projects in fetch order", func() {
				Expect(setup.Projects[0].TimesheetName).To(Equal("Bench"))
				Expect(setup.Projects[1].TimesheetName).To(Equal("ProjectX"))
			})

			It("should expose the expense type names", func() {
				Expect(setup.ExpenseTypeNames()).To(Equal([]string{"Travel", "Meals"}))
			})
		})

		When("expense types fail", func() {
			BeforeEach(func() {
				api.expenseTypesErr = errors.New("503")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError("503"))
			})

			It("does not fetch projects", func() {
				Expect(api.count("Projects")).To(Equal(0))
			})
		})
	})

	Describe("LookupExpenseTypeID", func() {
		types := []xpensify.ExpenseType{
			{ID: xpensify.NewID("3"), Name: "Travel"},
			{ID: xpensify.NewID("7"), Name: "Meals"},
		}

		It("resolves an exact match", func() {
			id, err := LookupExpenseTypeID(types, "Meals")
			Expect(err).NotTo(HaveOccurred())
			Expect(id.String()).To(Equal("7"))
		})

		It("fails for an absent name", func() {
			_, err := LookupExpenseTypeID(types, "Lunch")
			Expect(err).To(MatchError(ErrUnknownExpenseType))
			Expect(err.Error()).To(ContainSubstring("Lunch"))
		})

		It("is case sensitive", func() {
			_, err := LookupExpenseTypeID(types, "meals")
			Expect(err).To(MatchError(ErrUnknownExpenseType))
		})

		It("fails when the matching type has no id", func() {
			_, err := LookupExpenseTypeID([]xpensify.ExpenseType{{Name: "Meals"}}, "Meals")
			Expect(err).To(MatchError(ErrUnknownExpenseType))
		})
	})

	Describe("FormatExpenseDate", func() {
		DescribeTable("renders midnight UTC",
			func(date, expected string) {
				Expect(FormatExpenseDate(date)).To(Equal(expected))
			},
			Entry("start of month", "2024-03-01", "2024-03-01T00:00:00.000Z"),
			Entry("leap day", "2024-02-29", "2024-02-29T00:00:00.000Z"),
			Entry("end of year", "2023-12-31", "2023-12-31T00:00:00.000Z"),
		)
	})

	Describe("BuildExpensePayload", func() {
		var (
			data    *scanning.ExpenseData
			setup   *SetupData
			project xpensify.Project
			payload xpensify.ExpensePayload
			err     error
		)

		BeforeEach(func() {
			data = newMockExtractor().data
			setup = &SetupData{ExpenseTypes: api.expenseTypes}
			project = xpensify.Project{TimesheetID: xpensify.NewID("42"), TimesheetName: "ProjectX"}
		})

		JustBeforeEach(func() {
			payload, err = BuildExpensePayload(data, setup, project)
		})

		When("the expense type and project resolve", func() {
			It("should map every field", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(payload.ExpenseTypeID.String()).To(Equal("7"))
				Expect(payload.ProjectID.String()).To(Equal("42"))
				Expect(payload.DateOfExpense).To(Equal("2024-01-05T00:00:00.000Z"))
				Expect(payload.Amount).To(HaveValue(Equal(12.5)))
				Expect(payload.CurrencyTypeSymbol).To(Equal("USD"))
				Expect(payload.Vendor).To(Equal("Cafe"))
				Expect(payload.UserComment).To(BeEmpty())
			})
		})

		When("the expense type is unknown", func() {
			BeforeEach(func() {
				data.ExpenseType = "Lunch"
			})

			It("returns ErrUnknownExpenseType", func() {
				Expect(err).To(MatchError(ErrUnknownExpenseType))
			})
		})

		When("the project has no timesheet id", func() {
			BeforeEach(func() {
				project = xpensify.Project{TimesheetName: "Orphan"}
			})

			It("returns ErrMissingProject", func() {
				Expect(err).To(MatchError(ErrMissingProject))
			})
		})
	})

	Describe("SubmitExpense", func() {
		var (
			rcpt      *receipt.Receipt
			expenseID xpensify.ID
			err       error
		)

		BeforeEach(func() {
			rcpt = &receipt.Receipt{Filename: "lunch.png", MimeType: "image/png", Data: []byte("png")}
		})

		JustBeforeEach(func() {
			expenseID, err = service.SubmitExpense(ctx, xpensify.NewID("101"), xpensify.ExpensePayload{Vendor: "Cafe"}, rcpt)
		})

		When("both requests succeed", func() {
			It("creates the expense then uploads the bill", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(api.calls).To(Equal([]string{"CreateExpense", "UploadBill"}))
				Expect(expenseID.String()).To(Equal("501"))
			})

			It("uploads the original file", func() {
				Expect(api.bills).To(Equal([]xpensify.Bill{{Filename: "lunch.png", MimeType: "image/png", Data: []byte("png")}}))
			})
		})

		When("creating the expense fails", func() {
			BeforeEach(func() {
				api.createExpenseErr = errors.New("bad payload")
			})

			It("does not upload a bill", func() {
				Expect(err).To(MatchError("bad payload"))
				Expect(api.count("UploadBill")).To(Equal(0))
			})
		})

		When("the upload fails", func() {
			BeforeEach(func() {
				api.uploadErr = errors.New("too large")
			})

			It("returns the error and leaves the expense in place", func() {
				Expect(err).To(MatchError("too large"))
				Expect(api.payloads).To(HaveLen(1))
				Expect(api.count("DeleteClaim")).To(Equal(0))
			})
		})
	})
})
