package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildPrompt", func() {
	It("embeds the exact category names as a JSON list", func() {
		prompt := BuildPrompt([]string{"Travel", "Meals"})
		Expect(prompt).To(ContainSubstring(`["Travel","Meals"]`))
	})

	It("names every key the model must return", func() {
		prompt := BuildPrompt([]string{"Travel"})
		for _, key := range []string{`"date"`, `"vendor"`, `"amount"`, `"currency"`, `"expenseType"`} {
			Expect(prompt).To(ContainSubstring(key))
		}
	})

	It("renders an empty list when there are no categories", func() {
		Expect(BuildPrompt(nil)).To(ContainSubstring("[]"))
	})
})
