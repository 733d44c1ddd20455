package scanning

import (
	"encoding/json"
	"fmt"
)

const expensePromptTemplate = `You are an expense processing agent. Carefully read the attached bill (photo, scan or PDF) and extract the following information:

1. **Date**: The primary transaction date, formatted as YYYY-MM-DD.

2. **Vendor**: The merchant or business that issued the bill.

3. **Amount**: The final total paid, as a number (e.g. 42.75 for $42.75).

4. **Currency**: The 3-letter currency code, e.g. USD, EUR, INR.

5. **Expense type**: Classify the expense into exactly ONE of these categories: %s

Return ONLY a single valid JSON object with the keys "date", "vendor", "amount", "currency" and "expenseType".
If a value cannot be determined, use an empty string for it, or null for "amount".`

// BuildPrompt renders the extraction instruction with the allowed category names embedded
func BuildPrompt(categories []string) string {
	if categories == nil {
		categories = []string{}
	}
	list, _ := json.Marshal(categories)
	return fmt.Sprintf(expensePromptTemplate, list)
}
