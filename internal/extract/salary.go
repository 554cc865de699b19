package extract

import "regexp"

// UK salary shapes: "£45,000", "£40k - £50k per annum", "£500/day".
var reSalary = regexp.MustCompile(`£\s?\d[\d,]*(?:k|K)?(?:\s*-\s*£?\s?\d[\d,]*(?:k|K)?)?(?:\s*(?:per\s+(?:annum|year|month|day|hour)|pa|p\.a\.|/year|/day|/hour))?`)

// Salary returns the first salary-looking span in the text, or "".
func Salary(text string) string {
	return CleanText(reSalary.FindString(text))
}
