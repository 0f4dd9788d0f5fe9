package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	// Email validation pattern - configurable
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`

	// Agency code pattern - 2 to 16 uppercase letters/digits
	AgencyCodePattern = `^[A-Z0-9]{2,16}$`

	// Student code pattern - year(2) + agency(3) + sequence(4+)
	StudentCodePattern = `^\d{2}\d{3}\d{4,}$`

	// Visa category pattern, e.g. "D-2", "D-10" or "D-4-1"
	VisaCategoryPattern = `^[A-Z]\-\d+(\-\d+)?$`

	// Password min length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email        *regexp.Regexp
	AgencyCode   *regexp.Regexp
	StudentCode  *regexp.Regexp
	VisaCategory *regexp.Regexp
}{
	Email:        regexp.MustCompile(EmailPattern),
	AgencyCode:   regexp.MustCompile(AgencyCodePattern),
	StudentCode:  regexp.MustCompile(StudentCodePattern),
	VisaCategory: regexp.MustCompile(VisaCategoryPattern),
}

// IsValidEmail reports whether the address matches the email pattern.
func IsValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

// IsValidAgencyCode reports whether the code is uppercase alphanumeric.
func IsValidAgencyCode(code string) bool {
	return CompiledPatterns.AgencyCode.MatchString(code)
}

// IsValidVisaCategory reports whether the category looks like a visa class.
func IsValidVisaCategory(category string) bool {
	return CompiledPatterns.VisaCategory.MatchString(category)
}
