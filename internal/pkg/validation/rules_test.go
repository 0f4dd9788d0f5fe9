package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidVisaCategory(t *testing.T) {
	tests := []struct {
		category string
		want     bool
	}{
		{"D-2", true},
		{"D-4-1", true},
		{"D-10", true},
		{"F-2-7", true},
		{"d-2", false},
		{"D2", false},
		{"D-", false},
		{"tourist", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidVisaCategory(tt.category))
		})
	}
}

func TestStudentCodePattern(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"260010001", true},
		{"261230042", true},
		{"2600100012", true}, // sequence overflowed past four digits
		{"26001001", false},  // sequence segment too short
		{"26001", false},
		{"26001000a", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, CompiledPatterns.StudentCode.MatchString(tt.code))
		})
	}
}

func TestIsValidAgencyCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"HANOI", true},
		{"SGN01", true},
		{"A", false},
		{"hanoi", false},
		{"HANOI STUDY", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAgencyCode(tt.code))
		})
	}
}
