package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"drone-survey-system/internal/domain"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("0b7c1c9e-3f0e-4d5a-9a51-6f3f4c2b8d11")
	assert.Equal(t, "reports/0b7c1c9e-3f0e-4d5a-9a51-6f3f4c2b8d11/report-20240501.xlsx", ObjectKey(id, "report-20240501.xlsx"))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"report.xlsx", true},
		{"report-20240501T120000.xlsx", true},
		{"", false},
		{"../secret", false},
		{"nested/report.xlsx", false},
		{".hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}
