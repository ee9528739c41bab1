package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", false},
		{"single digit", "4", false},
		{"digits", "42", false},
		{"leading zeros", "0007", false},
		{"letter suffix", "4a", true},
		{"negative", "-1", true},
		{"decimal", "1.5", true},
		{"inner space", "4 2", true},
		{"trailing newline", "42\n", true},
		{"slash", "4/2", true},
		{"unicode digit", "٤٢", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PolicyID(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "PolicyID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPolicyID)
				assert.EqualError(t, err, PolicyIDMessage)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid date", "2024-05-01", false},
		{"leap day on leap year", "2024-02-29", false},
		{"leap day on common year", "2023-02-29", true},
		{"month 13", "2024-13-01", true},
		{"month 00", "2024-00-10", true},
		{"day 32", "2024-01-32", true},
		{"april 31", "2024-04-31", true},
		{"not zero padded", "2024-1-1", true},
		{"empty", "", true},
		{"slashes", "2024/05/01", true},
		{"trailing text", "2024-05-01x", true},
		{"with time", "2024-05-01T00:00:00Z", true},
		{"two digit year", "24-05-01", true},
		{"leading space", " 2024-05-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Date(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Date(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			if tt.wantErr {
				assert.EqualError(t, err, DateMessage)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-07", FormatDate(ts))
	assert.NoError(t, Date(FormatDate(ts)))
}
