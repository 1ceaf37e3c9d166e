package validation

import (
	"testing"
)

func TestValidateDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		minutes int
		wantErr bool
	}{
		{name: "lower bound", minutes: 5, wantErr: false},
		{name: "upper bound", minutes: 480, wantErr: false},
		{name: "typical value", minutes: 45, wantErr: false},
		{name: "below bound", minutes: 4, wantErr: true},
		{name: "zero", minutes: 0, wantErr: true},
		{name: "negative", minutes: -30, wantErr: true},
		{name: "above bound", minutes: 481, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateDuration(tt.minutes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDuration(%d) error = %v, wantErr %v", tt.minutes, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "working hours", value: "09:00-17:00", wantErr: false},
		{name: "single digit hour", value: "9:00-17:00", wantErr: false},
		{name: "late window", value: "22:30-23:59", wantErr: false},
		{name: "missing end", value: "09:00-", wantErr: true},
		{name: "bad separator", value: "09:00 to 17:00", wantErr: true},
		{name: "out of range hour", value: "25:00-26:00", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTimeRange(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimeRange(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid date", value: "2025-06-01", wantErr: false},
		{name: "leap day", value: "2024-02-29", wantErr: false},
		{name: "invalid day", value: "2025-02-30", wantErr: true},
		{name: "wrong format", value: "06/01/2025", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateDateString(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateString(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "monday", value: "monday", wantErr: false},
		{name: "sunday", value: "sunday", wantErr: false},
		{name: "capitalized", value: "Monday", wantErr: true},
		{name: "abbreviation", value: "mon", wantErr: true},
		{name: "not a day", value: "someday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateDayName(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDayName(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTaskCategory(t *testing.T) {
	t.Parallel()

	for _, category := range []string{"appointment", "cleaning", "errands", "work", "personal", "generic"} {
		if err := ValidateTaskCategory(category); err != nil {
			t.Errorf("Expected %q to be a valid category, got %v", category, err)
		}
	}
	if err := ValidateTaskCategory("chores"); err == nil {
		t.Error("Expected unknown category to be rejected")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  buy milk  ", want: "buy milk"},
		{name: "strips control characters", input: "buy\x00 milk\x07", want: "buy milk"},
		{name: "keeps newlines and tabs", input: "line one\n\tline two", want: "line one\n\tline two"},
		{name: "empty input", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
