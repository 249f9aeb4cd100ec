package strength

import "testing"

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{Weak, "Weak"},
		{Fair, "Fair"},
		{Good, "Good"},
		{Strong, "Strong"},
		{Level(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForMasterPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Level
	}{
		{"empty", "", Weak},
		{"short", "abc1234", Weak},
		{"eight chars", "abcd1234", Fair},
		{"thirteen chars", "abcd1234efghi", Fair},
		{"fourteen chars", "abcd1234efghij", Good},
		{"nineteen chars", "abcd1234efghij12345", Good},
		{"twenty chars", "abcd1234efghij123456", Strong},
		{"long passphrase", "correct horse battery staple extra", Strong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForMasterPassword(tt.password); got != tt.want {
				t.Errorf("ForMasterPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
