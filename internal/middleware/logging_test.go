package middleware

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/api/takes", "/api/takes"},
		{"/api/takes/3f2b8c1e-9d4a-4f6b-8e21-7c5d9a0b1e2f", "/api/takes/:id"},
		{"/api/admin/takes/3f2b8c1e-9d4a-4f6b-8e21-7c5d9a0b1e2f/reports", "/api/admin/takes/:id/reports"},
		{"/api/admin/reports/not-a-uuid", "/api/admin/reports/not-a-uuid"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.input); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestInitLogger_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	InitLogger("debug", "hot-takes-test")
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}

	InitLogger("nonsense", "hot-takes-test")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("invalid level should fall back to info, got %v", zerolog.GlobalLevel())
	}
}
