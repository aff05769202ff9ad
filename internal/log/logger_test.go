package log

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   Level
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	if enabled(LevelDebug) || enabled(LevelInfo) {
		t.Error("debug/info enabled at warn level")
	}
	if !enabled(LevelWarn) || !enabled(LevelError) {
		t.Error("warn/error disabled at warn level")
	}
	if GetLevel() != LevelWarn {
		t.Errorf("GetLevel = %v, want warn", GetLevel())
	}
}

func TestLevelString(t *testing.T) {
	if s := LevelDebug.String(); s != "DEBUG" {
		t.Errorf("LevelDebug.String() = %q", s)
	}
	if s := Level(99).String(); s != "UNKNOWN" {
		t.Errorf("Level(99).String() = %q", s)
	}
}
