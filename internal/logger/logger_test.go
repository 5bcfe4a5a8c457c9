package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_IsUsableBeforeInit(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("New() returned nil Log")
	}
	l.Log.Info("discarded")
}

func TestInit_Levels(t *testing.T) {
	cases := []struct {
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"Info", zapcore.InfoLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := New()
			err := l.Init(tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Init(%q) did not return error", tc.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init(%q) error: %v", tc.level, err)
			}
			if !l.Log.Core().Enabled(tc.enabled) {
				t.Errorf("Init(%q): level %v not enabled", tc.level, tc.enabled)
			}
			if tc.enabled > zapcore.DebugLevel && l.Log.Core().Enabled(tc.enabled-1) {
				t.Errorf("Init(%q): level %v unexpectedly enabled", tc.level, tc.enabled-1)
			}
		})
	}
}
