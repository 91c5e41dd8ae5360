package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		json, debug bool
		level       zapcore.Level
	}{
		{json: false, debug: false, level: zapcore.InfoLevel},
		{json: true, debug: true, level: zapcore.DebugLevel},
	}

	for _, tc := range cases {
		l, err := New("barometer", tc.json, tc.debug)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Core().Enabled(tc.level) {
			t.Fatalf("expected level %s to be enabled", tc.level)
		}
		if tc.level == zapcore.InfoLevel && l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("debug must be disabled without the debug flag")
		}
	}
}
