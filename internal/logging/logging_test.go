package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{name: "debug", level: "debug", want: zerolog.DebugLevel},
		{name: "case folded", level: "WARN", want: zerolog.WarnLevel},
		{name: "padded", level: "  error  ", want: zerolog.ErrorLevel},
		{name: "unknown falls back to info", level: "loud", want: zerolog.InfoLevel},
		{name: "empty falls back to info", level: "", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Setup(tt.level, "json")
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}

	// Leave the global level sane for other tests.
	Setup("info", "json")
}
