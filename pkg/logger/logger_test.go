package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_WritesJSONWithServiceField(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf, Service: "sb-ecom"})
	log.Debug().Str("reason", "expired").Msg("authentication failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["service"] != "sb-ecom" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
	if entry["reason"] != "expired" {
		t.Errorf("expected reason field, got %v", entry["reason"])
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Options{Level: "info", Output: &first})
	Init(Options{Level: "debug", Output: &second})

	Get().Info().Msg("hello")
	if second.Len() != 0 {
		t.Error("second Init should not replace the logger")
	}
	if !strings.Contains(first.String(), "hello") {
		t.Errorf("expected entry in first writer, got %q", first.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Level: "warn", Output: &buf})
	Component("auth").Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info entry should be filtered at warn level, got %q", buf.String())
	}
	Component("auth").Warn().Msg("kept")
	if !strings.Contains(buf.String(), `"component":"auth"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestGet_BeforeInitIsDisabled(t *testing.T) {
	Reset()
	if got := Get().GetLevel(); got != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
