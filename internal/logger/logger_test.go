package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json").With().Str("component", "exam_service").Logger()

	log.Info().Str("session_id", "abc").Msg("Session started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "exam_service" || entry["session_id"] != "abc" {
		t.Errorf("unexpected fields %v", entry)
	}
	if entry["message"] != "Session started" {
		t.Errorf("unexpected message %v", entry["message"])
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, "shouting", "json")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %s", zerolog.GlobalLevel())
	}
}
