package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerDeliversToBothSinks(t *testing.T) {
	var local, shipper bytes.Buffer
	handler := newTeeHandler(
		slog.NewJSONHandler(&local, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&shipper, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(handler)

	log.Debug("local only")
	log.Warn("both sinks")

	if got := strings.Count(local.String(), "\n"); got != 2 {
		t.Errorf("Expected 2 local records, got %d", got)
	}
	if got := strings.Count(shipper.String(), "\n"); got != 1 {
		t.Errorf("Expected 1 shipped record, got %d", got)
	}
	if !strings.Contains(shipper.String(), "both sinks") {
		t.Error("Expected the warn record to reach the shipper")
	}
}

func TestTeeHandlerWithAttrsReachesBothSinks(t *testing.T) {
	var local, shipper bytes.Buffer
	handler := newTeeHandler(
		slog.NewJSONHandler(&local, nil),
		slog.NewJSONHandler(&shipper, nil),
	)
	log := slog.New(handler).With("module", "search")

	log.Info("indexed")

	for name, buf := range map[string]*bytes.Buffer{"local": &local, "shipper": &shipper} {
		if !strings.Contains(buf.String(), `"module":"search"`) {
			t.Errorf("Expected module attr in %s output, got %s", name, buf.String())
		}
	}
}

func TestTeeHandlerNilShipper(t *testing.T) {
	var local bytes.Buffer
	handler := newTeeHandler(slog.NewJSONHandler(&local, nil), nil)
	log := slog.New(handler)

	log.Info("catalog loaded")

	if !strings.Contains(local.String(), "catalog loaded") {
		t.Errorf("Expected local record, got %s", local.String())
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Expected info record to be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Expected warn record to be written")
	}
}
