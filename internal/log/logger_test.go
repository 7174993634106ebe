package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	return logger, &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentWorker)
	logger.Info("Export message handled", FieldDuration, int64(12))

	line := buf.String()
	if !strings.Contains(line, FieldComponent+"="+ComponentWorker) {
		t.Fatalf("component not stamped: %s", line)
	}
	if !strings.Contains(line, FieldDuration+"=12") {
		t.Fatalf("caller fields dropped: %s", line)
	}
}

func TestWithComponentRebinds(t *testing.T) {
	logger, buf := newBufferLogger(ComponentApp)
	httpLogger := logger.WithComponent(ComponentHTTP)
	if httpLogger.Component() != ComponentHTTP {
		t.Fatalf("component = %q", httpLogger.Component())
	}

	httpLogger.Logger.Info("Request completed")
	if !strings.Contains(buf.String(), FieldComponent+"="+ComponentHTTP) {
		t.Fatalf("rebound component not stamped: %s", buf.String())
	}
}

func TestWithKeepsComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentApp)
	logger.With(FieldPath, "/api/mining/state").Warn("Request failed", FieldStatus, 500)

	line := buf.String()
	for _, want := range []string{
		FieldComponent + "=" + ComponentApp,
		FieldPath + "=/api/mining/state",
		FieldStatus + "=500",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q: %s", want, line)
		}
	}
}
