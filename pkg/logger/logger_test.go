package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerNoOutputsIsNop(t *testing.T) {
	l, err := NewLogger(Options{})
	if err != nil {
		t.Fatalf("NewLogger with no outputs returned error: %v", err)
	}
	// Must not panic when every Sink method is called on a no-op core.
	l.Debug("debug %d", 1)
	l.Info("info")
	l.Notice("notice")
	l.Warning("warning")
	l.Error("error")
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() = %v, want nil", err)
	}
}

func TestLoggerImplementsSink(t *testing.T) {
	var _ Sink = (*Logger)(nil)
	var _ Sink = NopSink{}
}

func TestNopSinkDiscardsEverything(t *testing.T) {
	var s Sink = NopSink{}
	s.Debug("x")
	s.Info("x")
	s.Notice("x")
	s.Warning("x")
	s.Error("x")
}

func TestConsoleWriterRoutesOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(Options{ConsoleOutput: true, ConsoleLevel: InfoLevel, ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Info("hello %s", "world")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("ConsoleWriter buffer = %q, want it to contain the logged message", buf.String())
	}
}

func TestWithReturnsIndependentLogger(t *testing.T) {
	base, err := NewLogger(Options{ConsoleOutput: true, ConsoleLevel: InfoLevel})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	derived := base.With("class_name", "demo.Step")
	if derived == base {
		t.Error("With() should return a distinct *Logger")
	}
}
