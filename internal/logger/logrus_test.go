package logger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestEntryFallsBackToStandardLogger(t *testing.T) {
	e := Entry(context.Background())
	if e == nil {
		t.Fatal("Entry() returned nil")
	}
	if e.Logger != logrus.StandardLogger() {
		t.Error("expected fallback entry on the standard logger")
	}
}

func TestWithLogEntry(t *testing.T) {
	l := New("debug")
	want := l.WithField("task", "abc")
	ctx := WithLogEntry(context.Background(), want)

	if got := Entry(ctx); got != want {
		t.Errorf("Entry() = %p, want %p", got, want)
	}
}

func TestNewLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"nonsense", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := New(tt.in).GetLevel(); got != tt.want {
			t.Errorf("New(%q).GetLevel() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
