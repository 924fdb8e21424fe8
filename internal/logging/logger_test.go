package logging

import "testing"

func TestDefaultIsNeverNil(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() must never return nil")
	}
}

func TestSetDefaultRoundTrips(t *testing.T) {
	l := NewNop()
	SetDefault(l)
	if Default() != l {
		t.Fatal("SetDefault should replace the package-level logger")
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Debugf("x=%d", 1)
	l.Infof("x=%d", 1)
	l.Warnf("x=%d", 1)
	l.Errorf("x=%d", 1)
	l.Printf("x=%d", 1)
	if err := l.Sync(); err != nil {
		// Sync's result is logged, not asserted: stderr-backed zap
		// loggers can return a benign "inappropriate ioctl" error.
		t.Logf("Sync returned: %v (tolerated for Nop logger)", err)
	}
}
